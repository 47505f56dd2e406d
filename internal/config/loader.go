package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ulule/limiter/v3"
)

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv, applies defaults for unset
// values and validates the result.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal, getenv); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Primary name wins over the alternate.
		value := strings.TrimSpace(getenv(envName))
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = strings.TrimSpace(getenv(alt))
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case field.Kind() == reflect.String:
		field.SetString(value)

	case field.Kind() == reflect.Int, field.Kind() == reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case field.Kind() == reflect.Slice:
		return setSlice(field, splitList(value))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// setSlice fills a []string or []int64 from comma-separated parts.
func setSlice(field reflect.Value, parts []string) error {
	switch field.Type().Elem().Kind() {
	case reflect.String:
		field.Set(reflect.ValueOf(parts))
	case reflect.Int64:
		ids := make([]int64, len(parts))
		for i, p := range parts {
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer %q in list: %w", p, err)
			}
			ids[i] = n
		}
		field.Set(reflect.ValueOf(ids))
	default:
		return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
	}
	return nil
}

// splitList splits on commas, trims whitespace and drops empty entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT and SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Storage validation
	switch strings.ToLower(c.Storage.Backend) {
	case BackendAzure:
		if c.Storage.ConnectionString == "" {
			errs = append(errs, "BLOB_CONNECTION_STRING is required when STORAGE_BACKEND=azure")
		}
	case BackendFS:
		if c.Storage.Root == "" {
			errs = append(errs, "STORAGE_ROOT is required when STORAGE_BACKEND=fs")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_BACKEND (%q) must be one of: azure, fs, memory", c.Storage.Backend))
	}
	if c.Storage.RawContainer == "" || c.Storage.CleanContainer == "" {
		errs = append(errs, "RAW_CONTAINER_NAME and CLEANED_CONTAINER_NAME must be set")
	} else if c.Storage.RawContainer == c.Storage.CleanContainer {
		errs = append(errs, "RAW_CONTAINER_NAME and CLEANED_CONTAINER_NAME must differ")
	}

	// Pipeline validation
	if len(c.Pipeline.Tables) == 0 {
		errs = append(errs, "PIPELINE_TABLES must list at least one table")
	}
	if c.Pipeline.Concurrency <= 0 {
		errs = append(errs, "PIPELINE_CONCURRENCY must be positive")
	}
	if c.Pipeline.Timeout <= 0 {
		errs = append(errs, "PIPELINE_TIMEOUT must be positive")
	}
	if c.Pipeline.PublishRetries < 0 {
		errs = append(errs, "PIPELINE_PUBLISH_RETRIES must be non-negative")
	}
	if c.Pipeline.RetryBaseDelay <= 0 {
		errs = append(errs, "PIPELINE_RETRY_BASE_DELAY must be positive")
	}
	if c.Pipeline.RunWait <= 0 {
		errs = append(errs, "PIPELINE_RUN_WAIT must be positive")
	}
	if c.Pipeline.Schedule != "" {
		if _, err := cron.ParseStandard(c.Pipeline.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("PIPELINE_SCHEDULE is invalid: %v", err))
		}
	}
	if c.Pipeline.Watch {
		if strings.ToLower(c.Storage.Backend) != BackendFS {
			errs = append(errs, "PIPELINE_WATCH requires STORAGE_BACKEND=fs")
		}
		if c.Pipeline.WatchDebounce <= 0 {
			errs = append(errs, "PIPELINE_WATCH_DEBOUNCE must be positive")
		}
	}

	// Security validation
	if c.Security.RateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(c.Security.RateLimit); err != nil {
			errs = append(errs, fmt.Sprintf("ETL_RATE_LIMIT is invalid: %v", err))
		}
	}

	// Warehouse validation
	switch strings.ToLower(c.Warehouse.Driver) {
	case "":
	case DriverPostgres, DriverSQLServer:
		if c.Warehouse.URL == "" {
			errs = append(errs, "WAREHOUSE_URL is required when WAREHOUSE_DRIVER is set")
		}
		if c.Warehouse.MaxConns <= 0 {
			errs = append(errs, "WAREHOUSE_MAX_CONNS must be positive")
		}
		if c.Warehouse.BatchSize <= 0 {
			errs = append(errs, "WAREHOUSE_BATCH_SIZE must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("WAREHOUSE_DRIVER (%q) must be one of: postgres, sqlserver", c.Warehouse.Driver))
	}

	// Extract validation
	if u, err := url.Parse(c.Extract.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("EXTRACT_BASE_URL (%q) must be an absolute URL", c.Extract.BaseURL))
	}
	if c.Extract.Timeout <= 0 {
		errs = append(errs, "EXTRACT_TIMEOUT must be positive")
	}
	if c.Extract.Retries < 0 {
		errs = append(errs, "EXTRACT_RETRIES must be non-negative")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Connection strings, tokens and keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Storage: {Backend: %q, ConnectionString: %s, Raw: %q, Clean: %q}, ",
		c.Storage.Backend, mask(c.Storage.ConnectionString), c.Storage.RawContainer, c.Storage.CleanContainer)
	fmt.Fprintf(&b, "Pipeline: {Tables: %v, Concurrency: %d, Timeout: %s, Schedule: %q, Watch: %t}, ",
		c.Pipeline.Tables, c.Pipeline.Concurrency, c.Pipeline.Timeout, c.Pipeline.Schedule, c.Pipeline.Watch)
	fmt.Fprintf(&b, "Warehouse: {Driver: %q, URL: %s}, ", c.Warehouse.Driver, mask(c.Warehouse.URL))
	fmt.Fprintf(&b, "Extract: {BaseURL: %q, Token: %s, Flights: %d}, ",
		c.Extract.BaseURL, mask(c.Extract.Token), len(c.Extract.FlightIDs))
	fmt.Fprintf(&b, "Security: {FunctionKeys: %d, RateLimit: %q}, ", len(c.Security.FunctionKeys), c.Security.RateLimit)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
