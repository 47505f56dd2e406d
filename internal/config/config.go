// Package config provides centralized configuration management for the ETL
// service and CLI. Values come from environment variables (optionally seeded
// from a .env file by the caller) with defaults, and are validated on startup
// to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Storage backends.
const (
	BackendAzure  = "azure"
	BackendFS     = "fs"
	BackendMemory = "memory"
)

// Warehouse drivers. An empty driver disables the warehouse sink.
const (
	DriverPostgres  = "postgres"
	DriverSQLServer = "sqlserver"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Pipeline  PipelineConfig
	Warehouse WarehouseConfig
	Extract   ExtractConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP trigger settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on. Azure Functions custom handlers receive
	// theirs in FUNCTIONS_CUSTOMHANDLER_PORT.
	Port int `env:"SERVER_PORT" envAlt:"FUNCTIONS_CUSTOMHANDLER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout must cover a full pipeline run since the trigger answers
	// only when processing is done (default: 0, no limit)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// CORSOrigins lists browser origins allowed to call /api. Empty
	// disables CORS headers.
	CORSOrigins []string `env:"SERVER_CORS_ORIGINS"`
}

// StorageConfig selects where raw extracts are read and cleaned tables
// written.
type StorageConfig struct {
	// Backend is azure, fs or memory (default: azure)
	Backend string `env:"STORAGE_BACKEND" default:"azure"`

	// ConnectionString is the Azure Storage connection string.
	ConnectionString string `env:"BLOB_CONNECTION_STRING" envAlt:"AZURE_STORAGE_CONNECTION_STRING"`

	RawContainer   string `env:"RAW_CONTAINER_NAME" default:"rawdata"`
	CleanContainer string `env:"CLEANED_CONTAINER_NAME" default:"cleandata"`

	// Root is the base directory of the fs backend. Containers are
	// subdirectories.
	Root string `env:"STORAGE_ROOT" default:"./data"`
}

// PipelineConfig holds run settings.
type PipelineConfig struct {
	// Tables lists the raw tables picked up from the raw container.
	Tables []string `env:"PIPELINE_TABLES" default:"Aircraft,Opportunity,flight_data,Contact,invoices,Asset,Account,Ownership"`

	// Concurrency is the number of tables processed at once (default: 1)
	Concurrency int `env:"PIPELINE_CONCURRENCY" default:"1"`

	// Timeout bounds one full run (default: 10m)
	Timeout time.Duration `env:"PIPELINE_TIMEOUT" default:"10m"`

	// PublishRetries is how often a failed upload is retried (default: 3)
	PublishRetries int `env:"PIPELINE_PUBLISH_RETRIES" default:"3"`

	// RetryBaseDelay is the first backoff interval (default: 200ms)
	RetryBaseDelay time.Duration `env:"PIPELINE_RETRY_BASE_DELAY" default:"200ms"`

	// RunWait is how long a trigger waits for a running pass to finish
	// before it is rejected (default: 30s)
	RunWait time.Duration `env:"PIPELINE_RUN_WAIT" default:"30s"`

	// Schedule runs the pipeline periodically in the server. Accepts a
	// five field cron expression or a descriptor such as "@every 30m".
	// Empty disables scheduled runs.
	Schedule string `env:"PIPELINE_SCHEDULE"`

	// Watch triggers a run when raw files change. Only the fs backend
	// supports it (default: false)
	Watch bool `env:"PIPELINE_WATCH" default:"false"`

	// WatchDebounce coalesces bursts of file events into one run
	// (default: 2s)
	WatchDebounce time.Duration `env:"PIPELINE_WATCH_DEBOUNCE" default:"2s"`
}

// WarehouseConfig configures the optional database sink.
type WarehouseConfig struct {
	// Driver is postgres, sqlserver or empty to disable.
	Driver string `env:"WAREHOUSE_DRIVER"`

	// URL is the driver specific connection string.
	URL string `env:"WAREHOUSE_URL" envAlt:"DATABASE_URL"`

	// Schema qualifies table names when set.
	Schema string `env:"WAREHOUSE_SCHEMA"`

	MaxConns int `env:"WAREHOUSE_MAX_CONNS" default:"4"`

	// BatchSize is rows per INSERT statement on SQL Server (default: 200)
	BatchSize int `env:"WAREHOUSE_BATCH_SIZE" default:"200"`
}

// Enabled reports whether a warehouse sink is configured.
func (w WarehouseConfig) Enabled() bool {
	return w.Driver != ""
}

// ExtractConfig holds the flight API extraction settings.
type ExtractConfig struct {
	// BaseURL is joined with the flight id.
	BaseURL string `env:"EXTRACT_BASE_URL" default:"https://test.fl3xx.com/api/external/flight/"`

	// Token is sent as X-Auth-Token.
	Token string `env:"API_TOKEN"`

	FlightIDs []int64 `env:"EXTRACT_FLIGHT_IDS" default:"79952,79953,79956,79957,79958,79959,79960"`

	Timeout time.Duration `env:"EXTRACT_TIMEOUT" default:"30s"`

	// Retries applies to transport errors and 5xx responses (default: 2)
	Retries int `env:"EXTRACT_RETRIES" default:"2"`

	// Table is the raw table the extract is written to (default: flight_data)
	Table string `env:"EXTRACT_TABLE" default:"flight_data"`
}

// SecurityConfig holds trigger authentication settings.
type SecurityConfig struct {
	// FunctionKeys are accepted in the x-functions-key header or the code
	// query parameter. Empty disables the check.
	FunctionKeys []string `env:"ETL_FUNCTION_KEYS"`

	// RateLimit caps /api requests per client IP, as "<limit>-<period>"
	// with period S, M, H or D. Empty disables it (default: 60-M)
	RateLimit string `env:"ETL_RATE_LIMIT" default:"60-M"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
