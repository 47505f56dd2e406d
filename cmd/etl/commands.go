package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/etl/internal/app"
	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core/tables"
	"github.com/JonMunkholm/etl/internal/extract"
	"github.com/JonMunkholm/etl/internal/logging"
	"github.com/JonMunkholm/etl/internal/storage"
)

// tableFailure marks a run that completed with failed tables.
type tableFailure struct{ err error }

func (e *tableFailure) Error() string { return e.err.Error() }
func (e *tableFailure) Unwrap() error { return e.err }

type rootOptions struct {
	envFile string
	backend string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "etl",
		Short:         "Clean CRM extracts and publish canonical tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before configuration, if present")
	cmd.PersistentFlags().StringVar(&opts.backend, "storage", "", "Override STORAGE_BACKEND (azure, fs, memory)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newExtractCommand(opts))
	cmd.AddCommand(newTablesCommand())
	return cmd
}

// loadConfig reads the env file without overriding the process
// environment, applies flag overrides and sets up logging.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err == nil {
			slog.Debug("loaded env file", "path", o.envFile)
		}
	}

	cfg, err := config.LoadFrom(func(key string) string {
		if key == "STORAGE_BACKEND" && o.backend != "" {
			return o.backend
		}
		return os.Getenv(key)
	})
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func newRunCommand(root *rootOptions) *cobra.Command {
	var (
		asJSON      bool
		tableList   string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every raw table once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if tableList != "" {
				cfg.Pipeline.Tables = splitTables(tableList)
			}
			if concurrency > 0 {
				cfg.Pipeline.Concurrency = concurrency
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Pipeline.Run(ctx)
			if res == nil {
				return err
			}
			if asJSON {
				if encErr := writeJSON(cmd.OutOrStdout(), res); encErr != nil {
					return encErr
				}
			} else {
				printRun(cmd.OutOrStdout(), res.Tables)
			}
			if err != nil {
				return &tableFailure{err: err}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run result as JSON")
	cmd.Flags().StringVar(&tableList, "tables", "", "Comma-separated raw tables, overrides PIPELINE_TABLES")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Tables processed at once, overrides PIPELINE_CONCURRENCY")
	return cmd
}

func newExtractCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Fetch flights from the FL3XX API into the raw store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			stores, err := storage.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}

			res, err := extract.New(extract.NewClient(cfg.Extract), stores.Raw, cfg.Extract).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s to %s: %d flights, %d skipped, %d columns\n",
				res.Object, stores.Raw.Location(), len(res.Fetched), len(res.Skipped), res.Columns)
			return nil
		},
	}
}

func newTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables that have a cleaner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := tables.NewRegistry(tables.DefaultConfig())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tLABEL\tOUTPUTS")
			for _, def := range reg.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Info.Source, def.Info.Label, strings.Join(def.Info.Outputs, ", "))
			}
			return tw.Flush()
		},
	}
}

func splitTables(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
