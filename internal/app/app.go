// Package app wires configuration into the stores, the cleaner registry,
// the optional warehouse and the pipeline. The server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core"
	"github.com/JonMunkholm/etl/internal/core/tables"
	"github.com/JonMunkholm/etl/internal/pipeline"
	"github.com/JonMunkholm/etl/internal/storage"
	"github.com/JonMunkholm/etl/internal/warehouse"
)

// App holds the long-lived collaborators of one process.
type App struct {
	Config   *config.Config
	Stores   storage.Pair
	Registry *core.Registry
	Sink     warehouse.Sink
	Metrics  *prometheus.Registry
	Pipeline *pipeline.Pipeline
}

// New connects the configured backends and builds the pipeline. Close
// releases the warehouse connection.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	stores, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	registry, err := tables.NewRegistry(tables.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	sink, err := warehouse.Open(ctx, cfg.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	metrics, err := pipeline.NewMetrics(promRegistry)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	publishers := []pipeline.Publisher{pipeline.NewCSVPublisher(stores.Clean)}
	if sink != nil {
		publishers = append(publishers, pipeline.NewSinkPublisher(sink))
	}

	p := pipeline.New(stores.Raw, registry, pipeline.OptionsFromConfig(cfg.Pipeline), publishers,
		pipeline.WithMetrics(metrics),
		pipeline.WithLimiter(pipeline.NewRunLimiter(cfg.Pipeline.RunWait)),
	)

	slog.Info("pipeline ready",
		"raw", stores.Raw.Location(),
		"clean", stores.Clean.Location(),
		"tables", registry.TableCount(),
		"warehouse", sink != nil,
	)

	return &App{
		Config:   cfg,
		Stores:   stores,
		Registry: registry,
		Sink:     sink,
		Metrics:  promRegistry,
		Pipeline: p,
	}, nil
}

// Close releases external connections.
func (a *App) Close() error {
	if a.Sink == nil {
		return nil
	}
	return a.Sink.Close()
}

func closeSink(sink warehouse.Sink) {
	if sink == nil {
		return
	}
	if err := sink.Close(); err != nil {
		slog.Warn("close warehouse", "error", err)
	}
}
