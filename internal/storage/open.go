package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/JonMunkholm/etl/internal/config"
)

// Pair holds the raw input store and the cleaned output store.
type Pair struct {
	Raw   Store
	Clean Store
}

// Open builds the raw and clean stores for the configured backend. The Azure
// clean container is created if missing.
func Open(ctx context.Context, cfg config.StorageConfig) (Pair, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendAzure:
		client, err := NewBlobClient(cfg.ConnectionString)
		if err != nil {
			return Pair{}, err
		}
		clean := NewBlobStore(client, cfg.CleanContainer)
		if err := clean.EnsureContainer(ctx); err != nil {
			return Pair{}, err
		}
		return Pair{Raw: NewBlobStore(client, cfg.RawContainer), Clean: clean}, nil

	case config.BackendFS:
		return Pair{
			Raw:   NewOSStore(cfg.Root, cfg.RawContainer),
			Clean: NewOSStore(cfg.Root, cfg.CleanContainer),
		}, nil

	case config.BackendMemory:
		mem := afero.NewMemMapFs()
		return Pair{
			Raw:   NewFSStore(mem, cfg.RawContainer),
			Clean: NewFSStore(mem, cfg.CleanContainer),
		}, nil

	default:
		return Pair{}, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
