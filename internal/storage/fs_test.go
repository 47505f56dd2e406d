package storage

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core"
)

func TestFSStore_PutOpenList(t *testing.T) {
	ctx := context.Background()
	mem := afero.NewMemMapFs()
	s := NewFSStore(mem, "cleandata")

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names, "missing directory lists as empty")

	require.NoError(t, s.Put(ctx, "Aircraft.csv", []byte("registration\nGABC\n")))
	require.NoError(t, s.Put(ctx, "Account.csv", []byte("id\n")))
	require.NoError(t, s.Put(ctx, "Aircraft.csv", []byte("registration\nGXYZ\n")))

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Account.csv", "Aircraft.csv"}, names)

	rc, err := s.Open(ctx, "Aircraft.csv")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "registration\nGXYZ\n", string(data), "Put overwrites")

	exists, err := afero.Exists(mem, "cleandata/.Aircraft.csv.tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temporary file is renamed away")
}

func TestFSStore_OpenMissing(t *testing.T) {
	s := NewFSStore(afero.NewMemMapFs(), "rawdata")
	_, err := s.Open(context.Background(), "Asset.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "STO002", core.MapError(err).Code)
}

func TestFSStore_ContainersAreSeparate(t *testing.T) {
	ctx := context.Background()
	pair, err := Open(ctx, config.StorageConfig{
		Backend:        config.BackendMemory,
		RawContainer:   "rawdata",
		CleanContainer: "cleandata",
	})
	require.NoError(t, err)

	require.NoError(t, pair.Raw.Put(ctx, "Asset.csv", []byte("Id\n")))
	names, err := pair.Clean.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, "fs:rawdata", pair.Raw.Location())
}

func TestFSStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewFSStore(afero.NewMemMapFs(), "rawdata")
	assert.ErrorIs(t, s.Put(ctx, "a.csv", nil), context.Canceled)
	_, err := s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_OSBackend(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	pair, err := Open(ctx, config.StorageConfig{
		Backend:        config.BackendFS,
		Root:           root,
		RawContainer:   "rawdata",
		CleanContainer: "cleandata",
	})
	require.NoError(t, err)

	require.NoError(t, pair.Clean.Put(ctx, "Ownership.csv", []byte("account_id\n")))
	exists, err := afero.Exists(afero.NewOsFs(), root+"/cleandata/Ownership.csv")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.StorageConfig{Backend: config.BackendAzure, ConnectionString: "not a connection string"})
	assert.Error(t, err)
}
