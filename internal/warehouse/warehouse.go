// Package warehouse loads canonical frames into a relational database.
//
// Every write is a full snapshot: the target table is created when missing,
// its rows are deleted and the frame is bulk loaded, all in one transaction.
// Table names are the lowercased frame names; columns keep their normalized
// names and map to a column type per core.FieldType.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core"
)

// Sink writes frames to a database.
type Sink interface {
	Write(ctx context.Context, f *core.Frame) error
	Close() error
	// Driver names the backing database, e.g. "postgres".
	Driver() string
}

// Open connects to the configured warehouse. It returns nil when no driver is
// configured.
func Open(ctx context.Context, cfg config.WarehouseConfig) (Sink, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		sink, err := OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.DriverSQLServer:
		sink, err := OpenSQLServer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("warehouse: unknown driver %q", cfg.Driver)
	}
}

// TableName maps a frame name to its warehouse table.
func TableName(frame string) string {
	return strings.ToLower(frame)
}

// dialect renders column types for one database.
type dialect struct {
	types map[core.FieldType]string
	quote func(string) string
}

func (d dialect) columnDefs(cols []core.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ, ok := d.types[c.Type]
		if !ok {
			typ = d.types[core.FieldText]
		}
		defs[i] = d.quote(c.Name) + " " + typ
	}
	return strings.Join(defs, ", ")
}

func (d dialect) quotedNames(cols []core.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.quote(c.Name)
	}
	return names
}
