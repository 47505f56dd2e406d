package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core"
)

var postgresDialect = dialect{
	types: map[core.FieldType]string{
		core.FieldText:      "text",
		core.FieldDate:      "date",
		core.FieldTimestamp: "timestamp",
		core.FieldBool:      "boolean",
		core.FieldInteger:   "bigint",
	},
	quote: func(s string) string { return pgx.Identifier{s}.Sanitize() },
}

// pgPool is the subset of *pgxpool.Pool the sink needs.
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresSink loads frames with COPY.
type PostgresSink struct {
	pool   pgPool
	schema string
}

// OpenPostgres creates a pool from cfg.URL and verifies the connection.
func OpenPostgres(ctx context.Context, cfg config.WarehouseConfig) (*PostgresSink, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("warehouse: parse postgres url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("warehouse: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("warehouse: ping postgres: %w", err)
	}

	return NewPostgresSink(pool, cfg.Schema), nil
}

// NewPostgresSink wraps an existing pool.
func NewPostgresSink(pool pgPool, schema string) *PostgresSink {
	return &PostgresSink{pool: pool, schema: schema}
}

func (s *PostgresSink) Driver() string { return config.DriverPostgres }

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresSink) identifier(frame string) pgx.Identifier {
	if s.schema == "" {
		return pgx.Identifier{TableName(frame)}
	}
	return pgx.Identifier{s.schema, TableName(frame)}
}

// Write replaces the table contents with f.
func (s *PostgresSink) Write(ctx context.Context, f *core.Frame) error {
	ident := s.identifier(f.Name)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("warehouse: begin %s: %w", f.Name, err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, postgresCreateSQL(ident, f.Columns)); err != nil {
		return fmt.Errorf("warehouse: create %s: %w", ident.Sanitize(), err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM "+ident.Sanitize()); err != nil {
		return fmt.Errorf("warehouse: clear %s: %w", ident.Sanitize(), err)
	}

	rows := make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		rows[i] = []any(r)
	}
	if _, err := tx.CopyFrom(ctx, ident, f.ColumnNames(), pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("warehouse: copy %s: %w", ident.Sanitize(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("warehouse: commit %s: %w", ident.Sanitize(), err)
	}
	return nil
}

func postgresCreateSQL(ident pgx.Identifier, cols []core.Column) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident.Sanitize(), postgresDialect.columnDefs(cols))
}
