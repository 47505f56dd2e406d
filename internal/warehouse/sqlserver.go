package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core"
)

// maxParams stays below the 2100 parameter limit of a SQL Server statement.
const maxParams = 2000

var sqlServerDialect = dialect{
	types: map[core.FieldType]string{
		core.FieldText:      "NVARCHAR(MAX)",
		core.FieldDate:      "DATE",
		core.FieldTimestamp: "DATETIME2",
		core.FieldBool:      "BIT",
		core.FieldInteger:   "BIGINT",
	},
	quote: quoteName,
}

// SQLServerSink loads frames with batched multi-row INSERTs.
type SQLServerSink struct {
	db        *sql.DB
	schema    string
	batchSize int
}

// OpenSQLServer opens a database/sql pool for cfg.URL and verifies it.
func OpenSQLServer(ctx context.Context, cfg config.WarehouseConfig) (*SQLServerSink, error) {
	db, err := sql.Open("sqlserver", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("warehouse: open sqlserver: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("warehouse: ping sqlserver: %w", err)
	}
	return NewSQLServerSink(db, cfg.Schema, cfg.BatchSize), nil
}

// NewSQLServerSink wraps an existing pool. An empty schema means dbo.
func NewSQLServerSink(db *sql.DB, schema string, batchSize int) *SQLServerSink {
	if schema == "" {
		schema = "dbo"
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &SQLServerSink{db: db, schema: schema, batchSize: batchSize}
}

func (s *SQLServerSink) Driver() string { return config.DriverSQLServer }

func (s *SQLServerSink) Close() error { return s.db.Close() }

// Write replaces the table contents with f.
func (s *SQLServerSink) Write(ctx context.Context, f *core.Frame) error {
	table := TableName(f.Name)
	full := quoteName(s.schema) + "." + quoteName(table)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("warehouse: begin %s: %w", full, err)
	}
	defer tx.Rollback() // No-op if already committed

	if _, err := tx.ExecContext(ctx, sqlServerCreateSQL(s.schema, table, f.Columns)); err != nil {
		return fmt.Errorf("warehouse: create %s: %w", full, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+full); err != nil {
		return fmt.Errorf("warehouse: clear %s: %w", full, err)
	}

	for _, batch := range batches(len(f.Rows), rowsPerInsert(s.batchSize, len(f.Columns))) {
		query, args, err := insertSQL(full, f.Columns, f.Rows[batch[0]:batch[1]])
		if err != nil {
			return fmt.Errorf("warehouse: build insert %s: %w", full, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("warehouse: insert %s rows %d-%d: %w", full, batch[0]+1, batch[1], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("warehouse: commit %s: %w", full, err)
	}
	return nil
}

// quoteName brackets an identifier, escaping ] as ]].
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

func escapeStringLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func sqlServerCreateSQL(schema, table string, cols []core.Column) string {
	full := quoteName(schema) + "." + quoteName(table)
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		escapeStringLiteral(full), full, sqlServerDialect.columnDefs(cols))
}

// insertSQL builds one multi-row INSERT with @pN placeholders.
func insertSQL(full string, cols []core.Column, rows []core.Row) (string, []any, error) {
	ib := squirrel.Insert(full).Columns(sqlServerDialect.quotedNames(cols)...).PlaceholderFormat(squirrel.AtP)
	for _, r := range rows {
		values := make([]any, len(r))
		for i, c := range r {
			values[i] = sqlValue(c)
		}
		ib = ib.Values(values...)
	}
	return ib.ToSql()
}

// rowsPerInsert caps a batch by the parameter limit and the 1000 row limit
// of a VALUES list.
func rowsPerInsert(batchSize, cols int) int {
	n := min(batchSize, 1000)
	if cols > 0 {
		n = min(n, maxParams/cols)
	}
	return max(n, 1)
}

// batches splits [0, total) into [start, end) ranges of at most size.
func batches(total, size int) [][2]int {
	var out [][2]int
	for start := 0; start < total; start += size {
		out = append(out, [2]int{start, min(start+size, total)})
	}
	return out
}

// sqlValue converts a canonical cell into a driver argument. Nulls become nil.
func sqlValue(c any) any {
	switch v := c.(type) {
	case pgtype.Text:
		if v.Valid {
			return v.String
		}
	case pgtype.Date:
		if v.Valid {
			return v.Time
		}
	case pgtype.Timestamp:
		if v.Valid {
			return v.Time
		}
	case pgtype.Bool:
		if v.Valid {
			return v.Bool
		}
	case pgtype.Int8:
		if v.Valid {
			return v.Int64
		}
	}
	return nil
}
