package record

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/aschepis/backscratcher/chatapi/migrations"
	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLedger stores usage records in a SQLite database.
type SQLiteLedger struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLiteLedger opens (or creates) the database at path and migrates it.
func OpenSQLiteLedger(path string, logger zerolog.Logger) (*SQLiteLedger, error) {
	logger = logger.With().Str("component", "sqlite_ledger").Str("path", path).Logger()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := migrations.RunMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteLedger{db: db, logger: logger}, nil
}

// Append inserts one usage record.
func (l *SQLiteLedger) Append(ctx context.Context, rec UsageRecord) error {
	query := sq.Insert("usage").
		Columns("id", "created_at", "model", "api_name", "provider", "input_tokens", "output_tokens", "cost").
		Values(rec.ID, rec.Time.Unix(), rec.Model, rec.APIName, rec.Provider, rec.InputTokens, rec.OutputTokens, int64(rec.Cost)) //nolint:gosec // nano-dollar totals stay far below 2^63

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = l.db.ExecContext(ctx, queryStr, args...)
	return err
}

// Summarize aggregates usage per model.
func (l *SQLiteLedger) Summarize(ctx context.Context) ([]UsageSummary, error) {
	query := sq.Select("model", "COUNT(*)", "SUM(input_tokens)", "SUM(output_tokens)", "SUM(cost)").
		From("usage").
		GroupBy("model").
		OrderBy("model")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var result []UsageSummary
	for rows.Next() {
		var s UsageSummary
		var cost int64
		if err := rows.Scan(&s.Model, &s.Calls, &s.InputTokens, &s.OutputTokens, &cost); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		s.Cost = uint64(cost) //nolint:gosec // stored from a uint64
		result = append(result, s)
	}
	return result, rows.Err()
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
