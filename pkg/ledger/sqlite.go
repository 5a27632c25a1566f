package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig contains configuration for the SQLite cost ledger.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default ledger configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/costs.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the cost ledger database.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "ledger.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "open", Cause: err}
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("cost ledger initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return &StorageError{Backend: "sqlite", Op: "enable_wal", Cause: err}
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return &StorageError{Backend: "sqlite", Op: "set_busy_timeout", Cause: err}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return &StorageError{Backend: "sqlite", Op: "create_schema", Cause: err}
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return &StorageError{Backend: "sqlite", Op: "insert_schema_version", Cause: err}
	}

	return nil
}

// Append persists one cost record.
func (s *SQLiteStore) Append(ctx context.Context, record *CostRecord) error {
	const query = `
		INSERT INTO cost_records (
			id, user_id, conversation_id, persona_id, provider, model,
			input_tokens, output_tokens, cached_tokens, total_cost,
			partial, estimated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.ConversationID,
		record.PersonaID,
		record.Provider,
		record.Model,
		record.InputTokens,
		record.OutputTokens,
		record.CachedTokens,
		record.TotalCost,
		boolToInt(record.Partial),
		boolToInt(record.Estimated),
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return &StorageError{Backend: "sqlite", Op: "append", Cause: err}
	}

	return nil
}

// List returns records matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]*CostRecord, error) {
	where, args := buildWhere(filter)

	query := `
		SELECT id, user_id, conversation_id, persona_id, provider, model,
		       input_tokens, output_tokens, cached_tokens, total_cost,
		       partial, estimated, created_at
		FROM cost_records` + where + ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "list", Cause: err}
	}
	defer rows.Close()

	var records []*CostRecord
	for rows.Next() {
		var r CostRecord
		var partial, estimated int
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.ConversationID, &r.PersonaID, &r.Provider, &r.Model,
			&r.InputTokens, &r.OutputTokens, &r.CachedTokens, &r.TotalCost,
			&partial, &estimated, &r.CreatedAt,
		); err != nil {
			return nil, &StorageError{Backend: "sqlite", Op: "scan", Cause: err}
		}
		r.Partial = partial != 0
		r.Estimated = estimated != 0
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "list", Cause: err}
	}

	return records, nil
}

// Totals aggregates records matching the filter.
func (s *SQLiteStore) Totals(ctx context.Context, filter Filter) (*Totals, error) {
	where, args := buildWhere(filter)

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(input_tokens), 0),
		       COALESCE(SUM(output_tokens), 0),
		       COALESCE(SUM(cached_tokens), 0),
		       COALESCE(SUM(total_cost), 0),
		       COUNT(DISTINCT CASE WHEN conversation_id != '' THEN conversation_id END)
		FROM cost_records` + where

	totals := &Totals{}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&totals.Records,
		&totals.InputTokens,
		&totals.OutputTokens,
		&totals.CachedTokens,
		&totals.TotalCost,
		&totals.Conversations,
	)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "totals", Cause: err}
	}

	return totals, nil
}

// PurgeOlderThan deletes records created before the cutoff.
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM cost_records WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, &StorageError{Backend: "sqlite", Op: "purge", Cause: err}
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Backend: "sqlite", Op: "purge", Cause: err}
	}

	return removed, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func buildWhere(filter Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ConversationID != "" {
		clauses = append(clauses, "conversation_id = ?")
		args = append(args, filter.ConversationID)
	}
	if filter.Provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, filter.Provider)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, filter.Until.UTC())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
