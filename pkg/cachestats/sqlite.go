package cachestats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence. It is
// suitable for single-instance deployments where cache metrics should
// survive restarts.
type SQLiteStore struct {
	db         *sql.DB
	recordStmt *sql.Stmt
	closeOnce  sync.Once
}

// SQLiteStoreConfig configures the SQLite event store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite event store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite event store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, &StoreError{Op: "open", Cause: fmt.Errorf("db path cannot be empty")}
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StoreError{Op: "open", Cause: err}
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	s.recordStmt, err = db.Prepare(`
		INSERT INTO cache_events (id, user_id, conversation_id, provider, hit, saved_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, &StoreError{Op: "prepare", Cause: err}
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_events (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		conversation_id TEXT NOT NULL DEFAULT '',
		provider        TEXT NOT NULL DEFAULT '',
		hit             INTEGER NOT NULL,
		saved_cost      REAL NOT NULL DEFAULT 0,
		created_at      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_events_user ON cache_events(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_cache_events_conversation ON cache_events(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_cache_events_created ON cache_events(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return &StoreError{Op: "init_schema", Cause: err}
	}
	return nil
}

// Record persists one event.
func (s *SQLiteStore) Record(ctx context.Context, event *Event) error {
	hit := 0
	if event.Hit {
		hit = 1
	}

	_, err := s.recordStmt.ExecContext(ctx,
		event.ID,
		event.UserID,
		event.ConversationID,
		event.Provider,
		hit,
		event.SavedCost,
		event.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return &StoreError{Op: "record", Cause: err}
	}
	return nil
}

// List returns events matching the filter in chronological order.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]*Event, error) {
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
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().UnixNano())
	}
	if !filter.Until.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, filter.Until.UTC().UnixNano())
	}

	query := `SELECT id, user_id, conversation_id, provider, hit, saved_cost, created_at FROM cache_events`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "list", Cause: err}
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var hit int
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.ConversationID, &e.Provider, &hit, &e.SavedCost, &createdAt); err != nil {
			return nil, &StoreError{Op: "scan", Cause: err}
		}
		e.Hit = hit != 0
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Cause: err}
	}

	return events, nil
}

// Close closes the prepared statements and the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.recordStmt != nil {
			s.recordStmt.Close()
		}
		err = s.db.Close()
	})
	return err
}
