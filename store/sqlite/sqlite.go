/*
Package sqlite provides a SQLite-backed journal.Store.

PURPOSE:
  Persists the machine's audit trail so operators can inspect what happened
  after a restart. The machine itself is never rebuilt from these rows.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on journal_entries
  - DELETE only through Reset(), which wipes the whole table

KEY TABLES:
  journal_entries: one row per insert/purchase/refund, rejected ones included

INDEXES:
  - idempotency_key UNIQUE: a retried request cannot be recorded twice
  - seq: insertion order, used for newest-first listing

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql's own pool.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/vending.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - journal/journal.go: Store interface and Entry
  - journal/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/vending-engine/journal"
	"github.com/warp/vending-engine/ledger"
	"github.com/warp/vending-engine/vending"
)

// Store implements journal.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ journal.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Journal (append-only audit trail)
	CREATE TABLE IF NOT EXISTS journal_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		item_id INTEGER,
		amount INTEGER NOT NULL,
		change_amount INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		dispensed_json TEXT,
		till_total INTEGER NOT NULL,
		inserted INTEGER NOT NULL,
		customer_remaining INTEGER NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_kind
		ON journal_entries(kind);
	CREATE INDEX IF NOT EXISTS idx_journal_idempotency
		ON journal_entries(idempotency_key) WHERE idempotency_key IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNAL STORE
// =============================================================================

// Append adds a single entry. Append-only.
func (s *Store) Append(ctx context.Context, e journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dispensedJSON sql.NullString
	if len(e.Dispensed) > 0 {
		raw, err := json.Marshal(e.Dispensed)
		if err != nil {
			return fmt.Errorf("failed to encode dispensed units: %w", err)
		}
		dispensedJSON = sql.NullString{String: string(raw), Valid: true}
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO journal_entries
		(id, kind, item_id, amount, change_amount, status, dispensed_json,
		 till_total, inserted, customer_remaining, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		string(e.Kind),
		nullItemID(e.ItemID),
		e.Amount,
		e.Change,
		e.Status.String(),
		dispensedJSON,
		e.Balances.TillTotal,
		e.Balances.Inserted,
		e.Balances.CustomerRemaining,
		nullString(e.IdempotencyKey),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) && strings.Contains(err.Error(), "idempotency_key") {
			return journal.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append journal entry: %w", err)
	}

	return nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, kind, item_id, amount, change_amount, status, dispensed_json,
		       till_total, inserted, customer_remaining, idempotency_key, created_at
		FROM journal_entries
		ORDER BY seq DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM journal_entries WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

// Reset clears the journal (scenario load).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM journal_entries"); err != nil {
		return fmt.Errorf("failed to reset journal: %w", err)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (journal.Entry, error) {
	var (
		e              journal.Entry
		kind           string
		itemID         sql.NullInt64
		status         string
		dispensedJSON  sql.NullString
		idempotencyKey sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&e.ID, &kind, &itemID, &e.Amount, &e.Change, &status, &dispensedJSON,
		&e.Balances.TillTotal, &e.Balances.Inserted, &e.Balances.CustomerRemaining,
		&idempotencyKey, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	e.Kind = journal.Kind(kind)
	e.ItemID = vending.ItemID(itemID.Int64)
	e.IdempotencyKey = idempotencyKey.String
	if e.Status, err = vending.ParseStatus(status); err != nil {
		return e, fmt.Errorf("journal entry %s: %w", e.ID, err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	if dispensedJSON.Valid && dispensedJSON.String != "" {
		var dispensed ledger.DenominationSet
		if err := json.Unmarshal([]byte(dispensedJSON.String), &dispensed); err != nil {
			return e, fmt.Errorf("journal entry %s: dispensed units: %w", e.ID, err)
		}
		e.Dispensed = dispensed
	}

	return e, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullItemID(id vending.ItemID) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
