/*
Package journal records what happened at the machine.

PURPOSE:
  An append-only audit trail of every insert, purchase and refund the HTTP
  driver performed, including rejected ones. It answers "where did my 500
  won go?" after the fact. The journal is never replayed: the machine's
  money state lives only in memory and starts fresh with every process.

APPEND-ONLY CONTRACT:
  - Append(): the only write
  - NO Update() or Delete() of individual entries
  - Reset() wipes the whole trail when a new scenario is loaded

IDEMPOTENCY:
  Entries may carry the client's Idempotency-Key. A key can be recorded only
  once; the driver checks Exists() before touching the machine so a retried
  request does not insert the same coin twice.

IMPLEMENTATIONS:
  - journal/memory.go: In-memory for tests and dev
  - store/sqlite/sqlite.go: SQLite-backed

SEE ALSO:
  - api/handlers.go: Writes entries after each operation
*/
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/warp/vending-engine/ledger"
	"github.com/warp/vending-engine/vending"
)

// =============================================================================
// ENTRY
// =============================================================================

// Kind is the operation an entry records.
type Kind string

const (
	KindInsert   Kind = "insert"
	KindPurchase Kind = "purchase"
	KindRefund   Kind = "refund"
)

// Entry is one recorded operation and the balances it left behind.
type Entry struct {
	ID             string
	Kind           Kind
	ItemID         vending.ItemID // purchases only
	Amount         int64          // inserted value, item price, or refunded amount
	Change         int64          // change paid out (purchase auto-refund or refund)
	Status         vending.Status
	Dispensed      ledger.DenominationSet
	Balances       vending.Balances
	IdempotencyKey string
	CreatedAt      time.Time
}

// NewEntry stamps a new entry with a fresh ID and the current time.
func NewEntry(kind Kind, status vending.Status, balances vending.Balances) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    status,
		Balances:  balances,
		CreatedAt: time.Now().UTC(),
	}
}

// =============================================================================
// STORE
// =============================================================================

// ErrDuplicateIdempotencyKey is returned when an entry with the same
// idempotency key was already recorded.
var ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

// Store persists journal entries. Append-only.
type Store interface {
	// Append records an entry. Fails if its idempotency key exists.
	Append(ctx context.Context, e Entry) error

	// List returns the most recent entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Exists checks if an idempotency key was already recorded.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)

	// Reset removes every entry.
	Reset(ctx context.Context) error
}
