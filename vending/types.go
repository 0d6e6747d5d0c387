/*
Package vending implements the vending machine controller.

PURPOSE:
  The Machine owns the till, the customer's inserted balance, the customer's
  remaining wallet and the item catalog. It turns three customer actions
  (insert, purchase, refund) into state transitions and re-derives, after
  every one of them, which items can be bought right now.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item: a catalog entry with a derived Availability
  - Availability: why an item can or cannot be bought
  - Status: the closed set of outcome codes handed to the caller
  - State: till + inserted balance + customer funds
  - Balances: the three totals a display shows

MONEY FLOW:

	customer wallet --insert--> inserted balance (coins go into the till)
	inserted balance --purchase--> spent (stays in the till)
	inserted balance --refund--> customer wallet (coins leave the till)

  Inserted coins are already counted in the till, so till total + customer
  remaining is constant across every operation after construction. The
  inserted balance is a claim on part of the till, not extra money.

SEE ALSO:
  - machine.go: Operations
  - availability.go: Availability derivation
  - errors.go: Rejections and precondition errors
  - ledger package: Totals and change-making
*/
package vending

import (
	"fmt"

	"github.com/warp/vending-engine/ledger"
)

// =============================================================================
// AVAILABILITY - derived per item, never set directly
// =============================================================================

// Availability says whether an item can be bought with the current balance.
type Availability int

const (
	// InsufficientFunds: inserted balance is below the item's price.
	InsufficientFunds Availability = iota
	// NoChangeAvailable: affordable, but the till cannot return the difference.
	NoChangeAvailable
	// OutOfStock: no units left. Takes precedence over every other status.
	OutOfStock
	// Purchasable: can be bought right now.
	Purchasable
)

func (a Availability) String() string {
	switch a {
	case InsufficientFunds:
		return "insufficient_funds"
	case NoChangeAvailable:
		return "no_change_available"
	case OutOfStock:
		return "out_of_stock"
	case Purchasable:
		return "purchasable"
	default:
		return fmt.Sprintf("availability(%d)", int(a))
	}
}

// MarshalText encodes the availability as its snake_case name.
func (a Availability) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Status maps a non-purchasable availability onto the outcome status a
// rejected purchase reports.
func (a Availability) Status() Status {
	switch a {
	case InsufficientFunds:
		return StatusInsufficientFunds
	case NoChangeAvailable:
		return StatusNoChangeAvailable
	case OutOfStock:
		return StatusOutOfStock
	default:
		return StatusOK
	}
}

// =============================================================================
// STATUS - outcome codes for mutating operations
// =============================================================================

// Status is the result code of Insert, Purchase and Refund.
// It is a separate type from Availability: a customer's wallet running dry
// (StatusInsufficientCustomerFunds) has nothing to do with an item's price.
type Status int

const (
	StatusOK Status = iota
	StatusInsufficientCustomerFunds
	StatusInsufficientFunds
	StatusNoChangeAvailable
	StatusOutOfStock
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInsufficientCustomerFunds:
		return "insufficient_customer_funds"
	case StatusInsufficientFunds:
		return "insufficient_funds"
	case StatusNoChangeAvailable:
		return "no_change_available"
	case StatusOutOfStock:
		return "out_of_stock"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status as its snake_case name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for s := StatusOK; s <= StatusOutOfStock; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// =============================================================================
// ITEM
// =============================================================================

// ItemID identifies a catalog entry. Stable for the life of the machine.
type ItemID int

// Item is a catalog entry. Only Stock and Status change after construction.
type Item struct {
	ID     ItemID
	Name   string
	Price  int64
	Stock  int
	Status Availability
}

// =============================================================================
// STATE & BALANCES
// =============================================================================

// State is everything the machine knows about money.
type State struct {
	Till              ledger.DenominationSet
	Inserted          int64 // staged toward a purchase
	CustomerRemaining int64 // still in the customer's wallet
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		Till:              s.Till.Clone(),
		Inserted:          s.Inserted,
		CustomerRemaining: s.CustomerRemaining,
	}
}

// Equal reports whether two states hold the same till and balances.
func (s State) Equal(other State) bool {
	return s.Inserted == other.Inserted &&
		s.CustomerRemaining == other.CustomerRemaining &&
		s.Till.Equal(other.Till)
}

// Balances is the read-only money summary shown to the customer.
type Balances struct {
	TillTotal         int64
	Inserted          int64
	CustomerRemaining int64
}

// Total is the money in the system: till + customer wallet. It is constant
// across every operation. Inserted is not added: those coins already sit in
// the till.
func (b Balances) Total() int64 {
	return b.TillTotal + b.CustomerRemaining
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome is the part every mutating operation reports.
type Outcome struct {
	Status   Status
	Messages []string
	Balances Balances
}

// InsertOutcome is returned by Insert.
type InsertOutcome struct {
	Outcome
	Value ledger.Denomination
}

// PurchaseOutcome is returned by Purchase.
//
// Refunded is true when the purchase left too little to buy anything else and
// the leftover balance was returned automatically. Change may be zero even
// when Refunded is true.
type PurchaseOutcome struct {
	Outcome
	Item      Item
	Refunded  bool
	Change    int64
	Dispensed ledger.DenominationSet
}

// RefundOutcome is returned by Refund.
type RefundOutcome struct {
	Outcome
	Amount    int64
	Dispensed ledger.DenominationSet
}

// =============================================================================
// CONFIG
// =============================================================================

// ItemConfig describes one catalog entry at construction time.
type ItemConfig struct {
	ID    ItemID
	Name  string
	Price int64
	Stock int
}

// Config is everything needed to build a Machine.
// The till's face values are the machine's accepted denominations, including
// faces that start with a zero count.
type Config struct {
	Till          ledger.DenominationSet
	CustomerFunds int64
	Items         []ItemConfig
}
