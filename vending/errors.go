/*
errors.go - Error types for the vending machine

ERROR CATEGORIES:
  1. Rejections - the customer asked for something the machine cannot do
     right now (wallet empty, price not covered, no change, sold out).
     Recoverable. The outcome still carries the status and messages.
  2. Preconditions - the caller referenced something that does not exist
     (unknown item, denomination the machine does not accept). These are
     integration bugs, not customer-facing statuses.
  3. Configuration - the machine cannot be built from the given Config.

Every rejection and precondition failure leaves the machine untouched.

USAGE:
  out, err := m.Purchase(3)
  switch {
  case vending.IsRejection(err):
      render(out.Messages)
  case err != nil:
      return err // caller bug
  }
*/
package vending

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientCustomerFunds: the customer's wallet cannot cover the insert.
	ErrInsufficientCustomerFunds = errors.New("insufficient customer funds")

	// ErrInsufficientFunds: the inserted balance is below the item's price.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoChangeAvailable: the till cannot return the difference.
	ErrNoChangeAvailable = errors.New("no change available")

	// ErrOutOfStock: the item has no units left.
	ErrOutOfStock = errors.New("out of stock")

	// ErrUnknownItem: the item ID is not in the catalog.
	ErrUnknownItem = errors.New("unknown item")

	// ErrUnknownDenomination: the machine does not accept this face value.
	ErrUnknownDenomination = errors.New("unknown denomination")

	// ErrInvalidDenomination: the face value is not positive.
	ErrInvalidDenomination = errors.New("invalid denomination")

	// ErrInvalidConfig: the machine cannot be built from the given Config.
	ErrInvalidConfig = errors.New("invalid machine config")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RejectionError is returned when an operation is refused for a
// customer-facing reason. It unwraps to the sentinel matching Status.
type RejectionError struct {
	Status Status
	ItemID ItemID // zero for inserts
	Reason string
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	switch e.Status {
	case StatusInsufficientCustomerFunds:
		return ErrInsufficientCustomerFunds
	case StatusInsufficientFunds:
		return ErrInsufficientFunds
	case StatusNoChangeAvailable:
		return ErrNoChangeAvailable
	case StatusOutOfStock:
		return ErrOutOfStock
	default:
		return nil
	}
}

// PreconditionError reports a caller bug: the operation was aborted before
// touching any state.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("vending: %s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRejection returns true if err is a recoverable, customer-facing refusal.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// IsPrecondition returns true if err reports a caller bug.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// StatusOf returns the outcome status carried by err, or StatusOK.
func StatusOf(err error) Status {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Status
	}
	return StatusOK
}
