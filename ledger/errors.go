/*
errors.go - Error types for the ledger package

ERROR CATEGORIES:
  1. Change errors - the till cannot pay out the requested amount
  2. Precondition errors - malformed input (negative amount, bad set)

USAGE:
  if errors.Is(err, ledger.ErrInsufficientChange) {
      // report "no change available" to the customer
  }

  var ice *ledger.InsufficientChangeError
  if errors.As(err, &ice) {
      log.Printf("short by %d", ice.Shortfall)
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientChange is returned when greedy change-making cannot reach
	// the requested amount with the units available.
	ErrInsufficientChange = errors.New("insufficient change")

	// ErrNegativeAmount is returned when change is requested for a negative amount.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrInvalidDenomination is returned for a face value that is not positive.
	ErrInvalidDenomination = errors.New("invalid denomination")

	// ErrNegativeCount is returned when a set holds a negative unit count.
	ErrNegativeCount = errors.New("negative denomination count")

	// ErrValueOverflow is returned when a set's total value does not fit in an int64.
	ErrValueOverflow = errors.New("denomination total overflows int64")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InsufficientChangeError carries the details of a failed payout.
type InsufficientChangeError struct {
	Requested int64
	Available int64 // total value held by the till
	Shortfall int64 // what greedy could not cover
}

func (e *InsufficientChangeError) Error() string {
	return fmt.Sprintf("insufficient change: requested %d, till holds %d, short by %d",
		e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientChangeError) Unwrap() error {
	return ErrInsufficientChange
}
