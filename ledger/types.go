/*
Package ledger provides the denomination accounting primitives.

PURPOSE:
  Pure functions over denomination-count mappings. The vending machine keeps
  its till as a DenominationSet and asks this package two questions:
  "how much money is in here?" and "can you pay out X, and with what?".

KEY CONCEPTS IN THIS FILE (types.go):
  - Denomination: a face value accepted or dispensed by the machine
  - DenominationSet: face value -> count, used for tills and change packets
  - Change: the result of a successful change computation

DESIGN PRINCIPLES:
  1. Values in, values out: no function keeps a reference past the call
  2. Inputs are never mutated; callers apply the returned copies
  3. Integer money only: amounts are whole units of the smallest currency

USAGE:
  till := ledger.DenominationSet{100: 10, 500: 0, 1000: 0}
  total := ledger.Total(till) // 1000

  change, err := ledger.MakeChange(till, 300)
  if errors.Is(err, ledger.ErrInsufficientChange) {
      // nothing to apply
  }
  till = change.Remaining

SEE ALSO:
  - change.go: Greedy change-making
  - errors.go: Sentinel and structured errors
*/
package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// =============================================================================
// DENOMINATION
// =============================================================================

// Denomination is a face value in the smallest currency unit.
type Denomination int64

// =============================================================================
// DENOMINATION SET - face value -> count
// =============================================================================

// DenominationSet maps a face value to the number of units held.
// Counts are never negative. A nil set behaves as an empty set for reads.
type DenominationSet map[Denomination]int

// Values returns the face values present in the set, largest first.
// Faces with a zero count are included: they are still accepted denominations.
func (d DenominationSet) Values() []Denomination {
	values := make([]Denomination, 0, len(d))
	for v := range d {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] > values[j] })
	return values
}

// Count returns the number of units of face value v.
func (d DenominationSet) Count(v Denomination) int {
	return d[v]
}

// Has reports whether v is one of the set's face values.
func (d DenominationSet) Has(v Denomination) bool {
	_, ok := d[v]
	return ok
}

// Clone returns an independent copy of the set.
func (d DenominationSet) Clone() DenominationSet {
	out := make(DenominationSet, len(d))
	for v, n := range d {
		out[v] = n
	}
	return out
}

// With returns a copy of the set holding n more units of v.
func (d DenominationSet) With(v Denomination, n int) DenominationSet {
	out := d.Clone()
	out[v] += n
	return out
}

// Units returns the total number of coins and bills in the set.
func (d DenominationSet) Units() int {
	units := 0
	for _, n := range d {
		units += n
	}
	return units
}

// Equal reports whether both sets hold the same non-zero counts.
func (d DenominationSet) Equal(other DenominationSet) bool {
	for v, n := range d {
		if other[v] != n {
			return false
		}
	}
	for v, n := range other {
		if d[v] != n {
			return false
		}
	}
	return true
}

// Validate checks the set's invariants: positive faces, non-negative counts,
// and a total value that Total can compute without overflowing.
func (d DenominationSet) Validate() error {
	var total int64
	for v, n := range d {
		if v <= 0 {
			return fmt.Errorf("%w: face value %d", ErrInvalidDenomination, v)
		}
		if n < 0 {
			return fmt.Errorf("%w: %d units of %d", ErrNegativeCount, n, v)
		}
		if n == 0 {
			continue
		}
		if int64(v) > math.MaxInt64/int64(n) {
			return fmt.Errorf("%w: %d units of %d", ErrValueOverflow, n, v)
		}
		value := int64(v) * int64(n)
		if total > math.MaxInt64-value {
			return fmt.Errorf("%w: adding %d units of %d", ErrValueOverflow, n, v)
		}
		total += value
	}
	return nil
}

// String renders the set largest face first, e.g. "{1000:0 500:2 100:3}".
func (d DenominationSet) String() string {
	parts := make([]string, 0, len(d))
	for _, v := range d.Values() {
		parts = append(parts, fmt.Sprintf("%d:%d", v, d[v]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// =============================================================================
// CHANGE - result of a successful MakeChange
// =============================================================================

// Change is a computed payout: what leaves the till, and what stays.
type Change struct {
	Dispensed DenominationSet
	Remaining DenominationSet
}

// Amount returns the value of the dispensed packet.
func (c Change) Amount() int64 {
	return Total(c.Dispensed)
}
