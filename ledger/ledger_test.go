package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/warp/vending-engine/ledger"
)

// =============================================================================
// TOTAL
// =============================================================================

func TestTotal(t *testing.T) {
	tests := []struct {
		name   string
		denoms ledger.DenominationSet
		want   int64
	}{
		{"nil set", nil, 0},
		{"empty set", ledger.DenominationSet{}, 0},
		{"default till", ledger.DenominationSet{100: 10, 500: 0, 1000: 0}, 1000},
		{"mixed", ledger.DenominationSet{100: 3, 500: 2, 1000: 1}, 2300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.Total(tt.denoms))
		})
	}
}

// =============================================================================
// MAKE CHANGE
// =============================================================================

func TestMakeChange_ZeroAmount_EmptyPacket(t *testing.T) {
	till := ledger.DenominationSet{100: 1}

	change, err := ledger.MakeChange(till, 0)

	require.NoError(t, err)
	assert.Empty(t, change.Dispensed)
	assert.True(t, change.Remaining.Equal(till))
}

func TestMakeChange_LargestFirst(t *testing.T) {
	// GIVEN: a till with every denomination available
	till := ledger.DenominationSet{1000: 1, 500: 1, 100: 4}

	// WHEN: paying out 1700
	change, err := ledger.MakeChange(till, 1700)

	// THEN: one 1000, one 500, two 100
	require.NoError(t, err)
	assert.Equal(t, ledger.DenominationSet{1000: 1, 500: 1, 100: 2}, change.Dispensed)
	assert.Equal(t, ledger.DenominationSet{1000: 0, 500: 0, 100: 2}, change.Remaining)
	assert.Equal(t, int64(1700), change.Amount())
}

func TestMakeChange_SkipsExhaustedDenomination(t *testing.T) {
	// 500 is missing, so 800 must come out as 100s
	till := ledger.DenominationSet{1000: 0, 500: 0, 100: 10}

	change, err := ledger.MakeChange(till, 800)

	require.NoError(t, err)
	assert.Equal(t, 8, change.Dispensed.Count(100))
	assert.Equal(t, 2, change.Remaining.Count(100))
}

func TestMakeChange_SingleCoinTill(t *testing.T) {
	// GIVEN: till {100:1}, inserted 200, item priced 100
	till := ledger.DenominationSet{100: 1}

	// WHEN: change for 100 is requested
	change, err := ledger.MakeChange(till, 100)

	// THEN: exactly one 100 comes out
	require.NoError(t, err)
	assert.Equal(t, ledger.DenominationSet{100: 1}, change.Dispensed)
	assert.Equal(t, 0, change.Remaining.Count(100))

	// AND: 150 cannot be made from the same till
	_, err = ledger.MakeChange(till, 150)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrInsufficientChange))

	var ice *ledger.InsufficientChangeError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, int64(150), ice.Requested)
	assert.Equal(t, int64(50), ice.Shortfall)
}

func TestMakeChange_AmountAboveTillTotal(t *testing.T) {
	till := ledger.DenominationSet{100: 10}

	_, err := ledger.MakeChange(till, 1100)

	assert.ErrorIs(t, err, ledger.ErrInsufficientChange)
}

func TestMakeChange_NonCanonicalSet_GreedyMisses(t *testing.T) {
	// 6 = 3+3 exists, but greedy takes the 4 first and is left with 2.
	// This is the documented approximation, not a bug.
	till := ledger.DenominationSet{4: 1, 3: 2, 1: 0}

	_, err := ledger.MakeChange(till, 6)

	assert.ErrorIs(t, err, ledger.ErrInsufficientChange)
}

func TestMakeChange_NegativeAmount(t *testing.T) {
	_, err := ledger.MakeChange(ledger.DenominationSet{100: 1}, -100)

	assert.ErrorIs(t, err, ledger.ErrNegativeAmount)
}

func TestMakeChange_DoesNotMutateInput(t *testing.T) {
	till := ledger.DenominationSet{500: 1, 100: 2}
	before := till.Clone()

	_, err := ledger.MakeChange(till, 600)
	require.NoError(t, err)
	_, err = ledger.MakeChange(till, 900)
	require.Error(t, err)

	assert.Equal(t, before, till)
}

// =============================================================================
// DENOMINATION SET
// =============================================================================

func TestDenominationSet_ValuesDescending(t *testing.T) {
	d := ledger.DenominationSet{100: 1, 1000: 0, 500: 3}

	assert.Equal(t, []ledger.Denomination{1000, 500, 100}, d.Values())
}

func TestDenominationSet_Validate(t *testing.T) {
	assert.NoError(t, ledger.DenominationSet{100: 0, 500: 2}.Validate())
	assert.ErrorIs(t, ledger.DenominationSet{0: 1}.Validate(), ledger.ErrInvalidDenomination)
	assert.ErrorIs(t, ledger.DenominationSet{-100: 1}.Validate(), ledger.ErrInvalidDenomination)
	assert.ErrorIs(t, ledger.DenominationSet{100: -1}.Validate(), ledger.ErrNegativeCount)
}

func TestDenominationSet_ValidateRejectsOverflow(t *testing.T) {
	// GIVEN: sets whose value cannot be summed in an int64
	// THEN: Validate refuses them before Total can wrap around
	assert.ErrorIs(t, ledger.DenominationSet{math.MaxInt64: 2}.Validate(), ledger.ErrValueOverflow)
	assert.ErrorIs(t, ledger.DenominationSet{math.MaxInt64 / 2: 1, math.MaxInt64/2 + 2: 1}.Validate(), ledger.ErrValueOverflow)

	assert.NoError(t, ledger.DenominationSet{math.MaxInt64: 1}.Validate())
	assert.NoError(t, ledger.DenominationSet{math.MaxInt64: 0, 100: 5}.Validate())
}

func TestDenominationSet_EqualIgnoresZeroCounts(t *testing.T) {
	a := ledger.DenominationSet{100: 2, 500: 0}
	b := ledger.DenominationSet{100: 2}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(ledger.DenominationSet{100: 3}))
}

func TestDenominationSet_With(t *testing.T) {
	d := ledger.DenominationSet{500: 1}

	next := d.With(500, 2)

	assert.Equal(t, 3, next.Count(500))
	assert.Equal(t, 1, d.Count(500), "With must not modify the receiver")
	assert.Equal(t, "{500:3}", next.String())
}

// =============================================================================
// PROPERTIES
// =============================================================================

var faces = []ledger.Denomination{10, 50, 100, 500, 1000, 5000}

func genTill(t *rapid.T) ledger.DenominationSet {
	till := ledger.DenominationSet{}
	for _, face := range faces {
		if rapid.Bool().Draw(t, "use-face") {
			till[face] = rapid.IntRange(0, 20).Draw(t, "count")
		}
	}
	return till
}

func TestMakeChange_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		till := genTill(t)
		before := till.Clone()
		amount := rapid.Int64Range(0, ledger.Total(till)+1000).Draw(t, "amount")

		change, err := ledger.MakeChange(till, amount)

		if !till.Equal(before) {
			t.Fatalf("input till mutated: %v -> %v", before, till)
		}
		if err != nil {
			if !errors.Is(err, ledger.ErrInsufficientChange) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}

		if got := ledger.Total(change.Dispensed); got != amount {
			t.Fatalf("dispensed %d, want %d", got, amount)
		}
		for face, n := range change.Dispensed {
			if n > till[face] {
				t.Fatalf("dispensed %d x %d but till held %d", n, face, till[face])
			}
			if change.Remaining[face] != till[face]-n {
				t.Fatalf("remaining %d x %d, want %d", change.Remaining[face], face, till[face]-n)
			}
		}
		if ledger.Total(change.Remaining)+amount != ledger.Total(till) {
			t.Fatalf("value not conserved: remaining %d + %d != %d",
				ledger.Total(change.Remaining), amount, ledger.Total(till))
		}
	})
}

func TestMakeChange_ZeroAlwaysSucceeds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		till := genTill(t)

		change, err := ledger.MakeChange(till, 0)

		if err != nil {
			t.Fatalf("zero amount failed: %v", err)
		}
		if len(change.Dispensed) != 0 {
			t.Fatalf("zero amount dispensed %v", change.Dispensed)
		}
	})
}
