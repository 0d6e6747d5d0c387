/*
change.go - Balance totals and greedy change-making

ALGORITHM (MakeChange):
  Sort face values descending. For each face, while the remaining amount is
  at least the face value and the till copy still holds a unit, move one unit
  from the till copy to the dispensed copy. Move on to the next face when the
  current one is exhausted or too large. Success only when the amount reaches
  exactly zero.

  Greedy is exact for canonical coin systems (100/500/1000 and friends). For
  adversarial sets such as {1, 3, 4} it can miss a valid decomposition
  (6 = 3+3 but greedy takes 4 first). That is an accepted tradeoff: the
  machine reports "no change" rather than paying out something ambiguous.

EXAMPLE:
  till:   {1000:1, 500:1, 100:4}
  amount: 1700

  1000 -> 700 left   till {1000:0, 500:1, 100:4}
   500 -> 200 left   till {1000:0, 500:0, 100:4}
   100 -> 100 left
   100 ->   0 left   dispensed {1000:1, 500:1, 100:2}
*/
package ledger

// Total returns the value held by the set: sum of face x count.
func Total(denoms DenominationSet) int64 {
	var total int64
	for v, n := range denoms {
		total += int64(v) * int64(n)
	}
	return total
}

// MakeChange computes a greedy payout of amount from denoms.
//
// On success the returned Change holds the dispensed units and the till that
// remains after paying them out. On failure nothing is returned and the caller
// must not apply any partial result. denoms is never modified.
func MakeChange(denoms DenominationSet, amount int64) (Change, error) {
	if amount < 0 {
		return Change{}, ErrNegativeAmount
	}

	remaining := denoms.Clone()
	dispensed := DenominationSet{}
	if amount == 0 {
		return Change{Dispensed: dispensed, Remaining: remaining}, nil
	}

	left := amount
	for _, face := range remaining.Values() {
		for left >= int64(face) && remaining[face] > 0 {
			remaining[face]--
			dispensed[face]++
			left -= int64(face)
		}
		if left == 0 {
			break
		}
	}

	if left != 0 {
		return Change{}, &InsufficientChangeError{
			Requested: amount,
			Available: Total(denoms),
			Shortfall: left,
		}
	}
	return Change{Dispensed: dispensed, Remaining: remaining}, nil
}

// CanMakeChange reports whether MakeChange would succeed for amount.
func CanMakeChange(denoms DenominationSet, amount int64) bool {
	_, err := MakeChange(denoms, amount)
	return err == nil
}
