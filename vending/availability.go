/*
availability.go - Item availability derivation

PRIORITY ORDER (first match wins):
  1. OutOfStock         stock == 0
  2. InsufficientFunds  inserted < price
  3. NoChangeAvailable  till cannot pay out (inserted - price)
  4. Purchasable

Availability is recomputed for the whole catalog after every state change.
The catalog is small and a full pass is O(items x denominations), so there
is no incremental bookkeeping to get wrong.
*/
package vending

import "github.com/warp/vending-engine/ledger"

// Derive computes an item's availability against a machine state.
func Derive(item Item, st State) Availability {
	switch {
	case item.Stock == 0:
		return OutOfStock
	case st.Inserted < item.Price:
		return InsufficientFunds
	case !ledger.CanMakeChange(st.Till, st.Inserted-item.Price):
		return NoChangeAvailable
	default:
		return Purchasable
	}
}

// deriveAll returns the catalog with every Status recomputed from st.
func deriveAll(items []Item, st State) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		item.Status = Derive(item, st)
		out[i] = item
	}
	return out
}
