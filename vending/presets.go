package vending

import "github.com/warp/vending-engine/ledger"

// DefaultCustomerFunds is the wallet a customer walks up with.
const DefaultCustomerFunds = 10000

// DefaultTill is the starting till: 1,000 won in 100 coins. 500 coins and
// 1000 bills are accepted but start empty.
func DefaultTill() ledger.DenominationSet {
	return ledger.DenominationSet{100: 10, 500: 0, 1000: 0}
}

// DefaultCatalog is the standard drink lineup, five of each.
func DefaultCatalog() []ItemConfig {
	return []ItemConfig{
		{ID: 1, Name: "Coca-Cola", Price: 700, Stock: 5},
		{ID: 2, Name: "Orange Juice", Price: 1200, Stock: 5},
		{ID: 3, Name: "Coffee", Price: 500, Stock: 5},
		{ID: 4, Name: "Water", Price: 700, Stock: 5},
		{ID: 5, Name: "Corn Silk Tea", Price: 1200, Stock: 5},
		{ID: 6, Name: "Milkis", Price: 700, Stock: 5},
		{ID: 7, Name: "Trevi", Price: 1000, Stock: 5},
	}
}

// DefaultConfig is the machine as it ships.
func DefaultConfig() Config {
	return Config{
		Till:          DefaultTill(),
		CustomerFunds: DefaultCustomerFunds,
		Items:         DefaultCatalog(),
	}
}
