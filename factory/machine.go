/*
Package factory provides JSON to Go machine conversion.

PURPOSE:
  Converts JSON machine definitions into vending.Config. Operators can
  restock a machine, change prices or swap the coin set without a rebuild:
  cmd/server loads the file given with -config, and api scenarios are
  defined the same way.

JSON SCHEMA:
  {
    "customer_funds": 10000,
    "till": [
      {"value": 100,  "count": 10},
      {"value": 500,  "count": 0},
      {"value": 1000, "count": 0}
    ],
    "items": [
      {"id": 1, "name": "Coca-Cola", "price": 700, "stock": 5}
    ]
  }

MONEY FIELDS:
  customer_funds, value and price are decoded as decimal.Decimal so that
  "700", 700 and 700.0 are accepted alike while 700.5 or 1e30 are rejected
  with a precise message instead of being silently truncated. The machine
  only deals in whole units of the smallest face value. ToJSON writes money
  as quoted decimal strings, the decimal package's default.

USAGE:
  f := factory.NewMachineFactory()
  cfg, err := f.ParseMachine(jsonString)
  m, err := vending.New(cfg)

SEE ALSO:
  - vending/types.go: Config type definition
  - vending/presets.go: The default machine in Go form
*/
package factory

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/vending-engine/ledger"
	"github.com/warp/vending-engine/vending"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// MachineJSON is the JSON representation of a machine.
type MachineJSON struct {
	CustomerFunds decimal.Decimal    `json:"customer_funds"`
	Till          []DenominationJSON `json:"till"`
	Items         []ItemJSON         `json:"items"`
}

// DenominationJSON is one face value and how many units of it the till holds.
type DenominationJSON struct {
	Value decimal.Decimal `json:"value"`
	Count int             `json:"count"`
}

// ItemJSON is one catalog entry.
type ItemJSON struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// =============================================================================
// MACHINE FACTORY
// =============================================================================

// MachineFactory converts JSON machines to vending.Config.
type MachineFactory struct{}

// NewMachineFactory creates a new machine factory.
func NewMachineFactory() *MachineFactory {
	return &MachineFactory{}
}

// ParseMachine parses a JSON string into a validated vending.Config.
func (f *MachineFactory) ParseMachine(jsonStr string) (vending.Config, error) {
	var mj MachineJSON
	if err := json.Unmarshal([]byte(jsonStr), &mj); err != nil {
		return vending.Config{}, fmt.Errorf("failed to parse machine JSON: %w", err)
	}

	return f.FromJSON(mj)
}

// FromJSON converts MachineJSON to vending.Config.
func (f *MachineFactory) FromJSON(mj MachineJSON) (vending.Config, error) {
	funds, err := wholeAmount("customer_funds", mj.CustomerFunds, true)
	if err != nil {
		return vending.Config{}, err
	}

	cfg := vending.Config{
		Till:          make(ledger.DenominationSet, len(mj.Till)),
		CustomerFunds: funds,
		Items:         make([]vending.ItemConfig, 0, len(mj.Items)),
	}

	for i, dj := range mj.Till {
		value, err := wholeAmount(fmt.Sprintf("till[%d].value", i), dj.Value, false)
		if err != nil {
			return vending.Config{}, err
		}
		face := ledger.Denomination(value)
		if cfg.Till.Has(face) {
			return vending.Config{}, fmt.Errorf("%w: till[%d]: duplicate face value %d", vending.ErrInvalidConfig, i, value)
		}
		cfg.Till[face] = dj.Count
	}

	for i, ij := range mj.Items {
		price, err := wholeAmount(fmt.Sprintf("items[%d].price", i), ij.Price, false)
		if err != nil {
			return vending.Config{}, err
		}
		cfg.Items = append(cfg.Items, vending.ItemConfig{
			ID:    vending.ItemID(ij.ID),
			Name:  ij.Name,
			Price: price,
			Stock: ij.Stock,
		})
	}

	if err := cfg.Validate(); err != nil {
		return vending.Config{}, err
	}
	return cfg, nil
}

// ToJSON converts a vending.Config to MachineJSON. Till faces are listed
// largest first.
func (f *MachineFactory) ToJSON(cfg vending.Config) MachineJSON {
	mj := MachineJSON{
		CustomerFunds: decimal.NewFromInt(cfg.CustomerFunds),
	}
	for _, face := range cfg.Till.Values() {
		mj.Till = append(mj.Till, DenominationJSON{
			Value: decimal.NewFromInt(int64(face)),
			Count: cfg.Till.Count(face),
		})
	}
	for _, ic := range cfg.Items {
		mj.Items = append(mj.Items, ItemJSON{
			ID:    int(ic.ID),
			Name:  ic.Name,
			Price: decimal.NewFromInt(ic.Price),
			Stock: ic.Stock,
		})
	}
	return mj
}

// DefaultMachineJSON returns the default machine as JSON.
func DefaultMachineJSON() string {
	raw, _ := json.MarshalIndent(NewMachineFactory().ToJSON(vending.DefaultConfig()), "", "  ")
	return string(raw)
}

// =============================================================================
// HELPERS
// =============================================================================

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// wholeAmount converts a JSON money field to a whole number of units.
func wholeAmount(field string, d decimal.Decimal, allowZero bool) (int64, error) {
	switch {
	case !d.IsInteger():
		return 0, fmt.Errorf("%w: %s: %s is not a whole amount", vending.ErrInvalidConfig, field, d)
	case d.IsNegative():
		return 0, fmt.Errorf("%w: %s: %s is negative", vending.ErrInvalidConfig, field, d)
	case d.IsZero() && !allowZero:
		return 0, fmt.Errorf("%w: %s: must be positive", vending.ErrInvalidConfig, field)
	case d.GreaterThan(maxAmount):
		return 0, fmt.Errorf("%w: %s: %s is too large", vending.ErrInvalidConfig, field, d)
	}
	return d.IntPart(), nil
}
