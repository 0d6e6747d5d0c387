/*
machine.go - The vending machine controller

OPERATIONS:
  Insert(value)     customer feeds one coin or bill into the machine
  Purchase(itemID)  customer presses an item button
  Refund()          customer presses the return button
  Balances()        till total, inserted balance, customer wallet
  Items()           catalog snapshot with derived availability

TRANSITIONS:
  Every mutating operation builds the next State on a copy, checks it, and
  only then swaps it in. A rejected or failed operation therefore leaves the
  machine exactly as it was.

AUTO-REFUND:
  After a purchase, if the inserted balance is below the cheapest catalog
  price, nothing else can be bought. The leftover balance is paid out as
  change and the machine returns to its idle (zero balance) view. The
  threshold is the cheapest price in the whole catalog, regardless of that
  item's stock or change availability.

CONCURRENCY:
  A Machine is not safe for concurrent use. It models one customer at one
  machine; callers that expose it over a network must serialize access
  (see api.Handler).

SEE ALSO:
  - availability.go: Availability derivation
  - ledger/change.go: Greedy change-making
*/
package vending

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/warp/vending-engine/ledger"
)

// =============================================================================
// MACHINE
// =============================================================================

// Machine is a single vending machine with one customer in front of it.
type Machine struct {
	state    State
	items    []Item
	index    map[ItemID]int
	minPrice int64
	log      *zap.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// New builds a machine from cfg. The config is copied; later changes to it
// do not affect the machine.
func New(cfg Config, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		state: State{
			Till:              cfg.Till.Clone(),
			CustomerRemaining: cfg.CustomerFunds,
		},
		items: make([]Item, 0, len(cfg.Items)),
		index: make(map[ItemID]int, len(cfg.Items)),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for i, ic := range cfg.Items {
		m.items = append(m.items, Item{ID: ic.ID, Name: ic.Name, Price: ic.Price, Stock: ic.Stock})
		m.index[ic.ID] = i
		if i == 0 || ic.Price < m.minPrice {
			m.minPrice = ic.Price
		}
	}
	m.items = deriveAll(m.items, m.state)

	m.log.Info("machine ready",
		zap.Stringer("till", m.state.Till),
		zap.Int64("till_total", ledger.Total(m.state.Till)),
		zap.Int64("customer_funds", m.state.CustomerRemaining),
		zap.Int("items", len(m.items)),
	)
	return m, nil
}

// Validate checks that a machine can be built from cfg.
func (cfg Config) Validate() error {
	if len(cfg.Till) == 0 {
		return fmt.Errorf("%w: no denominations configured", ErrInvalidConfig)
	}
	if err := cfg.Till.Validate(); err != nil {
		return fmt.Errorf("%w: till: %v", ErrInvalidConfig, err)
	}
	if cfg.CustomerFunds < 0 {
		return fmt.Errorf("%w: negative customer funds %d", ErrInvalidConfig, cfg.CustomerFunds)
	}
	// Every insert moves wallet money into the till, so the till can grow to
	// till + wallet.
	if till := ledger.Total(cfg.Till); cfg.CustomerFunds > math.MaxInt64-till {
		return fmt.Errorf("%w: till %d plus customer funds %d overflows", ErrInvalidConfig, till, cfg.CustomerFunds)
	}
	if len(cfg.Items) == 0 {
		return fmt.Errorf("%w: empty catalog", ErrInvalidConfig)
	}

	seen := make(map[ItemID]bool, len(cfg.Items))
	for _, ic := range cfg.Items {
		if seen[ic.ID] {
			return fmt.Errorf("%w: duplicate item id %d", ErrInvalidConfig, ic.ID)
		}
		seen[ic.ID] = true
		if ic.Price <= 0 {
			return fmt.Errorf("%w: item %d: price must be positive, got %d", ErrInvalidConfig, ic.ID, ic.Price)
		}
		if ic.Stock < 0 {
			return fmt.Errorf("%w: item %d: negative stock %d", ErrInvalidConfig, ic.ID, ic.Stock)
		}
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Balances returns the till total, the inserted balance and the customer's
// remaining funds.
func (m *Machine) Balances() Balances {
	return Balances{
		TillTotal:         ledger.Total(m.state.Till),
		Inserted:          m.state.Inserted,
		CustomerRemaining: m.state.CustomerRemaining,
	}
}

// Items returns a snapshot of the catalog in configuration order.
func (m *Machine) Items() []Item {
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// Item returns the catalog entry for id.
func (m *Machine) Item(id ItemID) (Item, bool) {
	i, ok := m.index[id]
	if !ok {
		return Item{}, false
	}
	return m.items[i], true
}

// State returns a deep copy of the machine's money state.
func (m *Machine) State() State {
	return m.state.Clone()
}

// Denominations returns the accepted face values, largest first.
func (m *Machine) Denominations() []ledger.Denomination {
	return m.state.Till.Values()
}

// =============================================================================
// INSERT
// =============================================================================

// Insert moves one unit of face value from the customer's wallet into the
// machine. It is rejected with StatusInsufficientCustomerFunds when the
// wallet holds less than value.
func (m *Machine) Insert(value ledger.Denomination) (InsertOutcome, error) {
	if value <= 0 {
		return InsertOutcome{}, &PreconditionError{Op: "insert", Err: fmt.Errorf("%w: %d", ErrInvalidDenomination, value)}
	}
	if !m.state.Till.Has(value) {
		return InsertOutcome{}, &PreconditionError{Op: "insert", Err: fmt.Errorf("%w: %d", ErrUnknownDenomination, value)}
	}

	amount := int64(value)
	if m.state.CustomerRemaining < amount {
		b := m.Balances()
		m.log.Debug("insert rejected", zap.Int64("value", amount), zap.Int64("customer_remaining", b.CustomerRemaining))
		return InsertOutcome{
				Outcome: Outcome{Status: StatusInsufficientCustomerFunds, Messages: walletShortMessages(amount, b), Balances: b},
				Value:   value,
			}, &RejectionError{
				Status: StatusInsufficientCustomerFunds,
				Reason: fmt.Sprintf("wallet holds %d, insert of %d", b.CustomerRemaining, amount),
			}
	}

	next := m.state.Clone()
	next.Till[value]++
	next.Inserted += amount
	next.CustomerRemaining -= amount
	m.apply(next)

	b := m.Balances()
	m.log.Debug("inserted", zap.Int64("value", amount), zap.Int64("inserted", b.Inserted))
	return InsertOutcome{
		Outcome: Outcome{Status: StatusOK, Messages: insertedMessages(amount, b), Balances: b},
		Value:   value,
	}, nil
}

// =============================================================================
// PURCHASE
// =============================================================================

// Purchase sells one unit of the item. An unknown id is a precondition error.
// If the item is not currently purchasable the purchase is rejected with the
// item's availability as status.
func (m *Machine) Purchase(id ItemID) (PurchaseOutcome, error) {
	idx, ok := m.index[id]
	if !ok {
		return PurchaseOutcome{}, &PreconditionError{Op: "purchase", Err: fmt.Errorf("%w: %d", ErrUnknownItem, id)}
	}

	item := m.items[idx]
	if item.Status != Purchasable {
		status := item.Status.Status()
		m.log.Debug("purchase rejected", zap.Int("item", int(id)), zap.Stringer("status", status))
		return PurchaseOutcome{
				Outcome: Outcome{Status: status, Messages: rejectedPurchaseMessages(item), Balances: m.Balances()},
				Item:    item,
			}, &RejectionError{
				Status: status,
				ItemID: id,
				Reason: item.Name,
			}
	}

	next := m.state.Clone()
	next.Inserted -= item.Price

	var (
		refunded bool
		change   ledger.Change
	)
	if next.Inserted < m.minPrice {
		var err error
		change, err = ledger.MakeChange(next.Till, next.Inserted)
		if err != nil {
			return PurchaseOutcome{}, fmt.Errorf("vending: purchase %d: returning %d: %w", id, next.Inserted, err)
		}
		next.Till = change.Remaining
		next.CustomerRemaining += change.Amount()
		next.Inserted = 0
		refunded = true
	}

	m.items[idx].Stock--
	m.apply(next)
	if refunded {
		m.logReset("nothing left to buy", change.Amount())
	}

	sold := m.items[idx]
	return PurchaseOutcome{
		Outcome: Outcome{
			Status:   StatusOK,
			Messages: dispensedMessages(sold, refunded, change.Amount()),
			Balances: m.Balances(),
		},
		Item:      sold,
		Refunded:  refunded,
		Change:    change.Amount(),
		Dispensed: change.Dispensed,
	}, nil
}

// =============================================================================
// REFUND
// =============================================================================

// Refund returns the whole inserted balance to the customer as change and
// resets the machine to its idle view.
//
// Every inserted unit went into the till, so greedy change for the inserted
// balance is expected to succeed. If it ever does not, the error wraps
// ledger.ErrInsufficientChange and the machine is left unchanged.
func (m *Machine) Refund() (RefundOutcome, error) {
	change, err := ledger.MakeChange(m.state.Till, m.state.Inserted)
	if err != nil {
		return RefundOutcome{}, fmt.Errorf("vending: refund %d: %w", m.state.Inserted, err)
	}

	next := m.state.Clone()
	next.Till = change.Remaining
	next.CustomerRemaining += change.Amount()
	next.Inserted = 0
	m.apply(next)
	m.logReset("refund", change.Amount())

	return RefundOutcome{
		Outcome: Outcome{
			Status:   StatusOK,
			Messages: refundMessages(change.Amount()),
			Balances: m.Balances(),
		},
		Amount:    change.Amount(),
		Dispensed: change.Dispensed,
	}, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// apply swaps in the next state and re-derives the catalog from it.
func (m *Machine) apply(next State) {
	m.state = next
	m.items = deriveAll(m.items, m.state)
}

func (m *Machine) logReset(reason string, returned int64) {
	m.log.Debug("machine reset",
		zap.String("reason", reason),
		zap.Int64("returned", returned),
		zap.Int64("inserted", m.state.Inserted),
		zap.Int64("till_total", ledger.Total(m.state.Till)),
		zap.Stringer("till", m.state.Till),
		zap.Int64("customer_remaining", m.state.CustomerRemaining),
	)
}
