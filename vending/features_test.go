package vending_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/warp/vending-engine/ledger"
	"github.com/warp/vending-engine/vending"
)

// =============================================================================
// FEATURE SUITE - features/vending.feature
// =============================================================================

type machineTestContext struct {
	cfg     vending.Config
	machine *vending.Machine
	till    ledger.DenominationSet

	status   vending.Status
	change   int64
	refunded int64
}

func (c *machineTestContext) reset() {
	c.cfg = vending.Config{}
	c.machine = nil
	c.till = nil
	c.status = vending.StatusOK
	c.change = 0
	c.refunded = 0
}

// build creates the machine on first use so Given steps can still edit cfg.
func (c *machineTestContext) build() (*vending.Machine, error) {
	if c.machine != nil {
		return c.machine, nil
	}
	m, err := vending.New(c.cfg)
	if err != nil {
		return nil, err
	}
	c.machine = m
	return m, nil
}

// record keeps the status of the last operation. Rejections are expected
// outcomes; anything else fails the step.
func (c *machineTestContext) record(status vending.Status, err error) error {
	c.status = status
	if err != nil && !vending.IsRejection(err) {
		return err
	}
	return nil
}

// Given

func (c *machineTestContext) theDefaultMachine() error {
	c.cfg = vending.DefaultConfig()
	return nil
}

func (c *machineTestContext) theCustomerHolds(amount int) error {
	c.cfg.CustomerFunds = int64(amount)
	return nil
}

func (c *machineTestContext) theTillIsEmpty() error {
	for face := range c.cfg.Till {
		c.cfg.Till[face] = 0
	}
	return nil
}

func (c *machineTestContext) itemIsSoldOut(id int) error {
	for i := range c.cfg.Items {
		if c.cfg.Items[i].ID == vending.ItemID(id) {
			c.cfg.Items[i].Stock = 0
			return nil
		}
	}
	return fmt.Errorf("no item %d in config", id)
}

func (c *machineTestContext) aTillWithUnitsOf(count, face int) error {
	c.till = ledger.DenominationSet{ledger.Denomination(face): count}
	return nil
}

// When

func (c *machineTestContext) theCustomerInserts(value int) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	out, err := m.Insert(ledger.Denomination(value))
	return c.record(out.Status, err)
}

func (c *machineTestContext) theCustomerInsertsTimes(value, times int) error {
	for i := 0; i < times; i++ {
		if err := c.theCustomerInserts(value); err != nil {
			return err
		}
	}
	return nil
}

func (c *machineTestContext) theCustomerBuysItem(id int) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	out, err := m.Purchase(vending.ItemID(id))
	c.change = out.Change
	return c.record(out.Status, err)
}

func (c *machineTestContext) theCustomerAsksForARefund() error {
	m, err := c.build()
	if err != nil {
		return err
	}
	out, err := m.Refund()
	c.refunded = out.Amount
	return c.record(out.Status, err)
}

// Then

func (c *machineTestContext) theOutcomeStatusIs(want string) error {
	if c.status.String() != want {
		return fmt.Errorf("expected status %q, got %q", want, c.status)
	}
	return nil
}

func (c *machineTestContext) theInsertedBalanceIs(want int) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	if got := m.Balances().Inserted; got != int64(want) {
		return fmt.Errorf("expected inserted balance %d, got %d", want, got)
	}
	return nil
}

func (c *machineTestContext) theCustomerHasLeft(want int) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	if got := m.Balances().CustomerRemaining; got != int64(want) {
		return fmt.Errorf("expected customer to hold %d, got %d", want, got)
	}
	return nil
}

func (c *machineTestContext) theTillHoldsUnitsOf(count, face int) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	if got := m.State().Till.Count(ledger.Denomination(face)); got != count {
		return fmt.Errorf("expected %d units of %d, got %d", count, face, got)
	}
	return nil
}

func (c *machineTestContext) theTillTotalIs(want int) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	if got := m.Balances().TillTotal; got != int64(want) {
		return fmt.Errorf("expected till total %d, got %d", want, got)
	}
	return nil
}

func (c *machineTestContext) theChangeReturnedIs(want int) error {
	if c.change != int64(want) {
		return fmt.Errorf("expected change %d, got %d", want, c.change)
	}
	return nil
}

func (c *machineTestContext) theRefundedAmountIs(want int) error {
	if c.refunded != int64(want) {
		return fmt.Errorf("expected refund %d, got %d", want, c.refunded)
	}
	return nil
}

func (c *machineTestContext) everyItemIs(want string) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	for _, item := range m.Items() {
		if item.Status.String() != want {
			return fmt.Errorf("%s: expected %q, got %q", item.Name, want, item.Status)
		}
	}
	return nil
}

func (c *machineTestContext) itemIs(id int, want string) error {
	m, err := c.build()
	if err != nil {
		return err
	}
	item, ok := m.Item(vending.ItemID(id))
	if !ok {
		return fmt.Errorf("no item %d", id)
	}
	if item.Status.String() != want {
		return fmt.Errorf("item %d: expected %q, got %q", id, want, item.Status)
	}
	return nil
}

func (c *machineTestContext) changeForIsUnitsOf(amount, count, face int) error {
	change, err := ledger.MakeChange(c.till, int64(amount))
	if err != nil {
		return err
	}
	if got := change.Dispensed.Count(ledger.Denomination(face)); got != count {
		return fmt.Errorf("expected %d units of %d, got %d", count, face, got)
	}
	if got := change.Amount(); got != int64(amount) {
		return fmt.Errorf("dispensed %d, want %d", got, amount)
	}
	return nil
}

func (c *machineTestContext) changeForIsUnavailable(amount int) error {
	_, err := ledger.MakeChange(c.till, int64(amount))
	if !errors.Is(err, ledger.ErrInsufficientChange) {
		return fmt.Errorf("expected insufficient change for %d, got %v", amount, err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &machineTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the default machine$`, tc.theDefaultMachine)
	ctx.Step(`^the customer holds (\d+)$`, tc.theCustomerHolds)
	ctx.Step(`^the till is empty$`, tc.theTillIsEmpty)
	ctx.Step(`^item (\d+) is sold out$`, tc.itemIsSoldOut)
	ctx.Step(`^a till with (\d+) units of (\d+)$`, tc.aTillWithUnitsOf)

	// When steps
	ctx.Step(`^the customer inserts (\d+)$`, tc.theCustomerInserts)
	ctx.Step(`^the customer inserts (\d+) (\d+) times$`, tc.theCustomerInsertsTimes)
	ctx.Step(`^the customer buys item (\d+)$`, tc.theCustomerBuysItem)
	ctx.Step(`^the customer asks for a refund$`, tc.theCustomerAsksForARefund)

	// Then steps
	ctx.Step(`^the outcome status is "([^"]*)"$`, tc.theOutcomeStatusIs)
	ctx.Step(`^the inserted balance is (\d+)$`, tc.theInsertedBalanceIs)
	ctx.Step(`^the customer has (\d+) left$`, tc.theCustomerHasLeft)
	ctx.Step(`^the till holds (\d+) units of (\d+)$`, tc.theTillHoldsUnitsOf)
	ctx.Step(`^the till total is (\d+)$`, tc.theTillTotalIs)
	ctx.Step(`^the change returned is (\d+)$`, tc.theChangeReturnedIs)
	ctx.Step(`^the refunded amount is (\d+)$`, tc.theRefundedAmountIs)
	ctx.Step(`^every item is "([^"]*)"$`, tc.everyItemIs)
	ctx.Step(`^item (\d+) is "([^"]*)"$`, tc.itemIs)
	ctx.Step(`^change for (\d+) is (\d+) units of (\d+)$`, tc.changeForIsUnitsOf)
	ctx.Step(`^change for (\d+) is unavailable$`, tc.changeForIsUnavailable)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/vending.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
