/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built machines for demos and manual testing. Each scenario
	is a JSON machine definition run through the factory, exactly like a
	file passed to cmd/server with -config.

AVAILABLE SCENARIOS:

	default:      The stock machine: ten 100s in the till, 10,000 won wallet
	no-change:    Empty till, so only exact-price purchases go through
	sold-out:     Coffee (the cheapest item) and two others sold out
	big-spender:  Well-stocked till, bill faces, 50,000 won wallet

HOW SCENARIOS WORK:
 1. Parse the scenario's JSON through factory.ParseMachine
 2. Build a new vending.Machine
 3. Reset the journal
 4. Swap the new machine in

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "no-change"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add its JSON to scenarioMachines

NOTE:

	Loading a scenario discards the running machine and the journal.

SEE ALSO:
  - handlers.go: Machine handlers
  - factory/machine.go: Machine JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/vending-engine/factory"
	"github.com/warp/vending-engine/vending"
)

// ErrUnknownScenario is returned when loading a scenario id that does not exist.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "default",
		Name:        "Default Machine",
		Description: "Ten 100 won coins in the till and 10,000 won in the wallet",
	},
	{
		ID:          "no-change",
		Name:        "No Change",
		Description: "Empty till: anything that needs change is unavailable",
	},
	{
		ID:          "sold-out",
		Name:        "Sold Out",
		Description: "Coffee, Coca-Cola and Milkis sold out; leftover balance stays after a purchase",
	},
	{
		ID:          "big-spender",
		Name:        "Big Spender",
		Description: "Well-stocked till accepting bills, 50,000 won in the wallet",
	},
}

const noChangeMachineJSON = `{
  "customer_funds": 10000,
  "till": [
    {"value": 100, "count": 0},
    {"value": 500, "count": 0},
    {"value": 1000, "count": 0}
  ],
  "items": [
    {"id": 1, "name": "Coca-Cola", "price": 700, "stock": 5},
    {"id": 2, "name": "Orange Juice", "price": 1200, "stock": 5},
    {"id": 3, "name": "Coffee", "price": 500, "stock": 5},
    {"id": 4, "name": "Water", "price": 700, "stock": 5},
    {"id": 5, "name": "Corn Silk Tea", "price": 1200, "stock": 5},
    {"id": 6, "name": "Milkis", "price": 700, "stock": 5},
    {"id": 7, "name": "Trevi", "price": 1000, "stock": 5}
  ]
}`

const soldOutMachineJSON = `{
  "customer_funds": 10000,
  "till": [
    {"value": 100, "count": 10},
    {"value": 500, "count": 0},
    {"value": 1000, "count": 0}
  ],
  "items": [
    {"id": 1, "name": "Coca-Cola", "price": 700, "stock": 0},
    {"id": 2, "name": "Orange Juice", "price": 1200, "stock": 5},
    {"id": 3, "name": "Coffee", "price": 500, "stock": 0},
    {"id": 4, "name": "Water", "price": 700, "stock": 1},
    {"id": 5, "name": "Corn Silk Tea", "price": 1200, "stock": 5},
    {"id": 6, "name": "Milkis", "price": 700, "stock": 0},
    {"id": 7, "name": "Trevi", "price": 1000, "stock": 2}
  ]
}`

const bigSpenderMachineJSON = `{
  "customer_funds": 50000,
  "till": [
    {"value": 100, "count": 50},
    {"value": 500, "count": 20},
    {"value": 1000, "count": 10},
    {"value": 5000, "count": 0},
    {"value": 10000, "count": 0}
  ],
  "items": [
    {"id": 1, "name": "Coca-Cola", "price": 700, "stock": 10},
    {"id": 2, "name": "Orange Juice", "price": 1200, "stock": 10},
    {"id": 3, "name": "Coffee", "price": 500, "stock": 10},
    {"id": 4, "name": "Water", "price": 700, "stock": 10},
    {"id": 5, "name": "Corn Silk Tea", "price": 1200, "stock": 10},
    {"id": 6, "name": "Milkis", "price": 700, "stock": 10},
    {"id": 7, "name": "Trevi", "price": 1000, "stock": 10}
  ]
}`

// scenarioMachines maps scenario id to its machine JSON.
var scenarioMachines = map[string]func() string{
	"default":     factory.DefaultMachineJSON,
	"no-change":   func() string { return noChangeMachineJSON },
	"sold-out":    func() string { return soldOutMachineJSON },
	"big-spender": func() string { return bigSpenderMachineJSON },
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the running machine with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// LoadScenarioByID builds the scenario's machine, resets the journal and
// swaps the machine in.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	machineJSON, ok := scenarioMachines[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	cfg, err := h.Factory.ParseMachine(machineJSON())
	if err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}

	if err := h.replaceMachine(ctx, cfg); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()

	h.log.Info("scenario loaded", zap.String("scenario", id))
	return nil
}

// LoadConfig replaces the running machine with one built from cfg.
func (h *Handler) LoadConfig(ctx context.Context, cfg vending.Config) error {
	return h.replaceMachine(ctx, cfg)
}

func (h *Handler) replaceMachine(ctx context.Context, cfg vending.Config) error {
	m, err := vending.New(cfg, vending.WithLogger(h.log))
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Journal.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset journal: %w", err)
	}
	h.machine = m
	h.usedKeys = make(map[string]bool)
	h.currentScenario = ""
	return nil
}
