/*
handlers.go - HTTP API handlers for the vending machine

PURPOSE:
  Exposes the vending machine via REST API. Handles HTTP request/response,
  JSON serialization, journaling, and delegates to the vending package.

ENDPOINTS:
  Machine:
    GET    /api/machine/balances              Till total, inserted, wallet
    GET    /api/machine/items                 Catalog with availability
    GET    /api/machine/items/{id}            One catalog entry
    GET    /api/machine/denominations         Accepted faces and till counts
    POST   /api/machine/insert                Insert one coin or bill
    POST   /api/machine/items/{id}/purchase   Buy one unit
    POST   /api/machine/refund                Return the inserted balance

  Journal:
    GET    /api/journal?limit=N               Recent operations, newest first

  Scenarios:
    GET    /api/scenarios                     List demo scenarios
    GET    /api/scenarios/current             Currently loaded scenario
    POST   /api/scenarios/load                Replace the machine

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Journal: audit trail store
  - Factory: JSON to vending.Config conversion for scenarios
  - The running machine, guarded by a mutex

REQUEST FLOW (mutating calls):
  1. Parse HTTP request
  2. Check the Idempotency-Key header against used keys and the journal
  3. Call the machine
  4. Mark the key used, then record the outcome in the journal
     (rejections too)
  5. Serialize the outcome

IDEMPOTENCY:
  A key is used as soon as the machine has applied its request, whether or
  not the journal write that follows succeeds. usedKeys holds every key seen
  since the machine was loaded; the journal covers keys from earlier runs
  when it is persisted.

ERROR HANDLING:
  - 200: Operation succeeded
  - 400: Invalid body, unknown or invalid denomination, bad item id
  - 404: Unknown item
  - 409: Idempotency key already used
  - 422: Rejected by the machine; body is the outcome with its status
  - 500: Internal errors

CONCURRENCY:
  vending.Machine models one customer at one machine and is not safe for
  concurrent use. Every handler that touches it holds h.mu, so concurrent
  HTTP requests are applied one at a time in arrival order.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/vending-engine/factory"
	"github.com/warp/vending-engine/journal"
	"github.com/warp/vending-engine/ledger"
	"github.com/warp/vending-engine/vending"
)

// IdempotencyHeader carries the client's retry key on mutating calls.
const IdempotencyHeader = "Idempotency-Key"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Journal journal.Store
	Factory *factory.MachineFactory

	log *zap.Logger

	mu       sync.Mutex
	machine  *vending.Machine
	usedKeys map[string]bool

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler serving machine and recording to store.
func NewHandler(machine *vending.Machine, store journal.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Journal:  store,
		Factory:  factory.NewMachineFactory(),
		log:      log,
		machine:  machine,
		usedKeys: make(map[string]bool),
	}
}

// =============================================================================
// QUERY HANDLERS
// =============================================================================

// GetBalances returns the till total, inserted balance and customer wallet.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	b := h.machine.Balances()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, toBalancesDTO(b))
}

// ListItems returns the catalog with derived availability.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	items := h.machine.Items()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, toItemDTOs(items))
}

// GetItem returns a single catalog entry.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item id", err)
		return
	}

	h.mu.Lock()
	item, ok := h.machine.Item(id)
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Item not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// ListDenominations returns the accepted face values with the till's
// current count of each, largest first.
func (h *Handler) ListDenominations(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	till := h.machine.State().Till
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, toDenominationDTOs(till))
}

// =============================================================================
// OPERATION HANDLERS
// =============================================================================

// Insert feeds one coin or bill into the machine.
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key := r.Header.Get(IdempotencyHeader)
	if !h.checkIdempotency(w, r, key) {
		return
	}

	out, err := h.machine.Insert(ledger.Denomination(req.Value))
	if err != nil && !vending.IsRejection(err) {
		writeOperationError(w, err)
		return
	}

	entry := journal.NewEntry(journal.KindInsert, out.Status, out.Balances)
	entry.Amount = req.Value
	entry.IdempotencyKey = key
	h.record(r, entry)

	writeJSON(w, statusCode(err), toInsertResponse(out))
}

// Purchase buys one unit of the item in the path.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item id", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key := r.Header.Get(IdempotencyHeader)
	if !h.checkIdempotency(w, r, key) {
		return
	}

	out, err := h.machine.Purchase(id)
	if err != nil && !vending.IsRejection(err) {
		writeOperationError(w, err)
		return
	}

	entry := journal.NewEntry(journal.KindPurchase, out.Status, out.Balances)
	entry.ItemID = id
	entry.Amount = out.Item.Price
	entry.Change = out.Change
	entry.Dispensed = out.Dispensed
	entry.IdempotencyKey = key
	h.record(r, entry)

	writeJSON(w, statusCode(err), toPurchaseResponse(out))
}

// Refund returns the whole inserted balance to the customer.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := r.Header.Get(IdempotencyHeader)
	if !h.checkIdempotency(w, r, key) {
		return
	}

	out, err := h.machine.Refund()
	if err != nil {
		writeOperationError(w, err)
		return
	}

	entry := journal.NewEntry(journal.KindRefund, out.Status, out.Balances)
	entry.Amount = out.Amount
	entry.Change = out.Amount
	entry.Dispensed = out.Dispensed
	entry.IdempotencyKey = key
	h.record(r, entry)

	writeJSON(w, http.StatusOK, toRefundResponse(out))
}

// =============================================================================
// JOURNAL HANDLERS
// =============================================================================

// ListJournal returns recent journal entries, newest first.
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	entries, err := h.Journal.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list journal", err)
		return
	}

	writeJSON(w, http.StatusOK, toJournalEntryDTOs(entries))
}

// =============================================================================
// HELPERS
// =============================================================================

// checkIdempotency writes a 409 and returns false if key was already used.
func (h *Handler) checkIdempotency(w http.ResponseWriter, r *http.Request, key string) bool {
	if key == "" {
		return true
	}
	if h.usedKeys[key] {
		writeError(w, http.StatusConflict, "Duplicate request", journal.ErrDuplicateIdempotencyKey)
		return false
	}
	exists, err := h.Journal.Exists(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check idempotency key", err)
		return false
	}
	if exists {
		writeError(w, http.StatusConflict, "Duplicate request", journal.ErrDuplicateIdempotencyKey)
		return false
	}
	return true
}

// record marks the entry's idempotency key used and appends the entry to the
// journal. The machine has already changed by the time this runs, so a
// journal failure is logged rather than surfaced. Callers hold h.mu.
func (h *Handler) record(r *http.Request, entry journal.Entry) {
	if entry.IdempotencyKey != "" {
		if h.usedKeys == nil {
			h.usedKeys = make(map[string]bool)
		}
		h.usedKeys[entry.IdempotencyKey] = true
	}
	if err := h.Journal.Append(r.Context(), entry); err != nil {
		h.log.Error("journal append failed",
			zap.String("kind", string(entry.Kind)),
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
	}
}

func itemIDParam(r *http.Request) (vending.ItemID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("item id %q: %w", raw, err)
	}
	return vending.ItemID(n), nil
}

// statusCode maps a machine error to an HTTP status.
func statusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case vending.IsRejection(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vending.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, vending.ErrUnknownDenomination), errors.Is(err, vending.ErrInvalidDenomination):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeOperationError(w http.ResponseWriter, err error) {
	status := statusCode(err)
	message := "Operation failed"
	switch status {
	case http.StatusNotFound:
		message = "Item not found"
	case http.StatusBadRequest:
		message = "Denomination not accepted"
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
