/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the vending package's Go types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Outcome wrappers for mutating calls

TYPES:
  Machine:
    BalancesDTO, ItemDTO, DenominationDTO

  Operations:
    InsertRequest, InsertResponse, PurchaseResponse, RefundResponse

  Journal:
    JournalEntryDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - vending/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/warp/vending-engine/journal"
	"github.com/warp/vending-engine/ledger"
	"github.com/warp/vending-engine/vending"
)

// =============================================================================
// MACHINE
// =============================================================================

// BalancesDTO is the money summary shown to the customer.
type BalancesDTO struct {
	TillTotal         int64 `json:"till_total"`
	Inserted          int64 `json:"inserted"`
	CustomerRemaining int64 `json:"customer_remaining"`
}

// ItemDTO represents a catalog entry with its derived status.
type ItemDTO struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`
	Stock  int    `json:"stock"`
	Status string `json:"status"`
}

// DenominationDTO is a face value and a unit count (till contents or
// dispensed change).
type DenominationDTO struct {
	Value int64 `json:"value"`
	Count int   `json:"count"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// InsertRequest is the body of POST /api/machine/insert.
type InsertRequest struct {
	Value int64 `json:"value"`
}

// OutcomeDTO is the part every mutating response carries.
type OutcomeDTO struct {
	Status   string      `json:"status"`
	Messages []string    `json:"messages"`
	Balances BalancesDTO `json:"balances"`
}

// InsertResponse is returned by POST /api/machine/insert.
type InsertResponse struct {
	OutcomeDTO
	Value int64 `json:"value"`
}

// PurchaseResponse is returned by POST /api/machine/items/{id}/purchase.
type PurchaseResponse struct {
	OutcomeDTO
	Item      ItemDTO           `json:"item"`
	Refunded  bool              `json:"refunded"`
	Change    int64             `json:"change"`
	Dispensed []DenominationDTO `json:"dispensed"`
}

// RefundResponse is returned by POST /api/machine/refund.
type RefundResponse struct {
	OutcomeDTO
	Amount    int64             `json:"amount"`
	Dispensed []DenominationDTO `json:"dispensed"`
}

// =============================================================================
// JOURNAL
// =============================================================================

// JournalEntryDTO represents a journal entry in API responses.
type JournalEntryDTO struct {
	ID             string            `json:"id"`
	Kind           string            `json:"kind"`
	ItemID         int               `json:"item_id,omitempty"`
	Amount         int64             `json:"amount"`
	Change         int64             `json:"change"`
	Status         string            `json:"status"`
	Dispensed      []DenominationDTO `json:"dispensed"`
	Balances       BalancesDTO       `json:"balances"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	CreatedAt      string            `json:"created_at"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toBalancesDTO(b vending.Balances) BalancesDTO {
	return BalancesDTO{
		TillTotal:         b.TillTotal,
		Inserted:          b.Inserted,
		CustomerRemaining: b.CustomerRemaining,
	}
}

func toItemDTO(item vending.Item) ItemDTO {
	return ItemDTO{
		ID:     int(item.ID),
		Name:   item.Name,
		Price:  item.Price,
		Stock:  item.Stock,
		Status: item.Status.String(),
	}
}

func toItemDTOs(items []vending.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	return dtos
}

// toDenominationDTOs lists the set largest face first. Zero counts are kept
// so the till view shows every accepted face.
func toDenominationDTOs(set ledger.DenominationSet) []DenominationDTO {
	dtos := make([]DenominationDTO, 0, len(set))
	for _, face := range set.Values() {
		dtos = append(dtos, DenominationDTO{Value: int64(face), Count: set.Count(face)})
	}
	return dtos
}

func toOutcomeDTO(out vending.Outcome) OutcomeDTO {
	messages := out.Messages
	if messages == nil {
		messages = []string{}
	}
	return OutcomeDTO{
		Status:   out.Status.String(),
		Messages: messages,
		Balances: toBalancesDTO(out.Balances),
	}
}

func toInsertResponse(out vending.InsertOutcome) InsertResponse {
	return InsertResponse{
		OutcomeDTO: toOutcomeDTO(out.Outcome),
		Value:      int64(out.Value),
	}
}

func toPurchaseResponse(out vending.PurchaseOutcome) PurchaseResponse {
	return PurchaseResponse{
		OutcomeDTO: toOutcomeDTO(out.Outcome),
		Item:       toItemDTO(out.Item),
		Refunded:   out.Refunded,
		Change:     out.Change,
		Dispensed:  toDenominationDTOs(out.Dispensed),
	}
}

func toRefundResponse(out vending.RefundOutcome) RefundResponse {
	return RefundResponse{
		OutcomeDTO: toOutcomeDTO(out.Outcome),
		Amount:     out.Amount,
		Dispensed:  toDenominationDTOs(out.Dispensed),
	}
}

func toJournalEntryDTO(e journal.Entry) JournalEntryDTO {
	return JournalEntryDTO{
		ID:             e.ID,
		Kind:           string(e.Kind),
		ItemID:         int(e.ItemID),
		Amount:         e.Amount,
		Change:         e.Change,
		Status:         e.Status.String(),
		Dispensed:      toDenominationDTOs(e.Dispensed),
		Balances:       toBalancesDTO(e.Balances),
		IdempotencyKey: e.IdempotencyKey,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

func toJournalEntryDTOs(entries []journal.Entry) []JournalEntryDTO {
	dtos := make([]JournalEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toJournalEntryDTO(e)
	}
	return dtos
}
