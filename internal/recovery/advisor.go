// Package recovery maps validation failure categories to the one
// mechanically-executable follow-up an autonomous agent should make next.
//
// The suggested_action_id values are part of the external contract: agents
// branch on them, so once shipped they are never renamed. Adding an error
// category means adding a row here with a new, distinct id.
package recovery

import (
	"github.com/ledgersim/mcp-ledger-sim/internal/validation"
	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// ToolCall names a literal tool from the registered catalog plus the
// arguments to invoke it with. The name must match the registered spelling
// exactly; it is parsed by agents, not by humans.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Action is the machine-actionable recovery suggestion attached to a
// failure response. Constructed fresh per failure and never persisted.
type Action struct {
	SuggestedActionID string    `json:"suggested_action_id"`
	Description       string    `json:"description,omitempty"`
	NextToolCall      *ToolCall `json:"next_tool_call,omitempty"`
}

// Stable action ids. These are wire contract.
const (
	ActionFindValidAccountCodes = "find_valid_account_codes"
	ActionFindValidTaxTypes     = "find_valid_tax_types"
	ActionFindOrCreateContact   = "find_or_create_contact"
	ActionLookupSourceDocument  = "lookup_source_document"
	ActionListTenants           = "list_tenants"
	ActionClearSimulation       = "clear_simulation"
)

// categoryPriority is the stable order in which error categories are
// considered; the first category present among error-severity diff entries
// wins. Account-code problems outrank tax problems outrank contact
// problems outrank document references, matching how an agent would repair
// a payload incrementally.
var categoryPriority = [][]validation.Category{
	{validation.CategoryAccountNotFound, validation.CategoryAccountArchived, validation.CategoryAccountTypeMismatch},
	{validation.CategoryTaxTypeInvalid},
	{validation.CategoryContactNotFound, validation.CategoryContactArchived},
	{validation.CategoryReferenceNotFound},
}

// Suggest maps a failed validation result to a recovery action, or nil
// when no category applies (structural-only or temporal failures have no
// mechanical fix beyond correcting the payload). It is a pure function
// over the complete result; callers must run it after validation finishes
// so the category priority sees the full error set.
func Suggest(entityType accounting.EntityType, result *validation.Result) *Action {
	if result == nil || result.Valid {
		return nil
	}

	for _, group := range categoryPriority {
		diff, found := firstErrorDiff(result, group)
		if !found {
			continue
		}
		switch diff.Category {
		case validation.CategoryAccountNotFound, validation.CategoryAccountArchived, validation.CategoryAccountTypeMismatch:
			return accountCodesAction(entityType)
		case validation.CategoryTaxTypeInvalid:
			return &Action{
				SuggestedActionID: ActionFindValidTaxTypes,
				Description:       "List the tenant's active tax types and substitute a returned tax_type into the payload.",
				NextToolCall: &ToolCall{
					Name: "introspect_enums",
					Arguments: map[string]any{
						"entity_type": string(accounting.EntityTypeTaxRate),
						"filter":      map[string]any{"status": string(accounting.TaxRateStatusActive)},
					},
				},
			}
		case validation.CategoryContactNotFound, validation.CategoryContactArchived:
			return &Action{
				SuggestedActionID: ActionFindOrCreateContact,
				Description:       "Look up the tenant's contacts; if the intended contact does not exist, create it with create_contact.",
				NextToolCall: &ToolCall{
					Name: "introspect_enums",
					Arguments: map[string]any{
						"entity_type": string(accounting.EntityTypeContact),
					},
				},
			}
		case validation.CategoryReferenceNotFound:
			return sourceDocumentAction(diff.Field)
		}
	}

	return nil
}

// SuggestInfrastructure maps infrastructure fault codes to their recovery
// actions. These draw from a different id set than validation categories
// and carry no diff; validation codes never receive a suggestion from
// this set.
func SuggestInfrastructure(code errors.ErrorCode) *Action {
	if !errors.IsInfrastructure(code) {
		return nil
	}
	switch code {
	case errors.ErrCodeTenantNotFound, errors.ErrCodeConnectionMissing:
		return &Action{
			SuggestedActionID: ActionListTenants,
			Description:       "List the tenants this server is connected to and retry with a valid tenant_id.",
			NextToolCall: &ToolCall{
				Name:      "get_mcp_capabilities",
				Arguments: map[string]any{"include_tenants": true},
			},
		}
	case errors.ErrCodeSimulatedFault, errors.ErrCodeRateLimited:
		return &Action{
			SuggestedActionID: ActionClearSimulation,
			Description:       "A simulated network condition is active for this tenant; clear it and retry.",
			NextToolCall: &ToolCall{
				Name: "clear_simulation",
			},
		}
	default:
		return nil
	}
}

// accountCodesAction builds the introspection call for repairing an
// account-code failure, inferring the account type filter from the entity:
// sales documents post to REVENUE, money movement goes through BANK.
func accountCodesAction(entityType accounting.EntityType) *Action {
	filter := map[string]any{"status": string(accounting.AccountStatusActive)}
	switch entityType {
	case accounting.EntityTypeInvoice, accounting.EntityTypeQuote, accounting.EntityTypeCreditNote:
		filter["type"] = string(accounting.AccountTypeRevenue)
	case accounting.EntityTypePayment, accounting.EntityTypeBankTransaction:
		filter["type"] = string(accounting.AccountTypeBank)
	}
	return &Action{
		SuggestedActionID: ActionFindValidAccountCodes,
		Description:       "List the tenant's active account codes and substitute a returned code into the payload.",
		NextToolCall: &ToolCall{
			Name: "introspect_enums",
			Arguments: map[string]any{
				"entity_type": string(accounting.EntityTypeAccount),
				"filter":      filter,
			},
		},
	}
}

// sourceDocumentAction targets the lookup tool for the document kind the
// failing field references. The action id is shared across document kinds;
// only the tool call varies.
func sourceDocumentAction(field string) *Action {
	call := &ToolCall{Name: "list_invoices"}
	if field == "credit_note_id" {
		call = &ToolCall{Name: "list_credit_notes"}
	}
	return &Action{
		SuggestedActionID: ActionLookupSourceDocument,
		Description:       "The referenced document does not exist; list the tenant's documents and retry with a real id.",
		NextToolCall:      call,
	}
}

// firstErrorDiff returns the earliest error-severity diff entry whose
// category is in the group.
func firstErrorDiff(result *validation.Result, group []validation.Category) (validation.Diff, bool) {
	for _, d := range result.Diff {
		if d.Severity != validation.SeverityError {
			continue
		}
		for _, cat := range group {
			if d.Category == cat {
				return d, true
			}
		}
	}
	return validation.Diff{}, false
}
