package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgersim/mcp-ledger-sim/internal/validation"
	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

func failedResult(diffs ...validation.Diff) *validation.Result {
	result := &validation.Result{Valid: true, Diff: diffs}
	for _, d := range diffs {
		if d.Severity == validation.SeverityError {
			result.Errors = append(result.Errors, d.Issue)
			result.Valid = false
		}
	}
	return result
}

func TestSuggestNilForValidResult(t *testing.T) {
	assert.Nil(t, Suggest(accounting.EntityTypeInvoice, nil))
	assert.Nil(t, Suggest(accounting.EntityTypeInvoice, &validation.Result{Valid: true}))
}

func TestSuggestAccountCode(t *testing.T) {
	result := failedResult(validation.Diff{
		Field:    "line_items[0].account_code",
		Category: validation.CategoryAccountArchived,
		Severity: validation.SeverityError,
	})

	action := Suggest(accounting.EntityTypeInvoice, result)
	require.NotNil(t, action)
	assert.Equal(t, ActionFindValidAccountCodes, action.SuggestedActionID)
	require.NotNil(t, action.NextToolCall)
	assert.Equal(t, "introspect_enums", action.NextToolCall.Name)
	assert.Equal(t, "Account", action.NextToolCall.Arguments["entity_type"])

	filter, ok := action.NextToolCall.Arguments["filter"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ACTIVE", filter["status"])
	assert.Equal(t, "REVENUE", filter["type"])
}

func TestSuggestAccountTypeFilterFollowsEntity(t *testing.T) {
	result := failedResult(validation.Diff{
		Field:    "account_code",
		Category: validation.CategoryAccountTypeMismatch,
		Severity: validation.SeverityError,
	})

	action := Suggest(accounting.EntityTypePayment, result)
	require.NotNil(t, action)
	filter := action.NextToolCall.Arguments["filter"].(map[string]any)
	assert.Equal(t, "BANK", filter["type"])
}

func TestSuggestTaxType(t *testing.T) {
	result := failedResult(validation.Diff{
		Field:    "line_items[0].tax_type",
		Category: validation.CategoryTaxTypeInvalid,
		Severity: validation.SeverityError,
	})

	action := Suggest(accounting.EntityTypeInvoice, result)
	require.NotNil(t, action)
	assert.Equal(t, ActionFindValidTaxTypes, action.SuggestedActionID)
	assert.Equal(t, "introspect_enums", action.NextToolCall.Name)
	assert.Equal(t, "TaxRate", action.NextToolCall.Arguments["entity_type"])
}

func TestSuggestContact(t *testing.T) {
	result := failedResult(validation.Diff{
		Field:    "contact.contact_id",
		Category: validation.CategoryContactNotFound,
		Severity: validation.SeverityError,
	})

	action := Suggest(accounting.EntityTypeInvoice, result)
	require.NotNil(t, action)
	assert.Equal(t, ActionFindOrCreateContact, action.SuggestedActionID)
	assert.Equal(t, "Contact", action.NextToolCall.Arguments["entity_type"])
}

func TestSuggestSourceDocument(t *testing.T) {
	invoiceRef := failedResult(validation.Diff{
		Field:    "invoice_id",
		Category: validation.CategoryReferenceNotFound,
		Severity: validation.SeverityError,
	})
	action := Suggest(accounting.EntityTypePayment, invoiceRef)
	require.NotNil(t, action)
	assert.Equal(t, ActionLookupSourceDocument, action.SuggestedActionID)
	assert.Equal(t, "list_invoices", action.NextToolCall.Name)

	creditNoteRef := failedResult(validation.Diff{
		Field:    "credit_note_id",
		Category: validation.CategoryReferenceNotFound,
		Severity: validation.SeverityError,
	})
	action = Suggest(accounting.EntityTypePayment, creditNoteRef)
	require.NotNil(t, action)
	assert.Equal(t, ActionLookupSourceDocument, action.SuggestedActionID)
	assert.Equal(t, "list_credit_notes", action.NextToolCall.Name)
}

func TestSuggestPriorityOrder(t *testing.T) {
	// Account problems outrank tax, contact, and reference problems
	// regardless of diff order.
	result := failedResult(
		validation.Diff{Field: "contact.contact_id", Category: validation.CategoryContactNotFound, Severity: validation.SeverityError},
		validation.Diff{Field: "line_items[0].tax_type", Category: validation.CategoryTaxTypeInvalid, Severity: validation.SeverityError},
		validation.Diff{Field: "line_items[0].account_code", Category: validation.CategoryAccountNotFound, Severity: validation.SeverityError},
	)

	action := Suggest(accounting.EntityTypeInvoice, result)
	require.NotNil(t, action)
	assert.Equal(t, ActionFindValidAccountCodes, action.SuggestedActionID)

	// With the account entry gone, tax wins over contact.
	result = failedResult(
		validation.Diff{Field: "contact.contact_id", Category: validation.CategoryContactNotFound, Severity: validation.SeverityError},
		validation.Diff{Field: "line_items[0].tax_type", Category: validation.CategoryTaxTypeInvalid, Severity: validation.SeverityError},
	)
	action = Suggest(accounting.EntityTypeInvoice, result)
	require.NotNil(t, action)
	assert.Equal(t, ActionFindValidTaxTypes, action.SuggestedActionID)
}

func TestSuggestIgnoresWarnings(t *testing.T) {
	result := &validation.Result{
		Valid:  false,
		Errors: []string{"Contact is required"},
		Diff: []validation.Diff{
			{Field: "contact", Category: validation.CategoryRequiredField, Severity: validation.SeverityError},
			{Field: "contact.contact_id", Category: validation.CategoryContactArchived, Severity: validation.SeverityWarning},
		},
	}

	// The only error is structural; the archived-contact warning must not
	// trigger a contact suggestion.
	assert.Nil(t, Suggest(accounting.EntityTypeInvoice, result))
}

func TestSuggestInfrastructure(t *testing.T) {
	action := SuggestInfrastructure(errors.ErrCodeTenantNotFound)
	require.NotNil(t, action)
	assert.Equal(t, ActionListTenants, action.SuggestedActionID)
	assert.Equal(t, "get_mcp_capabilities", action.NextToolCall.Name)
	assert.Equal(t, true, action.NextToolCall.Arguments["include_tenants"])

	action = SuggestInfrastructure(errors.ErrCodeSimulatedFault)
	require.NotNil(t, action)
	assert.Equal(t, ActionClearSimulation, action.SuggestedActionID)
	assert.Equal(t, "clear_simulation", action.NextToolCall.Name)

	action = SuggestInfrastructure(errors.ErrCodeRateLimited)
	require.NotNil(t, action)
	assert.Equal(t, ActionClearSimulation, action.SuggestedActionID)

	assert.Nil(t, SuggestInfrastructure(errors.ErrCodeInternal))
}

func TestSuggestInfrastructureRejectsValidationCodes(t *testing.T) {
	// Validation codes belong to the other taxonomy and never draw from
	// the infrastructure suggestion set.
	for _, code := range []errors.ErrorCode{
		errors.ErrCodeValidationRequired,
		errors.ErrCodeValidationInvalid,
		errors.ErrCodeValidationFormat,
		errors.ErrCodeValidationRange,
		errors.ErrCodeValidationType,
		errors.ErrCodeValidationConstraint,
	} {
		assert.Nil(t, SuggestInfrastructure(code), string(code))
	}
}

func TestActionIDsAreStable(t *testing.T) {
	// Wire contract: agents branch on these strings.
	assert.Equal(t, "find_valid_account_codes", ActionFindValidAccountCodes)
	assert.Equal(t, "find_valid_tax_types", ActionFindValidTaxTypes)
	assert.Equal(t, "find_or_create_contact", ActionFindOrCreateContact)
	assert.Equal(t, "lookup_source_document", ActionLookupSourceDocument)
	assert.Equal(t, "list_tenants", ActionListTenants)
	assert.Equal(t, "clear_simulation", ActionClearSimulation)
}
