package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

func testSnapshot() *accounting.TenantSnapshot {
	return &accounting.TenantSnapshot{
		TenantID: "test-au",
		Region:   "AU",
		Currency: "AUD",
		Accounts: []accounting.Account{
			{Code: "090", Name: "Cheque Account", Type: accounting.AccountTypeBank, Status: accounting.AccountStatusActive},
			{Code: "091", Name: "Old Savings", Type: accounting.AccountTypeBank, Status: accounting.AccountStatusArchived},
			{Code: "200", Name: "Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "260", Name: "Legacy Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusArchived},
			{Code: "400", Name: "Advertising", Type: accounting.AccountTypeExpense, Status: accounting.AccountStatusActive},
		},
		TaxRates: []accounting.TaxRate{
			{TaxType: "OUTPUT", Name: "GST on Income", Rate: decimal.RequireFromString("10"), Status: accounting.TaxRateStatusActive},
			{TaxType: "INPUT", Name: "GST on Expenses", Rate: decimal.RequireFromString("10"), Status: accounting.TaxRateStatusActive},
			{TaxType: "LEGACYGST", Name: "Superseded", Rate: decimal.RequireFromString("10"), Status: accounting.TaxRateStatusDeleted},
		},
		Contacts: []accounting.Contact{
			{ContactID: "c-001", Name: "Bayside Wholesale", Status: accounting.ContactStatusActive, IsCustomer: true},
			{ContactID: "c-004", Name: "Defunct Retail Co", Status: accounting.ContactStatusArchived, IsCustomer: true},
		},
	}
}

func validInvoice() *accounting.InvoicePayload {
	return &accounting.InvoicePayload{
		Contact: &accounting.ContactRef{ContactID: "c-001"},
		LineItems: []accounting.LineItem{
			{
				Description: "Widgets",
				Quantity:    decimal.NewFromInt(2),
				UnitAmount:  decimal.RequireFromString("50.00"),
				AccountCode: "200",
				TaxType:     "OUTPUT",
			},
		},
		Date:    "2026-01-15",
		DueDate: "2026-02-15",
	}
}

func TestValidateInvoiceValid(t *testing.T) {
	engine := NewEngine(Policy{})

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, validInvoice(), nil)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1.0, result.Score)
}

func TestValidateIsDeterministic(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.LineItems[0].AccountCode = "999"
	payload.LineItems[0].TaxType = "BOGUS"
	payload.Contact.ContactID = "c-404"

	first, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)
	second, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestValidIffNoErrors(t *testing.T) {
	engine := NewEngine(Policy{})

	payloads := []*accounting.InvoicePayload{
		validInvoice(),
		{}, // everything missing
		func() *accounting.InvoicePayload {
			p := validInvoice()
			p.LineItems[0].AccountCode = "260"
			return p
		}(),
		func() *accounting.InvoicePayload {
			p := validInvoice()
			p.Contact.ContactID = "c-004" // archived, warning only
			return p
		}(),
	}

	for _, p := range payloads {
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, p, nil)
		require.NoError(t, err)
		assert.Equal(t, len(result.Errors) == 0, result.Valid)
	}
}

func TestValidateArchivedAccount(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.LineItems[0].AccountCode = "260"

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Account code '260' is ARCHIVED")
	require.NotEmpty(t, result.Diff)
	assert.Equal(t, CategoryAccountArchived, result.Diff[0].Category)
	assert.Equal(t, "line_items[0].account_code", result.Diff[0].Field)
}

func TestValidateUnknownAccount(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.LineItems[0].AccountCode = "999"

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "Account code '999' not found")
	assert.Equal(t, CategoryAccountNotFound, result.Diff[0].Category)
}

func TestValidateInvalidTaxTypeListsValidSet(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.LineItems[0].TaxType = "LEGACYGST" // deleted rate

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Tax type 'LEGACYGST' is not valid for region AU")

	// One info entry carries the valid set so the agent can repair without
	// a follow-up call.
	var infoEntries []Diff
	for _, d := range result.Diff {
		if d.Severity == SeverityInfo {
			infoEntries = append(infoEntries, d)
		}
	}
	require.Len(t, infoEntries, 1)
	assert.Contains(t, infoEntries[0].Issue, "OUTPUT")
	assert.Contains(t, infoEntries[0].Issue, "INPUT")
	assert.NotContains(t, infoEntries[0].Issue, "LEGACYGST")
}

func TestValidateContactNotFound(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.Contact.ContactID = "c-404"

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "Contact 'c-404' not found")
	assert.Equal(t, CategoryContactNotFound, result.Diff[0].Category)
}

func TestValidateArchivedContactPolicy(t *testing.T) {
	payload := validInvoice()
	payload.Contact.ContactID = "c-004"

	t.Run("warning by default", func(t *testing.T) {
		engine := NewEngine(Policy{})
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
		require.NoError(t, err)

		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "Contact 'c-004' is ARCHIVED")
	})

	t.Run("error when escalated", func(t *testing.T) {
		engine := NewEngine(Policy{ArchivedContactIsError: true})
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
		require.NoError(t, err)

		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "Contact 'c-004' is ARCHIVED")
	})
}

func TestValidateTemporalOrder(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.Date = "2026-02-15"
	payload.DueDate = "2026-01-15"

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, CategoryTemporalOrder, result.Diff[0].Category)
	assert.Equal(t, "due_date", result.Diff[0].Field)
}

func TestValidateMalformedDateSuppressesOrderCheck(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.DueDate = "15/01/2026"

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CategoryMalformedField, result.Diff[0].Category)
	for _, d := range result.Diff {
		assert.NotEqual(t, CategoryTemporalOrder, d.Category)
	}
}

func TestValidateStructuralFailureSuppressesContextualCheck(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.LineItems[0].AccountCode = ""

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	// Only the missing-field error, never a not-found on top of it.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CategoryRequiredField, result.Diff[0].Category)
}

func TestScoreBoundsAndMonotonicity(t *testing.T) {
	engine := NewEngine(Policy{})

	clean, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, validInvoice(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, clean.Score)

	oneError := validInvoice()
	oneError.LineItems[0].AccountCode = "999"
	withOne, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, oneError, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.75, withOne.Score)

	twoErrors := validInvoice()
	twoErrors.LineItems[0].AccountCode = "999"
	twoErrors.Contact.ContactID = "c-404"
	withTwo, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, twoErrors, nil)
	require.NoError(t, err)
	assert.Less(t, withTwo.Score, withOne.Score)

	// A payload with enough errors to drive the score negative floors at zero.
	wrecked := &accounting.InvoicePayload{
		LineItems: []accounting.LineItem{
			{}, {}, {},
		},
	}
	floored, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, wrecked, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, floored.Score)
	assert.False(t, floored.Valid)
}

func TestWarningsReduceScoreWithoutInvalidating(t *testing.T) {
	engine := NewEngine(Policy{})
	payload := validInvoice()
	payload.Contact.ContactID = "c-004"

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, payload, nil)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, 0.95, result.Score)
}

func TestValidatePayment(t *testing.T) {
	engine := NewEngine(Policy{})
	refs := &ReferenceContext{
		InvoiceBalances: map[string]decimal.Decimal{
			"inv-1": decimal.RequireFromString("100.00"),
		},
		CreditNoteBalances: map[string]decimal.Decimal{
			"cn-1": decimal.RequireFromString("40.00"),
		},
	}

	base := func() *accounting.PaymentPayload {
		return &accounting.PaymentPayload{
			InvoiceID:   "inv-1",
			AccountCode: "090",
			Amount:      decimal.RequireFromString("60.00"),
			Date:        "2026-03-01",
		}
	}

	t.Run("valid", func(t *testing.T) {
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypePayment, base(), refs)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("requires exactly one target", func(t *testing.T) {
		p := base()
		p.InvoiceID = ""
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypePayment, p, refs)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, CategoryRequiredField, result.Diff[0].Category)

		p = base()
		p.CreditNoteID = "cn-1"
		result, err = engine.Validate(testSnapshot(), accounting.EntityTypePayment, p, refs)
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("account must be a bank account", func(t *testing.T) {
		p := base()
		p.AccountCode = "200"
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypePayment, p, refs)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, CategoryAccountTypeMismatch, result.Diff[0].Category)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		p := base()
		p.InvoiceID = "inv-404"
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypePayment, p, refs)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, CategoryReferenceNotFound, result.Diff[0].Category)
	})

	t.Run("amount exceeds balance", func(t *testing.T) {
		p := base()
		p.Amount = decimal.RequireFromString("150.00")
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypePayment, p, refs)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, CategoryAmountExceedsBalance, result.Diff[0].Category)
	})

	t.Run("credit note balance", func(t *testing.T) {
		p := base()
		p.InvoiceID = ""
		p.CreditNoteID = "cn-1"
		p.Amount = decimal.RequireFromString("50.00")
		result, err := engine.Validate(testSnapshot(), accounting.EntityTypePayment, p, refs)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, CategoryAmountExceedsBalance, result.Diff[0].Category)
	})
}

func TestValidateBankTransaction(t *testing.T) {
	engine := NewEngine(Policy{})

	payload := &accounting.BankTransactionPayload{
		Type:            accounting.BankTransactionSpend,
		BankAccountCode: "090",
		LineItems: []accounting.LineItem{
			{
				Description: "Ad spend",
				Quantity:    decimal.NewFromInt(1),
				UnitAmount:  decimal.RequireFromString("200.00"),
				AccountCode: "400",
				TaxType:     "INPUT",
			},
		},
		Date: "2026-04-01",
	}
	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeBankTransaction, payload, nil)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	payload.Type = "TRANSFER"
	result, err = engine.Validate(testSnapshot(), accounting.EntityTypeBankTransaction, payload, nil)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, CategoryMalformedField, result.Diff[0].Category)

	payload.Type = accounting.BankTransactionReceive
	payload.BankAccountCode = "091"
	result, err = engine.Validate(testSnapshot(), accounting.EntityTypeBankTransaction, payload, nil)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, CategoryAccountArchived, result.Diff[0].Category)
}

func TestValidateContactPayload(t *testing.T) {
	engine := NewEngine(Policy{})

	result, err := engine.Validate(testSnapshot(), accounting.EntityTypeContact, &accounting.ContactPayload{Name: "New Customer"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	result, err = engine.Validate(testSnapshot(), accounting.EntityTypeContact, &accounting.ContactPayload{}, nil)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, CategoryRequiredField, result.Diff[0].Category)

	result, err = engine.Validate(testSnapshot(), accounting.EntityTypeContact, &accounting.ContactPayload{Name: "X", Email: "not-an-address"}, nil)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, CategoryMalformedField, result.Diff[0].Category)
}

func TestValidateInfrastructureErrors(t *testing.T) {
	engine := NewEngine(Policy{})

	_, err := engine.Validate(nil, accounting.EntityTypeInvoice, validInvoice(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.GetCode(err))

	_, err = engine.Validate(testSnapshot(), accounting.EntityTypeInvoice, &accounting.QuotePayload{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidOperation, errors.GetCode(err))

	_, err = engine.Validate(testSnapshot(), accounting.EntityTypeAccount, validInvoice(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidOperation, errors.GetCode(err))
}
