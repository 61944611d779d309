package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// Policy carries the configurable validation behaviors that are policy
// decisions rather than hard rules.
type Policy struct {
	// ArchivedContactIsError escalates references to archived contacts
	// from warnings to hard errors.
	ArchivedContactIsError bool
}

// ReferenceContext supplies cross-entity state the snapshot does not
// carry: remaining balances for payment allocation checks. A nil context
// (or a nil map) skips those checks.
type ReferenceContext struct {
	// InvoiceBalances maps invoice_id to its remaining balance.
	InvoiceBalances map[string]decimal.Decimal
	// CreditNoteBalances maps credit_note_id to its remaining balance.
	CreditNoteBalances map[string]decimal.Decimal
}

// Engine validates entity payloads against a tenant snapshot. It is a pure
// computation over its inputs: no stores, no caching, no retries. It never
// returns a Go error for a bad payload; the Result reports that. The only
// error paths are infrastructure faults (nil snapshot, unsupported entity
// type).
type Engine struct {
	policy Policy
}

// NewEngine creates a validation engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Validate runs the structural pass, then the contextual pass, and
// assembles a Result. Structural errors on a field suppress contextual
// checks on that same field but never halt validation of other fields.
func (e *Engine) Validate(snap *accounting.TenantSnapshot, entityType accounting.EntityType, payload any, refs *ReferenceContext) (*Result, error) {
	if snap == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "tenant snapshot unavailable")
	}

	c := &collector{}

	switch entityType {
	case accounting.EntityTypeInvoice:
		p, ok := payload.(*accounting.InvoicePayload)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidOperation, "payload does not match entity type %s", entityType)
		}
		e.validateInvoice(c, snap, p)
	case accounting.EntityTypeQuote:
		p, ok := payload.(*accounting.QuotePayload)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidOperation, "payload does not match entity type %s", entityType)
		}
		e.validateQuote(c, snap, p)
	case accounting.EntityTypeCreditNote:
		p, ok := payload.(*accounting.CreditNotePayload)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidOperation, "payload does not match entity type %s", entityType)
		}
		e.validateCreditNote(c, snap, p)
	case accounting.EntityTypePayment:
		p, ok := payload.(*accounting.PaymentPayload)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidOperation, "payload does not match entity type %s", entityType)
		}
		e.validatePayment(c, snap, p, refs)
	case accounting.EntityTypeBankTransaction:
		p, ok := payload.(*accounting.BankTransactionPayload)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidOperation, "payload does not match entity type %s", entityType)
		}
		e.validateBankTransaction(c, snap, p)
	case accounting.EntityTypeContact:
		p, ok := payload.(*accounting.ContactPayload)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidOperation, "payload does not match entity type %s", entityType)
		}
		e.validateContactPayload(c, p)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidOperation, "entity type %s cannot be validated as a payload", entityType)
	}

	return c.result(), nil
}

// --- entity validators -------------------------------------------------

func (e *Engine) validateInvoice(c *collector, snap *accounting.TenantSnapshot, p *accounting.InvoicePayload) {
	// Structural pass.
	e.checkContactRequired(c, p.Contact)
	e.checkLineItemsStructure(c, "line_items", p.LineItems, true)
	dateOK := e.checkDateFormat(c, "date", p.Date)
	dueOK := e.checkDateFormat(c, "due_date", p.DueDate)
	if p.Status != "" {
		switch p.Status {
		case accounting.InvoiceStatusDraft, accounting.InvoiceStatusSubmitted,
			accounting.InvoiceStatusAuthorised, accounting.InvoiceStatusPaid,
			accounting.InvoiceStatusVoided:
		default:
			c.add(Diff{
				Field:    "status",
				Issue:    fmt.Sprintf("Status '%s' is not a valid invoice status", p.Status),
				Category: CategoryMalformedField,
				Expected: "one of DRAFT, SUBMITTED, AUTHORISED, PAID, VOIDED",
				Received: string(p.Status),
				Severity: SeverityError,
			})
		}
	}

	// Contextual pass.
	e.checkContactAgainstSnapshot(c, snap, p.Contact)
	e.checkLineItemsAgainstSnapshot(c, snap, "line_items", p.LineItems)
	e.checkDateOrder(c, "due_date", p.Date, dateOK, p.DueDate, dueOK, "Due date cannot be before the invoice date")
}

func (e *Engine) validateQuote(c *collector, snap *accounting.TenantSnapshot, p *accounting.QuotePayload) {
	e.checkContactRequired(c, p.Contact)
	e.checkLineItemsStructure(c, "line_items", p.LineItems, true)
	dateOK := e.checkDateFormat(c, "date", p.Date)
	expiryOK := e.checkDateFormat(c, "expiry_date", p.ExpiryDate)
	if p.Status != "" {
		switch p.Status {
		case accounting.QuoteStatusDraft, accounting.QuoteStatusSent,
			accounting.QuoteStatusAccepted, accounting.QuoteStatusDeclined:
		default:
			c.add(Diff{
				Field:    "status",
				Issue:    fmt.Sprintf("Status '%s' is not a valid quote status", p.Status),
				Category: CategoryMalformedField,
				Expected: "one of DRAFT, SENT, ACCEPTED, DECLINED",
				Received: string(p.Status),
				Severity: SeverityError,
			})
		}
	}

	e.checkContactAgainstSnapshot(c, snap, p.Contact)
	e.checkLineItemsAgainstSnapshot(c, snap, "line_items", p.LineItems)
	e.checkDateOrder(c, "expiry_date", p.Date, dateOK, p.ExpiryDate, expiryOK, "Expiry date cannot be before the quote date")
}

func (e *Engine) validateCreditNote(c *collector, snap *accounting.TenantSnapshot, p *accounting.CreditNotePayload) {
	e.checkContactRequired(c, p.Contact)
	e.checkLineItemsStructure(c, "line_items", p.LineItems, true)
	e.checkDateFormat(c, "date", p.Date)

	e.checkContactAgainstSnapshot(c, snap, p.Contact)
	e.checkLineItemsAgainstSnapshot(c, snap, "line_items", p.LineItems)
}

func (e *Engine) validatePayment(c *collector, snap *accounting.TenantSnapshot, p *accounting.PaymentPayload, refs *ReferenceContext) {
	// Structural pass.
	if p.InvoiceID == "" && p.CreditNoteID == "" {
		c.errorf("invoice_id", CategoryRequiredField, "Payment requires an invoice_id or a credit_note_id")
	}
	if p.InvoiceID != "" && p.CreditNoteID != "" {
		c.errorf("credit_note_id", CategoryMalformedField, "Payment cannot reference both an invoice and a credit note")
	}
	if p.AccountCode == "" {
		c.errorf("account_code", CategoryRequiredField, "Payment requires an account_code")
	}
	if !p.Amount.IsPositive() {
		c.add(Diff{
			Field:    "amount",
			Issue:    "Payment amount must be greater than zero",
			Category: CategoryMalformedField,
			Received: p.Amount.String(),
			Severity: SeverityError,
		})
	}
	e.checkDateFormat(c, "date", p.Date)

	// Contextual pass. Payments settle through a bank account.
	if p.AccountCode != "" {
		e.checkAccountCode(c, snap, "account_code", p.AccountCode, accounting.AccountTypeBank)
	}
	if refs != nil {
		if p.InvoiceID != "" && !c.hasError("invoice_id") {
			balance, found := refs.InvoiceBalances[p.InvoiceID]
			if !found {
				c.add(Diff{
					Field:    "invoice_id",
					Issue:    fmt.Sprintf("Invoice '%s' not found", p.InvoiceID),
					Category: CategoryReferenceNotFound,
					Received: p.InvoiceID,
					Severity: SeverityError,
				})
			} else if !c.hasError("amount") && p.Amount.GreaterThan(balance) {
				c.add(Diff{
					Field:    "amount",
					Issue:    fmt.Sprintf("Payment amount %s exceeds the remaining invoice balance %s", p.Amount.String(), balance.String()),
					Category: CategoryAmountExceedsBalance,
					Expected: "at most " + balance.String(),
					Received: p.Amount.String(),
					Severity: SeverityError,
				})
			}
		}
		if p.CreditNoteID != "" && !c.hasError("credit_note_id") {
			balance, found := refs.CreditNoteBalances[p.CreditNoteID]
			if !found {
				c.add(Diff{
					Field:    "credit_note_id",
					Issue:    fmt.Sprintf("Credit note '%s' not found", p.CreditNoteID),
					Category: CategoryReferenceNotFound,
					Received: p.CreditNoteID,
					Severity: SeverityError,
				})
			} else if !c.hasError("amount") && p.Amount.GreaterThan(balance) {
				c.add(Diff{
					Field:    "amount",
					Issue:    fmt.Sprintf("Payment amount %s exceeds the remaining credit note balance %s", p.Amount.String(), balance.String()),
					Category: CategoryAmountExceedsBalance,
					Expected: "at most " + balance.String(),
					Received: p.Amount.String(),
					Severity: SeverityError,
				})
			}
		}
	}
}

func (e *Engine) validateBankTransaction(c *collector, snap *accounting.TenantSnapshot, p *accounting.BankTransactionPayload) {
	if p.Type == "" {
		c.errorf("type", CategoryRequiredField, "Bank transaction requires a type")
	} else if p.Type != accounting.BankTransactionSpend && p.Type != accounting.BankTransactionReceive {
		c.add(Diff{
			Field:    "type",
			Issue:    fmt.Sprintf("Type '%s' is not a valid bank transaction type", p.Type),
			Category: CategoryMalformedField,
			Expected: "SPEND or RECEIVE",
			Received: string(p.Type),
			Severity: SeverityError,
		})
	}
	if p.BankAccountCode == "" {
		c.errorf("bank_account_code", CategoryRequiredField, "Bank transaction requires a bank_account_code")
	}
	e.checkLineItemsStructure(c, "line_items", p.LineItems, true)
	e.checkDateFormat(c, "date", p.Date)

	if p.BankAccountCode != "" {
		e.checkAccountCode(c, snap, "bank_account_code", p.BankAccountCode, accounting.AccountTypeBank)
	}
	e.checkContactAgainstSnapshot(c, snap, p.Contact)
	e.checkLineItemsAgainstSnapshot(c, snap, "line_items", p.LineItems)
}

func (e *Engine) validateContactPayload(c *collector, p *accounting.ContactPayload) {
	if strings.TrimSpace(p.Name) == "" {
		c.errorf("name", CategoryRequiredField, "Contact requires a name")
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		c.add(Diff{
			Field:    "email",
			Issue:    fmt.Sprintf("Email '%s' is not a valid address", p.Email),
			Category: CategoryMalformedField,
			Received: p.Email,
			Severity: SeverityError,
		})
	}
}

// --- shared checks ------------------------------------------------------

func (e *Engine) checkContactRequired(c *collector, ref *accounting.ContactRef) {
	if ref == nil {
		c.errorf("contact", CategoryRequiredField, "Contact is required")
		return
	}
	if ref.ContactID == "" {
		c.errorf("contact.contact_id", CategoryRequiredField, "contact.contact_id is required")
	}
}

func (e *Engine) checkContactAgainstSnapshot(c *collector, snap *accounting.TenantSnapshot, ref *accounting.ContactRef) {
	if ref == nil || ref.ContactID == "" {
		return // structural failure already recorded, or contact optional
	}
	contact := snap.FindContact(ref.ContactID)
	if contact == nil {
		c.add(Diff{
			Field:    "contact.contact_id",
			Issue:    fmt.Sprintf("Contact '%s' not found", ref.ContactID),
			Category: CategoryContactNotFound,
			Received: ref.ContactID,
			Severity: SeverityError,
		})
		return
	}
	if contact.Status == accounting.ContactStatusArchived {
		severity := SeverityWarning
		if e.policy.ArchivedContactIsError {
			severity = SeverityError
		}
		c.add(Diff{
			Field:    "contact.contact_id",
			Issue:    fmt.Sprintf("Contact '%s' is ARCHIVED", ref.ContactID),
			Category: CategoryContactArchived,
			Received: ref.ContactID,
			Severity: severity,
		})
	}
}

// checkLineItemsStructure runs the structural checks on each line item.
func (e *Engine) checkLineItemsStructure(c *collector, field string, items []accounting.LineItem, required bool) {
	if len(items) == 0 {
		if required {
			c.errorf(field, CategoryRequiredField, "At least one line item is required")
		}
		return
	}
	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(item.Description) == "" {
			c.errorf(prefix+".description", CategoryRequiredField, fmt.Sprintf("Line item %d requires a description", i))
		}
		if !item.Quantity.IsPositive() {
			c.add(Diff{
				Field:    prefix + ".quantity",
				Issue:    fmt.Sprintf("Line item %d quantity must be greater than zero", i),
				Category: CategoryMalformedField,
				Received: item.Quantity.String(),
				Severity: SeverityError,
			})
		}
		if item.AccountCode == "" {
			c.errorf(prefix+".account_code", CategoryRequiredField, fmt.Sprintf("Line item %d requires an account_code", i))
		}
	}
}

// checkLineItemsAgainstSnapshot cross-references account codes and tax
// types on each line against the tenant configuration. Lines whose
// account_code failed structurally are skipped for that field only.
func (e *Engine) checkLineItemsAgainstSnapshot(c *collector, snap *accounting.TenantSnapshot, field string, items []accounting.LineItem) {
	validTaxTypes := snap.ActiveTaxTypes()
	taxTypeListed := false

	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", field, i)

		if item.AccountCode != "" && !c.hasError(prefix+".account_code") {
			e.checkAccountCode(c, snap, prefix+".account_code", item.AccountCode, "")
		}

		if item.TaxType == "" {
			continue
		}
		if containsString(validTaxTypes, item.TaxType) {
			continue
		}
		c.add(Diff{
			Field:    prefix + ".tax_type",
			Issue:    fmt.Sprintf("Tax type '%s' is not valid for region %s", item.TaxType, snap.Region),
			Category: CategoryTaxTypeInvalid,
			Expected: strings.Join(validTaxTypes, ", "),
			Received: item.TaxType,
			Severity: SeverityError,
		})
		if !taxTypeListed {
			// Surface the valid set once per result so the agent can
			// repair without a follow-up call.
			c.add(Diff{
				Field:    prefix + ".tax_type",
				Issue:    fmt.Sprintf("Valid tax types for region %s: %s", snap.Region, strings.Join(validTaxTypes, ", ")),
				Category: CategoryTaxTypeInvalid,
				Severity: SeverityInfo,
			})
			taxTypeListed = true
		}
	}
}

// checkAccountCode verifies that a code exists, is not archived, and (when
// wantType is non-empty) has the expected account type.
func (e *Engine) checkAccountCode(c *collector, snap *accounting.TenantSnapshot, field, code string, wantType accounting.AccountType) {
	account := snap.FindAccount(code)
	if account == nil {
		c.add(Diff{
			Field:    field,
			Issue:    fmt.Sprintf("Account code '%s' not found", code),
			Category: CategoryAccountNotFound,
			Received: code,
			Severity: SeverityError,
		})
		return
	}
	if account.Status == accounting.AccountStatusArchived {
		c.add(Diff{
			Field:    field,
			Issue:    fmt.Sprintf("Account code '%s' is ARCHIVED", code),
			Category: CategoryAccountArchived,
			Received: code,
			Severity: SeverityError,
		})
		return
	}
	if wantType != "" && account.Type != wantType {
		c.add(Diff{
			Field:    field,
			Issue:    fmt.Sprintf("Account code '%s' is type %s, expected %s", code, account.Type, wantType),
			Category: CategoryAccountTypeMismatch,
			Expected: string(wantType),
			Received: string(account.Type),
			Severity: SeverityError,
		})
	}
}

// checkDateFormat validates an optional wire-format date. Returns true
// when the field is present and well-formed.
func (e *Engine) checkDateFormat(c *collector, field, value string) bool {
	if value == "" {
		return false
	}
	if _, ok := accounting.ParseDate(value); !ok {
		c.add(Diff{
			Field:    field,
			Issue:    fmt.Sprintf("Date '%s' is not in %s format", value, accounting.DateFormat),
			Category: CategoryMalformedField,
			Expected: accounting.DateFormat,
			Received: value,
			Severity: SeverityError,
		})
		return false
	}
	return true
}

// checkDateOrder flags laterField earlier than baseField. Both fields must
// have passed the structural format check.
func (e *Engine) checkDateOrder(c *collector, laterField, baseValue string, baseOK bool, laterValue string, laterOK bool, issue string) {
	if !baseOK || !laterOK {
		return
	}
	base, _ := accounting.ParseDate(baseValue)
	later, _ := accounting.ParseDate(laterValue)
	if later.Before(base) {
		c.add(Diff{
			Field:    laterField,
			Issue:    issue,
			Category: CategoryTemporalOrder,
			Expected: "on or after " + baseValue,
			Received: laterValue,
			Severity: SeverityError,
		})
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
