package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the kind of accounting entity a payload or
// introspection request refers to. The set is closed; tool handlers reject
// anything else before it reaches the validation engine.
type EntityType string

const (
	EntityTypeInvoice         EntityType = "Invoice"
	EntityTypeContact         EntityType = "Contact"
	EntityTypeQuote           EntityType = "Quote"
	EntityTypeCreditNote      EntityType = "CreditNote"
	EntityTypePayment         EntityType = "Payment"
	EntityTypeBankTransaction EntityType = "BankTransaction"
	EntityTypeAccount         EntityType = "Account"
	EntityTypeTaxRate         EntityType = "TaxRate"
)

// KnownEntityTypes lists every valid EntityType in a stable order.
var KnownEntityTypes = []EntityType{
	EntityTypeInvoice,
	EntityTypeContact,
	EntityTypeQuote,
	EntityTypeCreditNote,
	EntityTypePayment,
	EntityTypeBankTransaction,
	EntityTypeAccount,
	EntityTypeTaxRate,
}

// IsKnownEntityType reports whether s names a member of the closed enum.
func IsKnownEntityType(s string) bool {
	for _, t := range KnownEntityTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// AccountType classifies a ledger account within a tenant's chart of accounts.
type AccountType string

const (
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeBank      AccountType = "BANK"
	AccountTypeCurrent   AccountType = "CURRENT"
	AccountTypeFixed     AccountType = "FIXED"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
)

// AccountStatus is the lifecycle state of a ledger account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusArchived AccountStatus = "ARCHIVED"
)

// Account is one entry in a tenant's chart of accounts. Code is unique
// within the tenant and is the value line items reference.
type Account struct {
	Code   string        `json:"code"`
	Name   string        `json:"name"`
	Type   AccountType   `json:"type"`
	Status AccountStatus `json:"status"`
}

// TaxRateStatus is the lifecycle state of a tax rate.
type TaxRateStatus string

const (
	TaxRateStatusActive  TaxRateStatus = "ACTIVE"
	TaxRateStatusDeleted TaxRateStatus = "DELETED"
)

// TaxRate is a tenant- and region-scoped tax configuration entry.
// TaxType is unique within a tenant's region.
type TaxRate struct {
	TaxType string          `json:"tax_type"`
	Name    string          `json:"name"`
	Rate    decimal.Decimal `json:"rate"`
	Status  TaxRateStatus   `json:"status"`
}

// ContactStatus is the lifecycle state of a contact.
type ContactStatus string

const (
	ContactStatusActive   ContactStatus = "ACTIVE"
	ContactStatusArchived ContactStatus = "ARCHIVED"
)

// Contact is a customer or supplier belonging to a tenant.
type Contact struct {
	ContactID  string        `json:"contact_id"`
	Name       string        `json:"name"`
	Email      string        `json:"email,omitempty"`
	Status     ContactStatus `json:"status"`
	IsCustomer bool          `json:"is_customer"`
	IsSupplier bool          `json:"is_supplier"`
}

// TenantSnapshot is a point-in-time view of one tenant's live configuration.
// The validation core treats it as read-only ground truth; it is re-fetched
// for every validation call and never cached across calls.
type TenantSnapshot struct {
	TenantID string    `json:"tenant_id"`
	Region   string    `json:"region"`
	Currency string    `json:"currency"`
	Accounts []Account `json:"accounts"`
	TaxRates []TaxRate `json:"tax_rates"`
	Contacts []Contact `json:"contacts"`
}

// ActiveTaxTypes returns the tax types accepted for this tenant's region,
// derived from the snapshot. There is deliberately no hardcoded regional
// default: an empty slice means no tax type is valid.
func (s *TenantSnapshot) ActiveTaxTypes() []string {
	var types []string
	for _, r := range s.TaxRates {
		if r.Status == TaxRateStatusActive {
			types = append(types, r.TaxType)
		}
	}
	return types
}

// FindAccount looks up an account by code. Returns nil when absent.
func (s *TenantSnapshot) FindAccount(code string) *Account {
	for i := range s.Accounts {
		if s.Accounts[i].Code == code {
			return &s.Accounts[i]
		}
	}
	return nil
}

// FindContact looks up a contact by ID. Returns nil when absent.
func (s *TenantSnapshot) FindContact(id string) *Contact {
	for i := range s.Contacts {
		if s.Contacts[i].ContactID == id {
			return &s.Contacts[i]
		}
	}
	return nil
}

// ContactRef is how payloads reference a contact.
type ContactRef struct {
	ContactID string `json:"contact_id" mapstructure:"contact_id"`
	Name      string `json:"name,omitempty" mapstructure:"name"`
}

// LineItem is one line on an invoice, quote, credit note, or bank
// transaction. AccountCode and TaxType reference tenant configuration and
// are what the contextual validation pass cross-checks.
type LineItem struct {
	Description string          `json:"description" mapstructure:"description"`
	Quantity    decimal.Decimal `json:"quantity" mapstructure:"quantity"`
	UnitAmount  decimal.Decimal `json:"unit_amount" mapstructure:"unit_amount"`
	AccountCode string          `json:"account_code" mapstructure:"account_code"`
	TaxType     string          `json:"tax_type,omitempty" mapstructure:"tax_type"`
}

// Total returns quantity * unit_amount for the line.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitAmount)
}

// InvoiceStatus enumerates the invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft      InvoiceStatus = "DRAFT"
	InvoiceStatusSubmitted  InvoiceStatus = "SUBMITTED"
	InvoiceStatusAuthorised InvoiceStatus = "AUTHORISED"
	InvoiceStatusPaid       InvoiceStatus = "PAID"
	InvoiceStatusVoided     InvoiceStatus = "VOIDED"
)

// InvoicePayload is the (possibly partial) invoice shape accepted by the
// write tools and checked by the validation engine.
type InvoicePayload struct {
	InvoiceID string        `json:"invoice_id,omitempty" mapstructure:"invoice_id"`
	Contact   *ContactRef   `json:"contact,omitempty" mapstructure:"contact"`
	LineItems []LineItem    `json:"line_items,omitempty" mapstructure:"line_items"`
	Date      string        `json:"date,omitempty" mapstructure:"date"`
	DueDate   string        `json:"due_date,omitempty" mapstructure:"due_date"`
	Status    InvoiceStatus `json:"status,omitempty" mapstructure:"status"`
	Currency  string        `json:"currency,omitempty" mapstructure:"currency"`
	Reference string        `json:"reference,omitempty" mapstructure:"reference"`
}

// QuoteStatus enumerates the quote lifecycle.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusDeclined QuoteStatus = "DECLINED"
)

// QuotePayload is the quote shape accepted by the write tools.
type QuotePayload struct {
	QuoteID    string      `json:"quote_id,omitempty" mapstructure:"quote_id"`
	Contact    *ContactRef `json:"contact,omitempty" mapstructure:"contact"`
	LineItems  []LineItem  `json:"line_items,omitempty" mapstructure:"line_items"`
	Date       string      `json:"date,omitempty" mapstructure:"date"`
	ExpiryDate string      `json:"expiry_date,omitempty" mapstructure:"expiry_date"`
	Status     QuoteStatus `json:"status,omitempty" mapstructure:"status"`
	Currency   string      `json:"currency,omitempty" mapstructure:"currency"`
	Title      string      `json:"title,omitempty" mapstructure:"title"`
}

// CreditNotePayload is the credit note shape accepted by the write tools.
type CreditNotePayload struct {
	CreditNoteID string      `json:"credit_note_id,omitempty" mapstructure:"credit_note_id"`
	Contact      *ContactRef `json:"contact,omitempty" mapstructure:"contact"`
	LineItems    []LineItem  `json:"line_items,omitempty" mapstructure:"line_items"`
	Date         string      `json:"date,omitempty" mapstructure:"date"`
	Currency     string      `json:"currency,omitempty" mapstructure:"currency"`
}

// PaymentPayload applies money against an invoice or credit note through a
// bank account.
type PaymentPayload struct {
	PaymentID    string          `json:"payment_id,omitempty" mapstructure:"payment_id"`
	InvoiceID    string          `json:"invoice_id,omitempty" mapstructure:"invoice_id"`
	CreditNoteID string          `json:"credit_note_id,omitempty" mapstructure:"credit_note_id"`
	AccountCode  string          `json:"account_code,omitempty" mapstructure:"account_code"`
	Amount       decimal.Decimal `json:"amount" mapstructure:"amount"`
	Date         string          `json:"date,omitempty" mapstructure:"date"`
	Reference    string          `json:"reference,omitempty" mapstructure:"reference"`
}

// BankTransactionType distinguishes money in from money out.
type BankTransactionType string

const (
	BankTransactionSpend   BankTransactionType = "SPEND"
	BankTransactionReceive BankTransactionType = "RECEIVE"
)

// BankTransactionPayload is the bank transaction shape accepted by the
// write tools.
type BankTransactionPayload struct {
	BankTransactionID string              `json:"bank_transaction_id,omitempty" mapstructure:"bank_transaction_id"`
	Type              BankTransactionType `json:"type,omitempty" mapstructure:"type"`
	Contact           *ContactRef         `json:"contact,omitempty" mapstructure:"contact"`
	BankAccountCode   string              `json:"bank_account_code,omitempty" mapstructure:"bank_account_code"`
	LineItems         []LineItem          `json:"line_items,omitempty" mapstructure:"line_items"`
	Date              string              `json:"date,omitempty" mapstructure:"date"`
}

// ContactPayload is the contact shape accepted by the write tools. The
// customer/supplier flags are pointers so a partial update can tell an
// absent flag apart from an explicit false.
type ContactPayload struct {
	ContactID  string `json:"contact_id,omitempty" mapstructure:"contact_id"`
	Name       string `json:"name,omitempty" mapstructure:"name"`
	Email      string `json:"email,omitempty" mapstructure:"email"`
	IsCustomer *bool  `json:"is_customer,omitempty" mapstructure:"is_customer"`
	IsSupplier *bool  `json:"is_supplier,omitempty" mapstructure:"is_supplier"`
}

// EnumFilter narrows an introspection result. Fields combine conjunctively;
// the zero value matches everything. Values returned under a filter are in
// the exact shape the validation engine accepts on input, so an agent can
// copy a returned code or tax type verbatim into a retry payload.
type EnumFilter struct {
	Type       string `json:"type,omitempty" mapstructure:"type"`
	Status     string `json:"status,omitempty" mapstructure:"status"`
	IsCustomer *bool  `json:"is_customer,omitempty" mapstructure:"is_customer"`
	IsSupplier *bool  `json:"is_supplier,omitempty" mapstructure:"is_supplier"`
}

// DateFormat is the wire format for all entity dates.
const DateFormat = "2006-01-02"

// ParseDate parses a wire-format date. The bool is false for empty or
// malformed input.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
