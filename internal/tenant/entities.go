package tenant

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
)

// Invoice is a stored invoice with its computed monetary state.
type Invoice struct {
	InvoiceID string                 `json:"invoice_id"`
	Contact   accounting.ContactRef  `json:"contact"`
	LineItems []accounting.LineItem  `json:"line_items"`
	Date      string                 `json:"date"`
	DueDate   string                 `json:"due_date,omitempty"`
	Status    accounting.InvoiceStatus `json:"status"`
	Currency  string                 `json:"currency"`
	Reference string                 `json:"reference,omitempty"`
	SubTotal  decimal.Decimal        `json:"sub_total"`
	TotalTax  decimal.Decimal        `json:"total_tax"`
	Total     decimal.Decimal        `json:"total"`
	AmountDue decimal.Decimal        `json:"amount_due"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Quote is a stored quote.
type Quote struct {
	QuoteID    string                `json:"quote_id"`
	Contact    accounting.ContactRef `json:"contact"`
	LineItems  []accounting.LineItem `json:"line_items"`
	Date       string                `json:"date"`
	ExpiryDate string                `json:"expiry_date,omitempty"`
	Status     accounting.QuoteStatus `json:"status"`
	Currency   string                `json:"currency"`
	Title      string                `json:"title,omitempty"`
	SubTotal   decimal.Decimal       `json:"sub_total"`
	TotalTax   decimal.Decimal       `json:"total_tax"`
	Total      decimal.Decimal       `json:"total"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// CreditNote is a stored credit note. RemainingCredit decreases as the
// note is allocated against invoices or refunded by payments.
type CreditNote struct {
	CreditNoteID    string                `json:"credit_note_id"`
	Contact         accounting.ContactRef `json:"contact"`
	LineItems       []accounting.LineItem `json:"line_items"`
	Date            string                `json:"date"`
	Currency        string                `json:"currency"`
	Total           decimal.Decimal       `json:"total"`
	RemainingCredit decimal.Decimal       `json:"remaining_credit"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Payment is a stored payment.
type Payment struct {
	PaymentID    string          `json:"payment_id"`
	InvoiceID    string          `json:"invoice_id,omitempty"`
	CreditNoteID string          `json:"credit_note_id,omitempty"`
	AccountCode  string          `json:"account_code"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	Reference    string          `json:"reference,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BankTransaction is a stored bank transaction.
type BankTransaction struct {
	BankTransactionID string                         `json:"bank_transaction_id"`
	Type              accounting.BankTransactionType `json:"type"`
	Contact           *accounting.ContactRef         `json:"contact,omitempty"`
	BankAccountCode   string                         `json:"bank_account_code"`
	LineItems         []accounting.LineItem          `json:"line_items"`
	Date              string                         `json:"date"`
	Total             decimal.Decimal                `json:"total"`
	CreatedAt         time.Time                      `json:"created_at"`
}
