package tenant

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// tenantState holds one tenant's configuration plus the entities created
// through the write tools. Guarded by its own lock so concurrent calls for
// different tenants never contend.
type tenantState struct {
	mu sync.RWMutex

	info     Info
	accounts []accounting.Account
	taxRates []accounting.TaxRate
	contacts []accounting.Contact

	invoices         map[string]*Invoice
	quotes           map[string]*Quote
	creditNotes      map[string]*CreditNote
	payments         map[string]*Payment
	bankTransactions map[string]*BankTransaction

	contactSeq int
}

func newTenantState(info Info, accounts []accounting.Account, taxRates []accounting.TaxRate, contacts []accounting.Contact) *tenantState {
	return &tenantState{
		info:             info,
		accounts:         accounts,
		taxRates:         taxRates,
		contacts:         contacts,
		invoices:         make(map[string]*Invoice),
		quotes:           make(map[string]*Quote),
		creditNotes:      make(map[string]*CreditNote),
		payments:         make(map[string]*Payment),
		bankTransactions: make(map[string]*BankTransaction),
		contactSeq:       len(contacts),
	}
}

// Directory is the in-process tenant registry backing the sandbox. It
// implements Provider and additionally exposes the entity mutations the
// write tools need.
type Directory struct {
	tenants map[string]*tenantState
	order   []string
}

var _ Provider = (*Directory)(nil)

// NewDirectory creates a directory populated with the seeded sandbox
// tenants.
func NewDirectory() *Directory {
	d := &Directory{tenants: make(map[string]*tenantState)}
	for _, st := range seedTenants() {
		d.tenants[st.info.TenantID] = st
		d.order = append(d.order, st.info.TenantID)
	}
	return d
}

func (d *Directory) lookup(tenantID string) (*tenantState, error) {
	st, ok := d.tenants[tenantID]
	if !ok {
		return nil, errors.TenantNotFound(tenantID)
	}
	return st, nil
}

// GetSnapshot returns a fresh point-in-time copy of the tenant's
// configuration. Callers own the copy; mutating it never affects the
// directory.
func (d *Directory) GetSnapshot(ctx context.Context, tenantID string) (*accounting.TenantSnapshot, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := &accounting.TenantSnapshot{
		TenantID: st.info.TenantID,
		Region:   st.info.Region,
		Currency: st.info.Currency,
		Accounts: append([]accounting.Account(nil), st.accounts...),
		TaxRates: append([]accounting.TaxRate(nil), st.taxRates...),
		Contacts: append([]accounting.Contact(nil), st.contacts...),
	}
	return snap, nil
}

// ListTenants returns tenant directory entries in seed order.
func (d *Directory) ListTenants(ctx context.Context) []Info {
	infos := make([]Info, 0, len(d.order))
	for _, id := range d.order {
		infos = append(infos, d.tenants[id].info)
	}
	return infos
}

// --- contacts ------------------------------------------------------------

// CreateContact adds a contact, assigning an ID when none is supplied.
func (d *Directory) CreateContact(tenantID string, contact accounting.Contact) (accounting.Contact, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return accounting.Contact{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if contact.ContactID == "" {
		st.contactSeq++
		contact.ContactID = fmt.Sprintf("c-%s-%04d", regionSlug(st.info.Region), st.contactSeq)
	}
	for _, existing := range st.contacts {
		if existing.ContactID == contact.ContactID {
			return accounting.Contact{}, errors.AlreadyExists(fmt.Sprintf("Contact '%s'", contact.ContactID))
		}
	}
	if contact.Status == "" {
		contact.Status = accounting.ContactStatusActive
	}
	st.contacts = append(st.contacts, contact)
	return contact, nil
}

// GetContact returns a contact by ID.
func (d *Directory) GetContact(tenantID, contactID string) (accounting.Contact, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return accounting.Contact{}, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	for _, c := range st.contacts {
		if c.ContactID == contactID {
			return c, nil
		}
	}
	return accounting.Contact{}, errors.NotFound(fmt.Sprintf("Contact '%s'", contactID))
}

// UpdateContact merges the supplied fields into an existing contact.
// Absent fields keep their stored values.
func (d *Directory) UpdateContact(tenantID string, update accounting.ContactPayload) (accounting.Contact, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return accounting.Contact{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for i := range st.contacts {
		if st.contacts[i].ContactID != update.ContactID {
			continue
		}
		if update.Name != "" {
			st.contacts[i].Name = update.Name
		}
		if update.Email != "" {
			st.contacts[i].Email = update.Email
		}
		if update.IsCustomer != nil {
			st.contacts[i].IsCustomer = *update.IsCustomer
		}
		if update.IsSupplier != nil {
			st.contacts[i].IsSupplier = *update.IsSupplier
		}
		return st.contacts[i], nil
	}
	return accounting.Contact{}, errors.NotFound(fmt.Sprintf("Contact '%s'", update.ContactID))
}

// ArchiveContact marks a contact ARCHIVED. Archiving twice is a state
// conflict.
func (d *Directory) ArchiveContact(tenantID, contactID string) (accounting.Contact, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return accounting.Contact{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for i := range st.contacts {
		if st.contacts[i].ContactID != contactID {
			continue
		}
		if st.contacts[i].Status == accounting.ContactStatusArchived {
			return accounting.Contact{}, errors.Newf(errors.ErrCodeStateConflict, "Contact '%s' is already archived", contactID)
		}
		st.contacts[i].Status = accounting.ContactStatusArchived
		return st.contacts[i], nil
	}
	return accounting.Contact{}, errors.NotFound(fmt.Sprintf("Contact '%s'", contactID))
}

// --- invoices ------------------------------------------------------------

// SaveInvoice upserts an invoice record.
func (d *Directory) SaveInvoice(tenantID string, inv *Invoice) error {
	st, err := d.lookup(tenantID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.invoices[inv.InvoiceID] = inv
	return nil
}

// GetInvoice returns an invoice by ID.
func (d *Directory) GetInvoice(tenantID, invoiceID string) (*Invoice, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	inv, ok := st.invoices[invoiceID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Invoice '%s'", invoiceID))
	}
	copied := *inv
	return &copied, nil
}

// ListInvoices returns invoices, optionally filtered by status, ordered by
// creation time then ID for deterministic output.
func (d *Directory) ListInvoices(tenantID string, status accounting.InvoiceStatus) ([]Invoice, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	results := []Invoice{}
	for _, inv := range st.invoices {
		if status != "" && inv.Status != status {
			continue
		}
		results = append(results, *inv)
	}
	sortByCreated(results, func(i Invoice) (time.Time, string) { return i.CreatedAt, i.InvoiceID })
	return results, nil
}

// InvoiceBalances returns the remaining balance of every invoice, keyed by
// invoice_id, for payment validation.
func (d *Directory) InvoiceBalances(tenantID string) (map[string]decimal.Decimal, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	balances := make(map[string]decimal.Decimal, len(st.invoices))
	for id, inv := range st.invoices {
		balances[id] = inv.AmountDue
	}
	return balances, nil
}

// --- quotes --------------------------------------------------------------

// SaveQuote upserts a quote record.
func (d *Directory) SaveQuote(tenantID string, q *Quote) error {
	st, err := d.lookup(tenantID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.quotes[q.QuoteID] = q
	return nil
}

// GetQuote returns a quote by ID.
func (d *Directory) GetQuote(tenantID, quoteID string) (*Quote, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	q, ok := st.quotes[quoteID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Quote '%s'", quoteID))
	}
	copied := *q
	return &copied, nil
}

// quoteTransitions is the allowed lifecycle: DRAFT→SENT→ACCEPTED|DECLINED.
var quoteTransitions = map[accounting.QuoteStatus][]accounting.QuoteStatus{
	accounting.QuoteStatusDraft: {accounting.QuoteStatusSent},
	accounting.QuoteStatusSent:  {accounting.QuoteStatusAccepted, accounting.QuoteStatusDeclined},
}

// UpdateQuoteStatus drives the quote lifecycle; invalid transitions fail
// with a state conflict.
func (d *Directory) UpdateQuoteStatus(tenantID, quoteID string, status accounting.QuoteStatus) (*Quote, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	q, ok := st.quotes[quoteID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Quote '%s'", quoteID))
	}

	allowed := quoteTransitions[q.Status]
	for _, next := range allowed {
		if next == status {
			q.Status = status
			q.UpdatedAt = time.Now().UTC()
			copied := *q
			return &copied, nil
		}
	}
	return nil, errors.Newf(errors.ErrCodeStateConflict, "Quote '%s' cannot transition from %s to %s", quoteID, q.Status, status)
}

// --- credit notes ----------------------------------------------------------

// SaveCreditNote upserts a credit note record.
func (d *Directory) SaveCreditNote(tenantID string, cn *CreditNote) error {
	st, err := d.lookup(tenantID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.creditNotes[cn.CreditNoteID] = cn
	return nil
}

// GetCreditNote returns a credit note by ID.
func (d *Directory) GetCreditNote(tenantID, creditNoteID string) (*CreditNote, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	cn, ok := st.creditNotes[creditNoteID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Credit note '%s'", creditNoteID))
	}
	copied := *cn
	return &copied, nil
}

// ListCreditNotes returns credit notes in deterministic order.
func (d *Directory) ListCreditNotes(tenantID string) ([]CreditNote, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	results := []CreditNote{}
	for _, cn := range st.creditNotes {
		results = append(results, *cn)
	}
	sortByCreated(results, func(c CreditNote) (time.Time, string) { return c.CreatedAt, c.CreditNoteID })
	return results, nil
}

// CreditNoteBalances returns the remaining credit of every credit note.
func (d *Directory) CreditNoteBalances(tenantID string) (map[string]decimal.Decimal, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	balances := make(map[string]decimal.Decimal, len(st.creditNotes))
	for id, cn := range st.creditNotes {
		balances[id] = cn.RemainingCredit
	}
	return balances, nil
}

// AllocateCreditNote applies credit against an invoice, reducing both the
// note's remaining credit and the invoice's amount due.
func (d *Directory) AllocateCreditNote(tenantID, creditNoteID, invoiceID string, amount decimal.Decimal) (*CreditNote, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	cn, ok := st.creditNotes[creditNoteID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Credit note '%s'", creditNoteID))
	}
	inv, ok := st.invoices[invoiceID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Invoice '%s'", invoiceID))
	}
	if !amount.IsPositive() {
		return nil, errors.ValidationInvalid("amount", "allocation must be greater than zero")
	}
	if amount.GreaterThan(cn.RemainingCredit) {
		return nil, errors.Newf(errors.ErrCodeStateConflict, "Allocation %s exceeds remaining credit %s on credit note '%s'", amount.String(), cn.RemainingCredit.String(), creditNoteID)
	}
	if amount.GreaterThan(inv.AmountDue) {
		return nil, errors.Newf(errors.ErrCodeStateConflict, "Allocation %s exceeds amount due %s on invoice '%s'", amount.String(), inv.AmountDue.String(), invoiceID)
	}

	now := time.Now().UTC()
	cn.RemainingCredit = cn.RemainingCredit.Sub(amount)
	cn.UpdatedAt = now
	inv.AmountDue = inv.AmountDue.Sub(amount)
	inv.UpdatedAt = now
	if inv.AmountDue.IsZero() {
		inv.Status = accounting.InvoiceStatusPaid
	}

	copied := *cn
	return &copied, nil
}

// --- payments --------------------------------------------------------------

// SavePayment records a payment and applies it against the referenced
// invoice or credit note.
func (d *Directory) SavePayment(tenantID string, p *Payment) error {
	st, err := d.lookup(tenantID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if p.InvoiceID != "" {
		inv, ok := st.invoices[p.InvoiceID]
		if !ok {
			return errors.NotFound(fmt.Sprintf("Invoice '%s'", p.InvoiceID))
		}
		inv.AmountDue = inv.AmountDue.Sub(p.Amount)
		inv.UpdatedAt = time.Now().UTC()
		if inv.AmountDue.IsZero() {
			inv.Status = accounting.InvoiceStatusPaid
		}
	}
	if p.CreditNoteID != "" {
		cn, ok := st.creditNotes[p.CreditNoteID]
		if !ok {
			return errors.NotFound(fmt.Sprintf("Credit note '%s'", p.CreditNoteID))
		}
		cn.RemainingCredit = cn.RemainingCredit.Sub(p.Amount)
		cn.UpdatedAt = time.Now().UTC()
	}

	st.payments[p.PaymentID] = p
	return nil
}

// GetPayment returns a payment by ID.
func (d *Directory) GetPayment(tenantID, paymentID string) (*Payment, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	p, ok := st.payments[paymentID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Payment '%s'", paymentID))
	}
	copied := *p
	return &copied, nil
}

// DeletePayment removes a payment and reverses its application.
func (d *Directory) DeletePayment(tenantID, paymentID string) error {
	st, err := d.lookup(tenantID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	p, ok := st.payments[paymentID]
	if !ok {
		return errors.NotFound(fmt.Sprintf("Payment '%s'", paymentID))
	}

	if p.InvoiceID != "" {
		if inv, ok := st.invoices[p.InvoiceID]; ok {
			inv.AmountDue = inv.AmountDue.Add(p.Amount)
			inv.UpdatedAt = time.Now().UTC()
			if inv.Status == accounting.InvoiceStatusPaid && inv.AmountDue.IsPositive() {
				inv.Status = accounting.InvoiceStatusAuthorised
			}
		}
	}
	if p.CreditNoteID != "" {
		if cn, ok := st.creditNotes[p.CreditNoteID]; ok {
			cn.RemainingCredit = cn.RemainingCredit.Add(p.Amount)
			cn.UpdatedAt = time.Now().UTC()
		}
	}

	delete(st.payments, paymentID)
	return nil
}

// --- bank transactions -------------------------------------------------------

// SaveBankTransaction records a bank transaction.
func (d *Directory) SaveBankTransaction(tenantID string, bt *BankTransaction) error {
	st, err := d.lookup(tenantID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.bankTransactions[bt.BankTransactionID] = bt
	return nil
}

// ListBankTransactions returns bank transactions in deterministic order.
func (d *Directory) ListBankTransactions(tenantID string) ([]BankTransaction, error) {
	st, err := d.lookup(tenantID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	results := []BankTransaction{}
	for _, bt := range st.bankTransactions {
		results = append(results, *bt)
	}
	sortByCreated(results, func(b BankTransaction) (time.Time, string) { return b.CreatedAt, b.BankTransactionID })
	return results, nil
}

// --- helpers -----------------------------------------------------------------

func regionSlug(region string) string {
	switch region {
	case "AU":
		return "au"
	case "UK":
		return "uk"
	case "US":
		return "us"
	default:
		return "xx"
	}
}

// sortByCreated orders records by creation time, tie-broken by ID so map
// iteration order never leaks into responses.
func sortByCreated[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}
