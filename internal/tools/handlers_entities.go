package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledgersim/mcp-ledger-sim/internal/tenant"
	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/envelope"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// successWithScore wraps a validated write result, carrying the validation
// score and warnings through to the envelope.
func (m *Manager) successWithScore(cc *callState, data interface{}, score float64, warnings []string) *envelope.Response {
	return m.respond(cc, true, data, envelope.Options{
		Score:    &score,
		Warnings: warnings,
	})
}

// --- contacts ------------------------------------------------------------

func (m *Manager) handleCreateContact(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	raw := argMap(args, "contact")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "contact is required"))
	}
	var payload accounting.ContactPayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}

	result, err := m.engine.Validate(snap, accounting.EntityTypeContact, &payload, nil)
	if err != nil {
		return m.failure(cc, err)
	}
	if !result.Valid {
		return m.validationFailure(cc, accounting.EntityTypeContact, result)
	}

	fresh := accounting.Contact{
		ContactID: payload.ContactID,
		Name:      payload.Name,
		Email:     payload.Email,
		Status:    accounting.ContactStatusActive,
	}
	if payload.IsCustomer != nil {
		fresh.IsCustomer = *payload.IsCustomer
	}
	if payload.IsSupplier != nil {
		fresh.IsSupplier = *payload.IsSupplier
	}
	contact, err := m.tenants.CreateContact(cc.tenantID, fresh)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("created contact %s", contact.ContactID)
	resp := m.successWithScore(cc, contact, result.Score, result.Warnings)
	m.remember(ctx, cc, "create_contact", resp)
	return resp
}

func (m *Manager) handleGetContact(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	contactID := argString(args, "contact_id")
	if contactID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "contact_id is required"))
	}
	contact, err := m.tenants.GetContact(cc.tenantID, contactID)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, contact)
}

func (m *Manager) handleListContacts(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}
	var filter accounting.EnumFilter
	if raw := argMap(args, "filter"); raw != nil {
		if err := decodeArgs(raw, &filter); err != nil {
			return m.badArgs(cc, err)
		}
	}
	contacts := []accounting.Contact{}
	for _, c := range snap.Contacts {
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		if filter.IsCustomer != nil && c.IsCustomer != *filter.IsCustomer {
			continue
		}
		if filter.IsSupplier != nil && c.IsSupplier != *filter.IsSupplier {
			continue
		}
		contacts = append(contacts, c)
	}
	return m.success(cc, contacts)
}

func (m *Manager) handleUpdateContact(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	raw := argMap(args, "contact")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "contact is required"))
	}
	var payload accounting.ContactPayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}
	if payload.ContactID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "contact.contact_id is required"))
	}

	contact, err := m.tenants.UpdateContact(cc.tenantID, payload)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("updated contact %s", contact.ContactID)
	resp := m.success(cc, contact)
	m.remember(ctx, cc, "update_contact", resp)
	return resp
}

func (m *Manager) handleArchiveContact(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	contactID := argString(args, "contact_id")
	if contactID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "contact_id is required"))
	}
	contact, err := m.tenants.ArchiveContact(cc.tenantID, contactID)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("archived contact %s", contactID)
	resp := m.success(cc, contact)
	m.remember(ctx, cc, "archive_contact", resp)
	return resp
}

// --- invoices ------------------------------------------------------------

func (m *Manager) handleCreateInvoice(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	raw := argMap(args, "invoice")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "invoice is required"))
	}
	var payload accounting.InvoicePayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}

	result, err := m.engine.Validate(snap, accounting.EntityTypeInvoice, &payload, nil)
	if err != nil {
		return m.failure(cc, err)
	}
	if !result.Valid {
		return m.validationFailure(cc, accounting.EntityTypeInvoice, result)
	}

	subTotal, totalTax, total := accounting.ComputeTotals(snap.TaxRates, payload.LineItems)
	now := time.Now().UTC()
	inv := &tenant.Invoice{
		InvoiceID: payload.InvoiceID,
		Contact:   *payload.Contact,
		LineItems: payload.LineItems,
		Date:      payload.Date,
		DueDate:   payload.DueDate,
		Status:    payload.Status,
		Currency:  payload.Currency,
		Reference: payload.Reference,
		SubTotal:  subTotal,
		TotalTax:  totalTax,
		Total:     total,
		AmountDue: total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if inv.InvoiceID == "" {
		inv.InvoiceID = "inv-" + uuid.New().String()
	}
	if inv.Status == "" {
		inv.Status = accounting.InvoiceStatusDraft
	}
	if inv.Currency == "" {
		inv.Currency = snap.Currency
	}

	if err := m.tenants.SaveInvoice(cc.tenantID, inv); err != nil {
		return m.failure(cc, err)
	}
	cc.log("created invoice %s total %s", inv.InvoiceID, total.String())
	resp := m.successWithScore(cc, inv, result.Score, result.Warnings)
	m.remember(ctx, cc, "create_invoice", resp)
	return resp
}

func (m *Manager) handleGetInvoice(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	invoiceID := argString(args, "invoice_id")
	if invoiceID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "invoice_id is required"))
	}
	inv, err := m.tenants.GetInvoice(cc.tenantID, invoiceID)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, inv)
}

func (m *Manager) handleListInvoices(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	status := accounting.InvoiceStatus(argString(args, "status"))
	invoices, err := m.tenants.ListInvoices(cc.tenantID, status)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, invoices)
}

func (m *Manager) handleUpdateInvoice(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	raw := argMap(args, "invoice")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "invoice is required"))
	}
	var payload accounting.InvoicePayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}
	if payload.InvoiceID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "invoice.invoice_id is required"))
	}

	existing, err := m.tenants.GetInvoice(cc.tenantID, payload.InvoiceID)
	if err != nil {
		return m.failure(cc, err)
	}
	if existing.Status == accounting.InvoiceStatusPaid || existing.Status == accounting.InvoiceStatusVoided {
		return m.failure(cc, errors.Newf(errors.ErrCodeStateConflict, "Invoice '%s' is %s and cannot be updated", existing.InvoiceID, existing.Status))
	}

	// Merge the partial payload over the stored invoice, then re-validate
	// the merged shape so an update can never leave an invoice less valid
	// than a create would.
	merged := accounting.InvoicePayload{
		InvoiceID: existing.InvoiceID,
		Contact:   &existing.Contact,
		LineItems: existing.LineItems,
		Date:      existing.Date,
		DueDate:   existing.DueDate,
		Status:    existing.Status,
		Currency:  existing.Currency,
		Reference: existing.Reference,
	}
	if payload.Contact != nil {
		merged.Contact = payload.Contact
	}
	if payload.LineItems != nil {
		merged.LineItems = payload.LineItems
	}
	if payload.Date != "" {
		merged.Date = payload.Date
	}
	if payload.DueDate != "" {
		merged.DueDate = payload.DueDate
	}
	if payload.Status != "" {
		merged.Status = payload.Status
	}
	if payload.Reference != "" {
		merged.Reference = payload.Reference
	}

	result, err := m.engine.Validate(snap, accounting.EntityTypeInvoice, &merged, nil)
	if err != nil {
		return m.failure(cc, err)
	}
	if !result.Valid {
		return m.validationFailure(cc, accounting.EntityTypeInvoice, result)
	}

	subTotal, totalTax, total := accounting.ComputeTotals(snap.TaxRates, merged.LineItems)
	paid := existing.Total.Sub(existing.AmountDue)
	updated := &tenant.Invoice{
		InvoiceID: existing.InvoiceID,
		Contact:   *merged.Contact,
		LineItems: merged.LineItems,
		Date:      merged.Date,
		DueDate:   merged.DueDate,
		Status:    merged.Status,
		Currency:  existing.Currency,
		Reference: merged.Reference,
		SubTotal:  subTotal,
		TotalTax:  totalTax,
		Total:     total,
		AmountDue: total.Sub(paid),
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if err := m.tenants.SaveInvoice(cc.tenantID, updated); err != nil {
		return m.failure(cc, err)
	}
	cc.log("updated invoice %s", updated.InvoiceID)
	resp := m.successWithScore(cc, updated, result.Score, result.Warnings)
	m.remember(ctx, cc, "update_invoice", resp)
	return resp
}

// --- quotes --------------------------------------------------------------

func (m *Manager) handleCreateQuote(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	raw := argMap(args, "quote")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "quote is required"))
	}
	var payload accounting.QuotePayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}

	result, err := m.engine.Validate(snap, accounting.EntityTypeQuote, &payload, nil)
	if err != nil {
		return m.failure(cc, err)
	}
	if !result.Valid {
		return m.validationFailure(cc, accounting.EntityTypeQuote, result)
	}

	subTotal, totalTax, total := accounting.ComputeTotals(snap.TaxRates, payload.LineItems)
	now := time.Now().UTC()
	q := &tenant.Quote{
		QuoteID:    payload.QuoteID,
		Contact:    *payload.Contact,
		LineItems:  payload.LineItems,
		Date:       payload.Date,
		ExpiryDate: payload.ExpiryDate,
		Status:     accounting.QuoteStatusDraft,
		Currency:   payload.Currency,
		Title:      payload.Title,
		SubTotal:   subTotal,
		TotalTax:   totalTax,
		Total:      total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if q.QuoteID == "" {
		q.QuoteID = "q-" + uuid.New().String()
	}
	if q.Currency == "" {
		q.Currency = snap.Currency
	}

	if err := m.tenants.SaveQuote(cc.tenantID, q); err != nil {
		return m.failure(cc, err)
	}
	cc.log("created quote %s", q.QuoteID)
	resp := m.successWithScore(cc, q, result.Score, result.Warnings)
	m.remember(ctx, cc, "create_quote", resp)
	return resp
}

func (m *Manager) handleGetQuote(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	quoteID := argString(args, "quote_id")
	if quoteID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "quote_id is required"))
	}
	q, err := m.tenants.GetQuote(cc.tenantID, quoteID)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, q)
}

func (m *Manager) handleUpdateQuoteStatus(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	quoteID := argString(args, "quote_id")
	status := accounting.QuoteStatus(argString(args, "status"))
	if quoteID == "" || status == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "quote_id and status are required"))
	}
	switch status {
	case accounting.QuoteStatusDraft, accounting.QuoteStatusSent,
		accounting.QuoteStatusAccepted, accounting.QuoteStatusDeclined:
	default:
		return m.failure(cc, errors.Newf(errors.ErrCodeValidationInvalid, "Status '%s' is not a valid quote status", status))
	}

	q, err := m.tenants.UpdateQuoteStatus(cc.tenantID, quoteID, status)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("quote %s moved to %s", quoteID, status)
	resp := m.success(cc, q)
	m.remember(ctx, cc, "update_quote_status", resp)
	return resp
}

// --- credit notes ----------------------------------------------------------

func (m *Manager) handleCreateCreditNote(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	raw := argMap(args, "credit_note")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "credit_note is required"))
	}
	var payload accounting.CreditNotePayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}

	result, err := m.engine.Validate(snap, accounting.EntityTypeCreditNote, &payload, nil)
	if err != nil {
		return m.failure(cc, err)
	}
	if !result.Valid {
		return m.validationFailure(cc, accounting.EntityTypeCreditNote, result)
	}

	_, _, total := accounting.ComputeTotals(snap.TaxRates, payload.LineItems)
	now := time.Now().UTC()
	cn := &tenant.CreditNote{
		CreditNoteID:    payload.CreditNoteID,
		Contact:         *payload.Contact,
		LineItems:       payload.LineItems,
		Date:            payload.Date,
		Currency:        payload.Currency,
		Total:           total,
		RemainingCredit: total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if cn.CreditNoteID == "" {
		cn.CreditNoteID = "cn-" + uuid.New().String()
	}
	if cn.Currency == "" {
		cn.Currency = snap.Currency
	}

	if err := m.tenants.SaveCreditNote(cc.tenantID, cn); err != nil {
		return m.failure(cc, err)
	}
	cc.log("created credit note %s", cn.CreditNoteID)
	resp := m.successWithScore(cc, cn, result.Score, result.Warnings)
	m.remember(ctx, cc, "create_credit_note", resp)
	return resp
}

func (m *Manager) handleGetCreditNote(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	creditNoteID := argString(args, "credit_note_id")
	if creditNoteID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "credit_note_id is required"))
	}
	cn, err := m.tenants.GetCreditNote(cc.tenantID, creditNoteID)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, cn)
}

func (m *Manager) handleListCreditNotes(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	notes, err := m.tenants.ListCreditNotes(cc.tenantID)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, notes)
}

func (m *Manager) handleAllocateCreditNote(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	creditNoteID := argString(args, "credit_note_id")
	invoiceID := argString(args, "invoice_id")
	amount, ok := argDecimal(args, "amount")
	if creditNoteID == "" || invoiceID == "" || !ok {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "credit_note_id, invoice_id, and amount are required"))
	}

	cn, err := m.tenants.AllocateCreditNote(cc.tenantID, creditNoteID, invoiceID, amount)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("allocated %s from credit note %s to invoice %s", amount.String(), creditNoteID, invoiceID)
	resp := m.success(cc, cn)
	m.remember(ctx, cc, "allocate_credit_note", resp)
	return resp
}

// --- payments --------------------------------------------------------------

func (m *Manager) handleCreatePayment(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	raw := argMap(args, "payment")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "payment is required"))
	}
	var payload accounting.PaymentPayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}

	refs, fail := m.referenceContext(cc, accounting.EntityTypePayment)
	if fail != nil {
		return fail
	}
	result, err := m.engine.Validate(snap, accounting.EntityTypePayment, &payload, refs)
	if err != nil {
		return m.failure(cc, err)
	}
	if !result.Valid {
		return m.validationFailure(cc, accounting.EntityTypePayment, result)
	}

	p := &tenant.Payment{
		PaymentID:    payload.PaymentID,
		InvoiceID:    payload.InvoiceID,
		CreditNoteID: payload.CreditNoteID,
		AccountCode:  payload.AccountCode,
		Amount:       payload.Amount,
		Date:         payload.Date,
		Reference:    payload.Reference,
		CreatedAt:    time.Now().UTC(),
	}
	if p.PaymentID == "" {
		p.PaymentID = "pay-" + uuid.New().String()
	}

	if err := m.tenants.SavePayment(cc.tenantID, p); err != nil {
		return m.failure(cc, err)
	}
	cc.log("created payment %s for %s", p.PaymentID, p.Amount.String())
	resp := m.successWithScore(cc, p, result.Score, result.Warnings)
	m.remember(ctx, cc, "create_payment", resp)
	return resp
}

func (m *Manager) handleGetPayment(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	paymentID := argString(args, "payment_id")
	if paymentID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "payment_id is required"))
	}
	p, err := m.tenants.GetPayment(cc.tenantID, paymentID)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, p)
}

func (m *Manager) handleDeletePayment(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	paymentID := argString(args, "payment_id")
	if paymentID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "payment_id is required"))
	}
	if err := m.tenants.DeletePayment(cc.tenantID, paymentID); err != nil {
		return m.failure(cc, err)
	}
	cc.log("deleted payment %s", paymentID)
	resp := m.success(cc, map[string]interface{}{"payment_id": paymentID, "deleted": true})
	m.remember(ctx, cc, "delete_payment", resp)
	return resp
}

// --- bank transactions -------------------------------------------------------

func (m *Manager) handleCreateBankTransaction(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if resp := m.replay(ctx, cc); resp != nil {
		return resp
	}
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	raw := argMap(args, "bank_transaction")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "bank_transaction is required"))
	}
	var payload accounting.BankTransactionPayload
	if err := decodeArgs(raw, &payload); err != nil {
		return m.badArgs(cc, err)
	}

	result, err := m.engine.Validate(snap, accounting.EntityTypeBankTransaction, &payload, nil)
	if err != nil {
		return m.failure(cc, err)
	}
	if !result.Valid {
		return m.validationFailure(cc, accounting.EntityTypeBankTransaction, result)
	}

	_, _, total := accounting.ComputeTotals(snap.TaxRates, payload.LineItems)
	bt := &tenant.BankTransaction{
		BankTransactionID: payload.BankTransactionID,
		Type:              payload.Type,
		Contact:           payload.Contact,
		BankAccountCode:   payload.BankAccountCode,
		LineItems:         payload.LineItems,
		Date:              payload.Date,
		Total:             total,
		CreatedAt:         time.Now().UTC(),
	}
	if bt.BankTransactionID == "" {
		bt.BankTransactionID = "bt-" + uuid.New().String()
	}

	if err := m.tenants.SaveBankTransaction(cc.tenantID, bt); err != nil {
		return m.failure(cc, err)
	}
	cc.log("created bank transaction %s", bt.BankTransactionID)
	resp := m.successWithScore(cc, bt, result.Score, result.Warnings)
	m.remember(ctx, cc, "create_bank_transaction", resp)
	return resp
}

func (m *Manager) handleListBankTransactions(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	transactions, err := m.tenants.ListBankTransactions(cc.tenantID)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, transactions)
}
