package tools

// Tool describes one registered MCP tool. Names are wire contract: agents
// parse them out of recovery suggestions, so a registered spelling is
// never changed once shipped.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Catalog returns every registered tool in display order, grouped by
// category.
func Catalog() []Tool {
	return []Tool{
		// Capabilities / context
		{Name: "get_mcp_capabilities", Description: "Describe this server: tools, storage capabilities, and optionally the connected tenants", Category: "context"},
		{Name: "introspect_enums", Description: "List a tenant's valid values for Account, TaxRate, or Contact, with optional filters", Category: "context"},
		{Name: "validate_payload", Description: "Validate an entity payload against a tenant's configuration without writing anything", Category: "context"},

		// Contacts
		{Name: "create_contact", Description: "Create a contact", Category: "contacts"},
		{Name: "get_contact", Description: "Get a contact by id", Category: "contacts"},
		{Name: "list_contacts", Description: "List a tenant's contacts", Category: "contacts"},
		{Name: "update_contact", Description: "Update a contact's details", Category: "contacts"},
		{Name: "archive_contact", Description: "Archive a contact", Category: "contacts"},

		// Invoices
		{Name: "create_invoice", Description: "Create an invoice", Category: "invoices"},
		{Name: "get_invoice", Description: "Get an invoice by id", Category: "invoices"},
		{Name: "list_invoices", Description: "List a tenant's invoices, optionally by status", Category: "invoices"},
		{Name: "update_invoice", Description: "Replace an invoice that has no payments applied", Category: "invoices"},

		// Quotes
		{Name: "create_quote", Description: "Create a quote", Category: "quotes"},
		{Name: "get_quote", Description: "Get a quote by id", Category: "quotes"},
		{Name: "update_quote_status", Description: "Drive the quote lifecycle: DRAFT to SENT to ACCEPTED or DECLINED", Category: "quotes"},

		// Credit notes
		{Name: "create_credit_note", Description: "Create a credit note", Category: "credit_notes"},
		{Name: "get_credit_note", Description: "Get a credit note by id", Category: "credit_notes"},
		{Name: "list_credit_notes", Description: "List a tenant's credit notes", Category: "credit_notes"},
		{Name: "allocate_credit_note", Description: "Allocate credit note credit against an invoice", Category: "credit_notes"},

		// Payments
		{Name: "create_payment", Description: "Apply a payment to an invoice or credit note", Category: "payments"},
		{Name: "get_payment", Description: "Get a payment by id", Category: "payments"},
		{Name: "delete_payment", Description: "Delete a payment and reverse its application", Category: "payments"},

		// Bank transactions
		{Name: "create_bank_transaction", Description: "Record a spend or receive bank transaction", Category: "bank_transactions"},
		{Name: "list_bank_transactions", Description: "List a tenant's bank transactions", Category: "bank_transactions"},

		// Connections
		{Name: "connect_tenant", Description: "Begin a simulated OAuth PKCE connection to a tenant", Category: "connections"},
		{Name: "complete_connection", Description: "Complete a pending PKCE connection with its code verifier", Category: "connections"},
		{Name: "disconnect_tenant", Description: "Remove the connection to a tenant", Category: "connections"},
		{Name: "list_connections", Description: "List tenant connections", Category: "connections"},

		// Chaos / observability
		{Name: "simulate_network_conditions", Description: "Inject latency, failures, or a rate limit for a tenant", Category: "chaos"},
		{Name: "clear_simulation", Description: "Clear simulated network conditions", Category: "chaos"},
		{Name: "get_audit_log", Description: "Read the tool-call audit trail", Category: "observability"},
	}
}

// ToolNames returns the registered names in catalog order.
func ToolNames() []string {
	catalog := Catalog()
	names := make([]string, 0, len(catalog))
	for _, t := range catalog {
		names = append(names, t.Name)
	}
	return names
}

// IsRegistered reports whether name is in the catalog.
func IsRegistered(name string) bool {
	for _, t := range Catalog() {
		if t.Name == name {
			return true
		}
	}
	return false
}
