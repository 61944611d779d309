package tenant

import (
	"github.com/shopspring/decimal"

	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
)

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedTenants builds the deterministic sandbox tenants. Every tenant
// carries a chart of accounts spanning all account types with a mix of
// active and archived codes, region-appropriate tax rates, and contacts
// including one archived entry, so every validation path is reachable
// without setup calls.
func seedTenants() []*tenantState {
	return []*tenantState{
		newTenantState(Info{
			TenantID: "acme-au-001",
			Name:     "Acme Trading Pty Ltd",
			Region:   "AU",
			Currency: "AUD",
		}, []accounting.Account{
			{Code: "090", Name: "Business Cheque Account", Type: accounting.AccountTypeBank, Status: accounting.AccountStatusActive},
			{Code: "091", Name: "Old Savings Account", Type: accounting.AccountTypeBank, Status: accounting.AccountStatusArchived},
			{Code: "200", Name: "Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "210", Name: "Consulting Income", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "220", Name: "Shipping Recovery", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "260", Name: "Legacy Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusArchived},
			{Code: "270", Name: "Discontinued Income", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusArchived},
			{Code: "400", Name: "Advertising", Type: accounting.AccountTypeExpense, Status: accounting.AccountStatusActive},
			{Code: "449", Name: "Legacy Marketing", Type: accounting.AccountTypeExpense, Status: accounting.AccountStatusArchived},
			{Code: "610", Name: "Accounts Receivable", Type: accounting.AccountTypeCurrent, Status: accounting.AccountStatusActive},
			{Code: "710", Name: "Office Equipment", Type: accounting.AccountTypeFixed, Status: accounting.AccountStatusActive},
			{Code: "800", Name: "Accounts Payable", Type: accounting.AccountTypeLiability, Status: accounting.AccountStatusActive},
			{Code: "960", Name: "Retained Earnings", Type: accounting.AccountTypeEquity, Status: accounting.AccountStatusActive},
		}, []accounting.TaxRate{
			{TaxType: "OUTPUT", Name: "GST on Income", Rate: pct("10"), Status: accounting.TaxRateStatusActive},
			{TaxType: "INPUT", Name: "GST on Expenses", Rate: pct("10"), Status: accounting.TaxRateStatusActive},
			{TaxType: "EXEMPTOUTPUT", Name: "GST Free Income", Rate: pct("0"), Status: accounting.TaxRateStatusActive},
			{TaxType: "LEGACYGST", Name: "Superseded GST", Rate: pct("10"), Status: accounting.TaxRateStatusDeleted},
		}, []accounting.Contact{
			{ContactID: "c-au-0001", Name: "Bayside Wholesale", Email: "accounts@bayside.example", Status: accounting.ContactStatusActive, IsCustomer: true},
			{ContactID: "c-au-0002", Name: "Harbour Logistics", Email: "billing@harbour.example", Status: accounting.ContactStatusActive, IsSupplier: true},
			{ContactID: "c-au-0003", Name: "Boutique Collective", Email: "hello@boutique.example", Status: accounting.ContactStatusActive, IsCustomer: true, IsSupplier: true},
			{ContactID: "c-au-0004", Name: "Defunct Retail Co", Status: accounting.ContactStatusArchived, IsCustomer: true},
		}),

		newTenantState(Info{
			TenantID: "globex-uk-002",
			Name:     "Globex Industries Ltd",
			Region:   "UK",
			Currency: "GBP",
		}, []accounting.Account{
			{Code: "090", Name: "Current Account", Type: accounting.AccountTypeBank, Status: accounting.AccountStatusActive},
			{Code: "200", Name: "Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "201", Name: "Export Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "265", Name: "Pre-Brexit Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusArchived},
			{Code: "404", Name: "Bank Fees", Type: accounting.AccountTypeExpense, Status: accounting.AccountStatusActive},
			{Code: "610", Name: "Accounts Receivable", Type: accounting.AccountTypeCurrent, Status: accounting.AccountStatusActive},
			{Code: "720", Name: "Plant and Machinery", Type: accounting.AccountTypeFixed, Status: accounting.AccountStatusActive},
			{Code: "825", Name: "VAT Control", Type: accounting.AccountTypeLiability, Status: accounting.AccountStatusActive},
			{Code: "955", Name: "Share Capital", Type: accounting.AccountTypeEquity, Status: accounting.AccountStatusActive},
		}, []accounting.TaxRate{
			{TaxType: "OUTPUT2", Name: "20% (VAT on Income)", Rate: pct("20"), Status: accounting.TaxRateStatusActive},
			{TaxType: "INPUT2", Name: "20% (VAT on Expenses)", Rate: pct("20"), Status: accounting.TaxRateStatusActive},
			{TaxType: "RRINCOME", Name: "5% (VAT on Income)", Rate: pct("5"), Status: accounting.TaxRateStatusActive},
			{TaxType: "ZERORATEDOUTPUT", Name: "Zero Rated Income", Rate: pct("0"), Status: accounting.TaxRateStatusActive},
			{TaxType: "OLDVAT", Name: "17.5% (Superseded)", Rate: pct("17.5"), Status: accounting.TaxRateStatusDeleted},
		}, []accounting.Contact{
			{ContactID: "c-uk-0001", Name: "Thames Components", Email: "finance@thames.example", Status: accounting.ContactStatusActive, IsCustomer: true},
			{ContactID: "c-uk-0002", Name: "Northern Freight", Email: "ap@northern.example", Status: accounting.ContactStatusActive, IsSupplier: true},
			{ContactID: "c-uk-0003", Name: "Dissolved Partner LLP", Status: accounting.ContactStatusArchived, IsSupplier: true},
		}),

		newTenantState(Info{
			TenantID: "initech-us-003",
			Name:     "Initech LLC",
			Region:   "US",
			Currency: "USD",
		}, []accounting.Account{
			{Code: "1000", Name: "Checking Account", Type: accounting.AccountTypeBank, Status: accounting.AccountStatusActive},
			{Code: "4000", Name: "Sales", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "4100", Name: "Service Revenue", Type: accounting.AccountTypeRevenue, Status: accounting.AccountStatusActive},
			{Code: "5000", Name: "Cost of Goods Sold", Type: accounting.AccountTypeExpense, Status: accounting.AccountStatusActive},
			{Code: "1200", Name: "Accounts Receivable", Type: accounting.AccountTypeCurrent, Status: accounting.AccountStatusActive},
			{Code: "1500", Name: "Computer Hardware", Type: accounting.AccountTypeFixed, Status: accounting.AccountStatusActive},
			{Code: "2000", Name: "Accounts Payable", Type: accounting.AccountTypeLiability, Status: accounting.AccountStatusActive},
			{Code: "3000", Name: "Owner Equity", Type: accounting.AccountTypeEquity, Status: accounting.AccountStatusActive},
		}, []accounting.TaxRate{
			{TaxType: "NONE", Name: "No Tax", Rate: pct("0"), Status: accounting.TaxRateStatusActive},
			{TaxType: "TXSALES", Name: "Texas Sales Tax", Rate: pct("8.25"), Status: accounting.TaxRateStatusActive},
		}, []accounting.Contact{
			{ContactID: "c-us-0001", Name: "Lumbergh Consulting", Email: "ar@lumbergh.example", Status: accounting.ContactStatusActive, IsCustomer: true},
			{ContactID: "c-us-0002", Name: "Chotchkies Supply", Email: "orders@chotchkies.example", Status: accounting.ContactStatusActive, IsSupplier: true},
		}),
	}
}
