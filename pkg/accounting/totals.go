package accounting

import "github.com/shopspring/decimal"

// ComputeTotals sums line items into subtotal, tax, and total using the
// supplied tax rates. Lines whose tax type has no active rate contribute
// no tax; validation has already flagged them, so totals stay defined for
// every payload.
func ComputeTotals(rates []TaxRate, items []LineItem) (subTotal, totalTax, total decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	for _, item := range items {
		line := item.Total()
		subTotal = subTotal.Add(line)
		if item.TaxType == "" {
			continue
		}
		for _, r := range rates {
			if r.Status == TaxRateStatusActive && r.TaxType == item.TaxType {
				totalTax = totalTax.Add(line.Mul(r.Rate).Div(hundred).Round(2))
				break
			}
		}
	}
	total = subTotal.Add(totalTax)
	return subTotal, totalTax, total
}
