// Package introspect answers "what values are valid here" questions over a
// tenant snapshot. It returns entries in the exact shape the validation
// engine accepts on input (an Account with its code, not a projection), so
// an agent can copy a returned value verbatim into a retry payload. That
// round-trip symmetry is a contract, not a convenience.
package introspect

import (
	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// Introspect applies the filter as a conjunctive predicate over the
// snapshot collection named by entityType. A nil or zero filter returns
// the full collection. No pagination happens at this layer.
func Introspect(snap *accounting.TenantSnapshot, entityType accounting.EntityType, filter *accounting.EnumFilter) (any, error) {
	if snap == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "tenant snapshot unavailable")
	}

	switch entityType {
	case accounting.EntityTypeAccount:
		return filterAccounts(snap.Accounts, filter), nil
	case accounting.EntityTypeTaxRate:
		return filterTaxRates(snap.TaxRates, filter), nil
	case accounting.EntityTypeContact:
		return filterContacts(snap.Contacts, filter), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidOperation, "entity type %s does not support enum introspection", entityType)
	}
}

func filterAccounts(accounts []accounting.Account, filter *accounting.EnumFilter) []accounting.Account {
	results := []accounting.Account{}
	for _, a := range accounts {
		if filter != nil {
			if filter.Type != "" && string(a.Type) != filter.Type {
				continue
			}
			if filter.Status != "" && string(a.Status) != filter.Status {
				continue
			}
		}
		results = append(results, a)
	}
	return results
}

func filterTaxRates(rates []accounting.TaxRate, filter *accounting.EnumFilter) []accounting.TaxRate {
	results := []accounting.TaxRate{}
	for _, r := range rates {
		if filter != nil {
			if filter.Status != "" && string(r.Status) != filter.Status {
				continue
			}
			if filter.Type != "" && r.TaxType != filter.Type {
				continue
			}
		}
		results = append(results, r)
	}
	return results
}

func filterContacts(contacts []accounting.Contact, filter *accounting.EnumFilter) []accounting.Contact {
	results := []accounting.Contact{}
	for _, c := range contacts {
		if filter != nil {
			if filter.Status != "" && string(c.Status) != filter.Status {
				continue
			}
			if filter.IsCustomer != nil && c.IsCustomer != *filter.IsCustomer {
				continue
			}
			if filter.IsSupplier != nil && c.IsSupplier != *filter.IsSupplier {
				continue
			}
		}
		results = append(results, c)
	}
	return results
}
