package tenant

import (
	"context"

	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
)

// Info is the directory listing entry for one tenant.
type Info struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// Provider supplies point-in-time tenant configuration to the validation
// core. The core only consumes this read contract; it never mutates what
// it is given.
type Provider interface {
	// GetSnapshot returns a fresh point-in-time view of the tenant's
	// accounts, tax rates, and contacts. Fails with TENANT_NOT_FOUND for
	// an unknown tenant.
	GetSnapshot(ctx context.Context, tenantID string) (*accounting.TenantSnapshot, error)

	// ListTenants returns the tenants this server simulates, in a stable
	// order.
	ListTenants(ctx context.Context) []Info
}
