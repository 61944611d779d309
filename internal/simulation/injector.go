// Package simulation injects synthetic network conditions in front of
// tool execution so agents can be exercised against latency, rate limits,
// and intermittent failures without a flaky upstream.
package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// Conditions describes the active fault profile for one tenant.
type Conditions struct {
	// LatencyMs delays every call by the given number of milliseconds.
	LatencyMs int `json:"latency_ms" mapstructure:"latency_ms"`
	// ErrorRate in [0,1] fails calls at the given frequency. Failures are
	// sequenced deterministically (every round(1/rate)-th call) so test
	// runs are reproducible.
	ErrorRate float64 `json:"error_rate" mapstructure:"error_rate"`
	// RateLimitRemaining, when >= 0, is a budget of calls before the
	// injector starts returning RATE_LIMITED. -1 means unlimited.
	RateLimitRemaining int `json:"rate_limit_remaining" mapstructure:"rate_limit_remaining"`
}

type tenantConditions struct {
	conditions Conditions
	callCount  int
	remaining  int
}

// Injector holds per-tenant simulated network conditions. Tenants without
// conditions pass through untouched.
type Injector struct {
	mu      sync.Mutex
	tenants map[string]*tenantConditions
}

// NewInjector creates an injector with no active conditions.
func NewInjector() *Injector {
	return &Injector{tenants: make(map[string]*tenantConditions)}
}

// Set activates conditions for a tenant, replacing any previous profile.
func (i *Injector) Set(tenantID string, c Conditions) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tenants[tenantID] = &tenantConditions{
		conditions: c,
		remaining:  c.RateLimitRemaining,
	}
}

// Get returns the active conditions for a tenant.
func (i *Injector) Get(tenantID string) (Conditions, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	tc, ok := i.tenants[tenantID]
	if !ok {
		return Conditions{}, false
	}
	return tc.conditions, true
}

// Clear removes the conditions for a tenant. Clearing all tenants is done
// with an empty tenantID.
func (i *Injector) Clear(tenantID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if tenantID == "" {
		i.tenants = make(map[string]*tenantConditions)
		return
	}
	delete(i.tenants, tenantID)
}

// Apply evaluates the tenant's conditions for one call: rate limit first,
// then the deterministic error sequence, then latency. Returns an
// infrastructure error when a fault fires.
func (i *Injector) Apply(ctx context.Context, tenantID string) error {
	i.mu.Lock()
	tc, ok := i.tenants[tenantID]
	if !ok {
		i.mu.Unlock()
		return nil
	}

	tc.callCount++

	if tc.conditions.RateLimitRemaining >= 0 {
		if tc.remaining <= 0 {
			i.mu.Unlock()
			return errors.Newf(errors.ErrCodeRateLimited, "Simulated rate limit exceeded for tenant '%s'", tenantID)
		}
		tc.remaining--
	}

	if tc.conditions.ErrorRate > 0 {
		interval := int(1.0/tc.conditions.ErrorRate + 0.5)
		if interval < 1 {
			interval = 1
		}
		if tc.callCount%interval == 0 {
			i.mu.Unlock()
			return errors.Newf(errors.ErrCodeSimulatedFault, "Simulated network fault for tenant '%s'", tenantID)
		}
	}

	latency := tc.conditions.LatencyMs
	i.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(time.Duration(latency) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}
