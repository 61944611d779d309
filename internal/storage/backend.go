package storage

import (
	"context"
	"time"
)

// IdempotencyRecord is the cached outcome of a completed write call,
// keyed by (tenant_id, idempotency key). Replays return Response verbatim
// instead of re-executing the write.
type IdempotencyRecord struct {
	TenantID  string    `json:"tenant_id"`
	Key       string    `json:"key"`
	ToolName  string    `json:"tool_name"`
	Response  []byte    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditRecord is one entry in the tool-call audit trail. Recording is
// fire-and-forget at the call site: a failed audit write is logged and
// never fails the tool response.
type AuditRecord struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	ToolName        string    `json:"tool_name"`
	ActionType      string    `json:"action_type"`
	Success         bool      `json:"success"`
	RequestID       string    `json:"request_id"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ExecutionTimeMs float64   `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// Capability tags what a backend supports. Callers check the set instead
// of probing methods at runtime.
type Capability string

const (
	// CapabilityPersistent means records survive process restart.
	CapabilityPersistent Capability = "persistent"
	// CapabilityAuditQuery means ListAudit is backed by a real query
	// rather than a bounded in-memory ring.
	CapabilityAuditQuery Capability = "audit_query"
)

// Capabilities is the set of capability tags a backend carries.
type Capabilities map[Capability]bool

// Has reports whether the capability is present.
func (c Capabilities) Has(cap Capability) bool {
	return c[cap]
}

// Store persists idempotency results and audit records. Implementations
// are safe for concurrent use.
type Store interface {
	// GetResult returns the cached record for (tenantID, key), or nil
	// when absent.
	GetResult(ctx context.Context, tenantID, key string) (*IdempotencyRecord, error)
	PutResult(ctx context.Context, record *IdempotencyRecord) error
	DeleteResult(ctx context.Context, tenantID, key string) error

	RecordAudit(ctx context.Context, record *AuditRecord) error
	ListAudit(ctx context.Context, tenantID string, limit int) ([]AuditRecord, error)

	Capabilities() Capabilities
	Close() error
}
