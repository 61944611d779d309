package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
)

type idempotencyKey struct {
	tenantID string
	key      string
}

// MemoryStore is an in-memory Store for tests and ephemeral sandboxes.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[idempotencyKey]IdempotencyRecord
	audits  []AuditRecord
	logger  *logging.Logger
}

// NewMemoryStore creates a new memory-backed store.
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	logger.Info("Creating memory store")

	return &MemoryStore{
		results: make(map[idempotencyKey]IdempotencyRecord),
		logger:  logger,
	}
}

// GetResult returns the cached record or nil when absent.
func (m *MemoryStore) GetResult(ctx context.Context, tenantID, key string) (*IdempotencyRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.results[idempotencyKey{tenantID, key}]
	if !ok {
		return nil, nil
	}
	m.logger.DebugContext(ctx, "Idempotency hit",
		slog.String("tenant_id", tenantID),
		slog.String("key", key),
		slog.String("tool", record.ToolName),
	)
	copied := record
	return &copied, nil
}

// PutResult caches a completed write outcome. Re-putting the same key
// keeps the original record so replays stay stable.
func (m *MemoryStore) PutResult(ctx context.Context, record *IdempotencyRecord) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := idempotencyKey{record.TenantID, record.Key}
	if _, exists := m.results[k]; exists {
		return nil
	}
	m.results[k] = *record
	return nil
}

// DeleteResult removes a cached outcome.
func (m *MemoryStore) DeleteResult(ctx context.Context, tenantID, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, idempotencyKey{tenantID, key})
	return nil
}

// RecordAudit appends an audit record.
func (m *MemoryStore) RecordAudit(ctx context.Context, record *AuditRecord) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, *record)
	return nil
}

// ListAudit returns the newest audit records for a tenant, newest first.
func (m *MemoryStore) ListAudit(ctx context.Context, tenantID string, limit int) ([]AuditRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []AuditRecord{}
	for i := len(m.audits) - 1; i >= 0; i-- {
		if tenantID != "" && m.audits[i].TenantID != tenantID {
			continue
		}
		results = append(results, m.audits[i])
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Capabilities reports what this backend supports.
func (m *MemoryStore) Capabilities() Capabilities {
	return Capabilities{}
}

// Close closes the memory store (no-op).
func (m *MemoryStore) Close() error {
	return nil
}
