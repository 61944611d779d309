package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdempotencyRecord(tenantID, key string) *IdempotencyRecord {
	return &IdempotencyRecord{
		TenantID:  tenantID,
		Key:       key,
		ToolName:  "create_invoice",
		Response:  []byte(`{"success":true}`),
		CreatedAt: time.Now().UTC(),
	}
}

func testAuditRecord(id, tenantID string) *AuditRecord {
	return &AuditRecord{
		ID:              id,
		TenantID:        tenantID,
		ToolName:        "create_invoice",
		ActionType:      "create",
		Success:         true,
		RequestID:       "req-" + id,
		ExecutionTimeMs: 1.2,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestMemoryStoreIdempotency(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	// Absent key returns nil, not an error.
	got, err := store.GetResult(ctx, "t1", "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	record := testIdempotencyRecord("t1", "k1")
	require.NoError(t, store.PutResult(ctx, record))

	got, err = store.GetResult(ctx, "t1", "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Response, got.Response)
	assert.Equal(t, "create_invoice", got.ToolName)

	// Keys are scoped per tenant.
	got, err = store.GetResult(ctx, "t2", "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.DeleteResult(ctx, "t1", "k1"))
	got, err = store.GetResult(ctx, "t1", "k1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreReplayIsStable(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	first := testIdempotencyRecord("t1", "k1")
	require.NoError(t, store.PutResult(ctx, first))

	// A second put under the same key must not change the stored response.
	second := testIdempotencyRecord("t1", "k1")
	second.Response = []byte(`{"success":false}`)
	require.NoError(t, store.PutResult(ctx, second))

	got, err := store.GetResult(ctx, "t1", "k1")
	require.NoError(t, err)
	assert.Equal(t, first.Response, got.Response)
}

func TestMemoryStoreAudit(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := testAuditRecord(fmt.Sprintf("a-%d", i), "t1")
		record.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.RecordAudit(ctx, record))
	}
	require.NoError(t, store.RecordAudit(ctx, testAuditRecord("other", "t2")))

	entries, err := store.ListAudit(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	// Newest first.
	assert.Equal(t, "a-4", entries[0].ID)
	assert.Equal(t, "a-0", entries[4].ID)

	limited, err := store.ListAudit(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "a-4", limited[0].ID)
}

func TestMemoryStoreCapabilities(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()

	caps := store.Capabilities()
	assert.False(t, caps.Has(CapabilityPersistent))
	assert.False(t, caps.Has(CapabilityAuditQuery))
}

func TestMemoryStoreContextCancellation(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetResult(ctx, "t1", "k1")
	assert.Error(t, err)
	err = store.PutResult(ctx, testIdempotencyRecord("t1", "k1"))
	assert.Error(t, err)
}
