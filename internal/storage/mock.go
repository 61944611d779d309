package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetResult(ctx context.Context, tenantID, key string) (*IdempotencyRecord, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IdempotencyRecord), args.Error(1)
}

func (m *MockStore) PutResult(ctx context.Context, record *IdempotencyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) DeleteResult(ctx context.Context, tenantID, key string) error {
	args := m.Called(ctx, tenantID, key)
	return args.Error(0)
}

func (m *MockStore) RecordAudit(ctx context.Context, record *AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) ListAudit(ctx context.Context, tenantID string, limit int) ([]AuditRecord, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AuditRecord), args.Error(1)
}

func (m *MockStore) Capabilities() Capabilities {
	args := m.Called()
	if args.Get(0) == nil {
		return Capabilities{}
	}
	return args.Get(0).(Capabilities)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
