// Package connection simulates the OAuth connection lifecycle between the
// server and its sandbox tenants. The PKCE exchange is mimicked only as
// far as agents need to exercise it: challenges are real S256 digests, but
// no tokens ever leave the process and no external authority exists.
package connection

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// Status is the lifecycle state of one tenant connection.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConnected Status = "CONNECTED"
)

// Connection is one simulated OAuth connection to a tenant.
type Connection struct {
	ConnectionID  string    `json:"connection_id"`
	TenantID      string    `json:"tenant_id"`
	Status        Status    `json:"status"`
	AuthURL       string    `json:"auth_url,omitempty"`
	CodeChallenge string    `json:"code_challenge,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ConnectedAt   time.Time `json:"connected_at,omitempty"`
}

// Manager tracks simulated tenant connections.
type Manager struct {
	mu          sync.Mutex
	connections map[string]*Connection
	verifiers   map[string]string // connection_id -> expected verifier
}

// NewManager creates an empty connection manager.
func NewManager() *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		verifiers:   make(map[string]string),
	}
}

// Connect begins a PKCE connection for a tenant. The returned connection
// carries the code challenge; the matching verifier is retained internally
// and accepted by Complete, mirroring how a real authorize endpoint would
// bind the pair.
func (m *Manager) Connect(tenantID string) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()

	verifier := uuid.New().String()
	digest := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(digest[:])

	conn := &Connection{
		ConnectionID:  uuid.New().String(),
		TenantID:      tenantID,
		Status:        StatusPending,
		AuthURL:       fmt.Sprintf("https://login.sandbox.example/authorize?tenant=%s&code_challenge=%s", tenantID, challenge),
		CodeChallenge: challenge,
		CreatedAt:     time.Now().UTC(),
	}
	m.connections[conn.ConnectionID] = conn
	m.verifiers[conn.ConnectionID] = verifier
	return conn
}

// Verifier returns the code verifier for a pending connection. In a real
// flow the client would have generated this; the sandbox hands it out so
// agents can drive the exchange end to end.
func (m *Manager) Verifier(connectionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.verifiers[connectionID]
	if !ok {
		return "", errors.Newf(errors.ErrCodeConnectionMissing, "Connection '%s' not found", connectionID)
	}
	return v, nil
}

// Complete finishes the PKCE exchange for a pending connection.
func (m *Manager) Complete(connectionID, verifier string) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[connectionID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeConnectionMissing, "Connection '%s' not found", connectionID)
	}
	if conn.Status == StatusConnected {
		return nil, errors.Newf(errors.ErrCodeStateConflict, "Connection '%s' is already connected", connectionID)
	}

	digest := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(digest[:])
	if challenge != conn.CodeChallenge {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "Code verifier does not match the challenge")
	}

	conn.Status = StatusConnected
	conn.ConnectedAt = time.Now().UTC()
	copied := *conn
	return &copied, nil
}

// Disconnect removes every connection for a tenant, pending ones
// included. Repeated Connect calls can leave several behind.
func (m *Manager) Disconnect(tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := false
	for id, conn := range m.connections {
		if conn.TenantID == tenantID {
			delete(m.connections, id)
			delete(m.verifiers, id)
			removed = true
		}
	}
	if !removed {
		return errors.Newf(errors.ErrCodeConnectionMissing, "No connection found for tenant '%s'", tenantID)
	}
	return nil
}

// List returns all connections in creation order.
func (m *Manager) List() []Connection {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		results = append(results, *conn)
	}
	// Stable order for responses.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].CreatedAt.Before(results[j-1].CreatedAt); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}
