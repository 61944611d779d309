package tools

import (
	"context"

	"github.com/ledgersim/mcp-ledger-sim/internal/introspect"
	"github.com/ledgersim/mcp-ledger-sim/internal/simulation"
	"github.com/ledgersim/mcp-ledger-sim/internal/validation"
	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/envelope"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// badArgs converts an argument decode failure into a failure envelope.
func (m *Manager) badArgs(cc *callState, err error) *envelope.Response {
	return m.failure(cc, errors.Wrap(err, errors.ErrCodeTransportInvalidParams, "Arguments could not be decoded"))
}

func (m *Manager) handleGetCapabilities(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	data := map[string]interface{}{
		"server": map[string]string{
			"name":    "mcp-ledger-sim",
			"version": "1.0.0",
		},
		"tools":                m.HandleListTools(),
		"entity_types":         accounting.KnownEntityTypes,
		"verbosity_levels":     []string{"silent", "compact", "diagnostic", "debug"},
		"storage_capabilities": m.store.Capabilities(),
	}
	if argBool(args, "include_tenants") {
		data["tenants"] = m.tenants.ListTenants(ctx)
	}
	cc.log("assembled capability report")
	return m.success(cc, data)
}

func (m *Manager) handleIntrospectEnums(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	entityType := argString(args, "entity_type")
	if !accounting.IsKnownEntityType(entityType) {
		return m.failure(cc, errors.Newf(errors.ErrCodeInvalidOperation, "Entity type '%s' is not recognized", entityType))
	}

	var filter accounting.EnumFilter
	if raw := argMap(args, "filter"); raw != nil {
		if err := decodeArgs(raw, &filter); err != nil {
			return m.badArgs(cc, err)
		}
	}

	values, err := introspect.Introspect(snap, accounting.EntityType(entityType), &filter)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("introspected %s enums for tenant %s", entityType, cc.tenantID)
	return m.success(cc, map[string]interface{}{
		"entity_type": entityType,
		"values":      values,
	})
}

func (m *Manager) handleValidatePayload(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	snap, fail := m.snapshot(ctx, cc)
	if fail != nil {
		return fail
	}

	entityType := accounting.EntityType(argString(args, "entity_type"))
	raw := argMap(args, "payload")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "payload is required"))
	}

	payload, err := decodePayload(entityType, raw)
	if err != nil {
		return m.badArgs(cc, err)
	}

	refs, fail := m.referenceContext(cc, entityType)
	if fail != nil {
		return fail
	}

	result, err := m.engine.Validate(snap, entityType, payload, refs)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("validated %s payload: valid=%t score=%.2f", entityType, result.Valid, result.Score)
	if !result.Valid {
		return m.validationFailure(cc, entityType, result)
	}
	return m.respond(cc, true, result, envelope.Options{
		Score:    &result.Score,
		Warnings: result.Warnings,
	})
}

// decodePayload decodes a raw payload map into the typed payload for the
// entity type, so the engine's type switch is never fed a raw map.
func decodePayload(entityType accounting.EntityType, raw map[string]interface{}) (interface{}, error) {
	switch entityType {
	case accounting.EntityTypeInvoice:
		var p accounting.InvoicePayload
		return &p, decodeArgs(raw, &p)
	case accounting.EntityTypeQuote:
		var p accounting.QuotePayload
		return &p, decodeArgs(raw, &p)
	case accounting.EntityTypeCreditNote:
		var p accounting.CreditNotePayload
		return &p, decodeArgs(raw, &p)
	case accounting.EntityTypePayment:
		var p accounting.PaymentPayload
		return &p, decodeArgs(raw, &p)
	case accounting.EntityTypeBankTransaction:
		var p accounting.BankTransactionPayload
		return &p, decodeArgs(raw, &p)
	case accounting.EntityTypeContact:
		var p accounting.ContactPayload
		return &p, decodeArgs(raw, &p)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidOperation, "entity type %s cannot be validated as a payload", entityType)
	}
}

// referenceContext assembles the balance maps payments validate against.
// Only payments need it; everything else validates from the snapshot alone.
func (m *Manager) referenceContext(cc *callState, entityType accounting.EntityType) (*validation.ReferenceContext, *envelope.Response) {
	if entityType != accounting.EntityTypePayment {
		return nil, nil
	}
	invoiceBalances, err := m.tenants.InvoiceBalances(cc.tenantID)
	if err != nil {
		return nil, m.failure(cc, err)
	}
	creditNoteBalances, err := m.tenants.CreditNoteBalances(cc.tenantID)
	if err != nil {
		return nil, m.failure(cc, err)
	}
	return &validation.ReferenceContext{
		InvoiceBalances:    invoiceBalances,
		CreditNoteBalances: creditNoteBalances,
	}, nil
}

// --- simulation ----------------------------------------------------------

func (m *Manager) handleSimulateNetworkConditions(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if cc.tenantID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "tenant_id is required"))
	}
	if _, err := m.tenants.GetSnapshot(ctx, cc.tenantID); err != nil {
		return m.failure(cc, err)
	}

	raw := argMap(args, "conditions")
	if raw == nil {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "conditions is required"))
	}

	// Absent rate_limit_remaining means unlimited, never a zero budget.
	conditions := simulation.Conditions{RateLimitRemaining: -1}
	if err := decodeArgs(raw, &conditions); err != nil {
		return m.badArgs(cc, err)
	}
	if conditions.ErrorRate < 0 || conditions.ErrorRate > 1 {
		return m.failure(cc, errors.New(errors.ErrCodeValidationRange, "error_rate must be between 0 and 1"))
	}
	if conditions.LatencyMs < 0 {
		return m.failure(cc, errors.New(errors.ErrCodeValidationRange, "latency_ms must not be negative"))
	}

	m.injector.Set(cc.tenantID, conditions)
	cc.log("simulation conditions set for tenant %s", cc.tenantID)
	return m.success(cc, map[string]interface{}{
		"tenant_id":  cc.tenantID,
		"conditions": conditions,
	})
}

func (m *Manager) handleClearSimulation(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	// An empty tenant_id clears every tenant's conditions.
	m.injector.Clear(cc.tenantID)
	scope := cc.tenantID
	if scope == "" {
		scope = "all"
	}
	cc.log("cleared simulation conditions: %s", scope)
	return m.success(cc, map[string]interface{}{"cleared": scope})
}

// --- connections -----------------------------------------------------------

func (m *Manager) handleConnectTenant(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if cc.tenantID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "tenant_id is required"))
	}
	if _, err := m.tenants.GetSnapshot(ctx, cc.tenantID); err != nil {
		return m.failure(cc, err)
	}

	conn := m.connections.Connect(cc.tenantID)
	verifier, err := m.connections.Verifier(conn.ConnectionID)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("opened pending connection %s", conn.ConnectionID)
	return m.success(cc, map[string]interface{}{
		"connection":    conn,
		"code_verifier": verifier,
	})
}

func (m *Manager) handleCompleteConnection(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	connectionID := argString(args, "connection_id")
	verifier := argString(args, "code_verifier")
	if connectionID == "" || verifier == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "connection_id and code_verifier are required"))
	}

	conn, err := m.connections.Complete(connectionID, verifier)
	if err != nil {
		return m.failure(cc, err)
	}
	cc.log("completed connection %s", connectionID)
	return m.success(cc, conn)
}

func (m *Manager) handleDisconnectTenant(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	if cc.tenantID == "" {
		return m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "tenant_id is required"))
	}
	if err := m.connections.Disconnect(cc.tenantID); err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, map[string]interface{}{"tenant_id": cc.tenantID, "disconnected": true})
}

func (m *Manager) handleListConnections(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	return m.success(cc, m.connections.List())
}

// --- audit -------------------------------------------------------------------

func (m *Manager) handleGetAuditLog(ctx context.Context, cc *callState, args map[string]interface{}) *envelope.Response {
	limit := argInt(args, "limit")
	cc.sqlQueries = append(cc.sqlQueries, "SELECT id, tenant_id, tool_name, action_type, success, request_id, error_message, execution_time_ms, created_at FROM audit_log WHERE tenant_id = ? ORDER BY created_at DESC LIMIT ?")
	entries, err := m.store.ListAudit(ctx, cc.tenantID, limit)
	if err != nil {
		return m.failure(cc, err)
	}
	return m.success(cc, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
