package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgersim/mcp-ledger-sim/internal/connection"
	"github.com/ledgersim/mcp-ledger-sim/internal/recovery"
	"github.com/ledgersim/mcp-ledger-sim/internal/simulation"
	"github.com/ledgersim/mcp-ledger-sim/internal/storage"
	"github.com/ledgersim/mcp-ledger-sim/internal/tenant"
	"github.com/ledgersim/mcp-ledger-sim/internal/validation"
	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/envelope"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(Config{
		Tenants:          tenant.NewDirectory(),
		Store:            storage.NewMemoryStore(nil),
		Injector:         simulation.NewInjector(),
		Connections:      connection.NewManager(),
		Engine:           validation.NewEngine(validation.Policy{}),
		DefaultVerbosity: envelope.Diagnostic,
	})
}

func callTool(t *testing.T, m *Manager, name string, args map[string]interface{}) *envelope.Response {
	t.Helper()
	result, err := m.HandleCallTool(context.Background(), name, args)
	require.NoError(t, err)
	resp, ok := result.(*envelope.Response)
	require.True(t, ok, "expected an envelope response")
	return resp
}

// invoiceArgs builds a create_invoice argument map valid against the
// seeded acme-au-001 tenant.
func invoiceArgs(extra map[string]interface{}) map[string]interface{} {
	args := map[string]interface{}{
		"tenant_id": "acme-au-001",
		"invoice": map[string]interface{}{
			"contact": map[string]interface{}{"contact_id": "c-au-0001"},
			"line_items": []interface{}{
				map[string]interface{}{
					"description":  "Consulting",
					"quantity":     float64(2),
					"unit_amount":  "150.00",
					"account_code": "200",
					"tax_type":     "OUTPUT",
				},
			},
			"date":     "2026-03-01",
			"due_date": "2026-03-31",
		},
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

func TestHandleListTools(t *testing.T) {
	m := newTestManager(t)

	listed := m.HandleListTools()
	assert.Len(t, listed, 31)

	names := make(map[string]bool, len(listed))
	for _, tool := range listed {
		names[tool.Name] = true
	}
	for _, want := range []string{"get_mcp_capabilities", "introspect_enums", "validate_payload", "create_invoice", "simulate_network_conditions", "get_audit_log"} {
		assert.True(t, names[want], "catalog missing %s", want)
	}
}

func TestUnknownToolIsTransportError(t *testing.T) {
	m := newTestManager(t)

	_, err := m.HandleCallTool(context.Background(), "export_ledger", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransportMethodNotFound, errors.GetCode(err))
}

func TestCancelledContextIsError(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.HandleCallTool(ctx, "get_mcp_capabilities", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateInvoiceSuccess(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "create_invoice", invoiceArgs(nil))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1.0, resp.Meta.Score)
	assert.NotEmpty(t, resp.Meta.RequestID)

	inv, ok := resp.Data.(*tenant.Invoice)
	require.True(t, ok)
	assert.Contains(t, inv.InvoiceID, "inv-")
	assert.Equal(t, "DRAFT", string(inv.Status))
	assert.Equal(t, "AUD", inv.Currency)
	assert.Equal(t, "330", inv.Total.StringFixed(0))
}

func TestCreateInvoiceValidationFailure(t *testing.T) {
	m := newTestManager(t)

	args := invoiceArgs(nil)
	invoice := args["invoice"].(map[string]interface{})
	invoice["line_items"].([]interface{})[0].(map[string]interface{})["account_code"] = "999"

	resp := callTool(t, m, "create_invoice", args)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Less(t, resp.Meta.Score, 1.0)

	result, ok := resp.Data.(*validation.Result)
	require.True(t, ok)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)

	require.NotNil(t, resp.Diagnostics)
	assert.Equal(t, result.Errors[0], resp.Diagnostics.RootCause)

	action, ok := resp.Recovery.(*recovery.Action)
	require.True(t, ok)
	assert.Equal(t, recovery.ActionFindValidAccountCodes, action.SuggestedActionID)
	require.NotNil(t, action.NextToolCall)
	assert.Equal(t, "introspect_enums", action.NextToolCall.Name)
}

func TestValidationFailureIsNotWritten(t *testing.T) {
	m := newTestManager(t)

	args := invoiceArgs(nil)
	invoice := args["invoice"].(map[string]interface{})
	invoice["invoice_id"] = "inv-rejected"
	invoice["contact"] = map[string]interface{}{"contact_id": "c-missing"}

	resp := callTool(t, m, "create_invoice", args)
	require.False(t, resp.Success)

	get := callTool(t, m, "get_invoice", map[string]interface{}{
		"tenant_id":  "acme-au-001",
		"invoice_id": "inv-rejected",
	})
	assert.False(t, get.Success)
}

func TestIdempotencyReplay(t *testing.T) {
	m := newTestManager(t)

	args := invoiceArgs(map[string]interface{}{"idempotency_key": "key-1"})
	first := callTool(t, m, "create_invoice", args)
	require.True(t, first.Success)

	second := callTool(t, m, "create_invoice", args)
	require.True(t, second.Success)
	require.NotNil(t, second.Meta)
	// The replay returns the cached envelope verbatim, original request id
	// included.
	assert.Equal(t, first.Meta.RequestID, second.Meta.RequestID)

	all := callTool(t, m, "list_invoices", map[string]interface{}{"tenant_id": "acme-au-001"})
	invoices, ok := all.Data.([]tenant.Invoice)
	require.True(t, ok)
	assert.Len(t, invoices, 1)
}

func TestFailuresAreNotCached(t *testing.T) {
	m := newTestManager(t)

	bad := invoiceArgs(map[string]interface{}{"idempotency_key": "key-2"})
	invoice := bad["invoice"].(map[string]interface{})
	invoice["line_items"].([]interface{})[0].(map[string]interface{})["account_code"] = "999"
	resp := callTool(t, m, "create_invoice", bad)
	require.False(t, resp.Success)

	// A retry with the same key and a corrected payload executes fresh.
	good := invoiceArgs(map[string]interface{}{"idempotency_key": "key-2"})
	resp = callTool(t, m, "create_invoice", good)
	assert.True(t, resp.Success)
}

func TestSimulatedRateLimitBecomesFailureEnvelope(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "simulate_network_conditions", map[string]interface{}{
		"tenant_id":  "acme-au-001",
		"conditions": map[string]interface{}{"rate_limit_remaining": float64(0)},
	})
	require.True(t, resp.Success)

	resp = callTool(t, m, "list_invoices", map[string]interface{}{"tenant_id": "acme-au-001"})
	require.False(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(errors.ErrCodeRateLimited), data["code"])

	action, ok := resp.Recovery.(*recovery.Action)
	require.True(t, ok)
	assert.Equal(t, recovery.ActionClearSimulation, action.SuggestedActionID)

	// The chaos tools stay reachable while faults are active.
	resp = callTool(t, m, "clear_simulation", map[string]interface{}{"tenant_id": "acme-au-001"})
	require.True(t, resp.Success)

	resp = callTool(t, m, "list_invoices", map[string]interface{}{"tenant_id": "acme-au-001"})
	assert.True(t, resp.Success)
}

func TestSimulateDefaultsRateLimitToUnlimited(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "simulate_network_conditions", map[string]interface{}{
		"tenant_id":  "acme-au-001",
		"conditions": map[string]interface{}{"error_rate": 1.0},
	})
	require.True(t, resp.Success)

	// Every call fails with the simulated fault, never the rate limit.
	for i := 0; i < 3; i++ {
		resp = callTool(t, m, "list_invoices", map[string]interface{}{"tenant_id": "acme-au-001"})
		require.False(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, string(errors.ErrCodeSimulatedFault), data["code"])
	}
}

func TestSimulateRejectsOutOfRangeConditions(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "simulate_network_conditions", map[string]interface{}{
		"tenant_id":  "acme-au-001",
		"conditions": map[string]interface{}{"error_rate": 1.5},
	})
	require.False(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, string(errors.ErrCodeValidationRange), data["code"])
}

func TestVerbosityShapesResponse(t *testing.T) {
	m := newTestManager(t)

	silent := callTool(t, m, "list_invoices", map[string]interface{}{
		"tenant_id": "acme-au-001",
		"verbosity": "silent",
	})
	assert.True(t, silent.Success)
	assert.Nil(t, silent.Meta)
	assert.Nil(t, silent.Diagnostics)
	assert.Nil(t, silent.Debug)

	compact := callTool(t, m, "list_invoices", map[string]interface{}{
		"tenant_id": "acme-au-001",
		"verbosity": "compact",
	})
	require.NotNil(t, compact.Meta)
	assert.Nil(t, compact.Diagnostics)

	debug := callTool(t, m, "create_invoice", invoiceArgs(map[string]interface{}{"verbosity": "debug"}))
	require.NotNil(t, debug.Debug)
	assert.NotEmpty(t, debug.Debug.Logs)
}

func TestUnknownTenantFailureSuggestsTenantList(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "list_invoices", map[string]interface{}{"tenant_id": "nope"})
	require.False(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, string(errors.ErrCodeTenantNotFound), data["code"])

	action, ok := resp.Recovery.(*recovery.Action)
	require.True(t, ok)
	assert.Equal(t, recovery.ActionListTenants, action.SuggestedActionID)
	require.NotNil(t, action.NextToolCall)
	assert.Equal(t, "get_mcp_capabilities", action.NextToolCall.Name)
}

func TestValidatePayloadDoesNotWrite(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "validate_payload", map[string]interface{}{
		"tenant_id":   "acme-au-001",
		"entity_type": "Invoice",
		"payload":     invoiceArgs(nil)["invoice"],
	})
	require.True(t, resp.Success)

	result, ok := resp.Data.(*validation.Result)
	require.True(t, ok)
	assert.True(t, result.Valid)
	assert.Equal(t, 1.0, result.Score)

	all := callTool(t, m, "list_invoices", map[string]interface{}{"tenant_id": "acme-au-001"})
	invoices := all.Data.([]tenant.Invoice)
	assert.Empty(t, invoices)
}

func TestIntrospectEnumsRoundTrip(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "introspect_enums", map[string]interface{}{
		"tenant_id":   "acme-au-001",
		"entity_type": "TaxRate",
		"filter":      map[string]interface{}{"status": "ACTIVE"},
	})
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "TaxRate", data["entity_type"])

	// Every returned tax type must validate when copied into a payload.
	taxRates, ok := data["values"].([]accounting.TaxRate)
	require.True(t, ok)
	require.NotEmpty(t, taxRates)
	for _, tr := range taxRates {
		args := invoiceArgs(nil)
		invoice := args["invoice"].(map[string]interface{})
		invoice["line_items"].([]interface{})[0].(map[string]interface{})["tax_type"] = tr.TaxType
		check := callTool(t, m, "validate_payload", map[string]interface{}{
			"tenant_id":   "acme-au-001",
			"entity_type": "Invoice",
			"payload":     invoice,
		})
		assert.True(t, check.Success, "tax type %s did not round-trip", tr.TaxType)
	}
}

func TestGetCapabilitiesListsTenantsOnRequest(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "get_mcp_capabilities", map[string]interface{}{})
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.NotContains(t, data, "tenants")

	resp = callTool(t, m, "get_mcp_capabilities", map[string]interface{}{"include_tenants": true})
	data = resp.Data.(map[string]interface{})
	assert.Contains(t, data, "tenants")
}

func TestConnectionLifecycleTools(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "connect_tenant", map[string]interface{}{"tenant_id": "acme-au-001"})
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	conn := data["connection"].(*connection.Connection)
	verifier := data["code_verifier"].(string)

	resp = callTool(t, m, "complete_connection", map[string]interface{}{
		"connection_id": conn.ConnectionID,
		"code_verifier": verifier,
	})
	require.True(t, resp.Success)

	resp = callTool(t, m, "disconnect_tenant", map[string]interface{}{"tenant_id": "acme-au-001"})
	assert.True(t, resp.Success)
}

func TestAuditTrailRecordsCalls(t *testing.T) {
	m := newTestManager(t)

	callTool(t, m, "create_invoice", invoiceArgs(nil))
	bad := invoiceArgs(nil)
	bad["invoice"].(map[string]interface{})["contact"] = map[string]interface{}{"contact_id": "c-missing"}
	callTool(t, m, "create_invoice", bad)

	resp := callTool(t, m, "get_audit_log", map[string]interface{}{"tenant_id": "acme-au-001"})
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	entries := data["entries"].([]storage.AuditRecord)
	// Two creates plus the audit read itself have not all landed yet; the
	// read is recorded after its own response is built.
	require.GreaterOrEqual(t, len(entries), 2)

	var successes, failures int
	for _, e := range entries {
		if e.ToolName != "create_invoice" {
			continue
		}
		assert.Equal(t, "create", e.ActionType)
		if e.Success {
			successes++
		} else {
			failures++
			assert.NotEmpty(t, e.ErrorMessage)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
}

func TestAuditErrorMessageIgnoresVerbosity(t *testing.T) {
	m := newTestManager(t)

	// Compact responses carry no diagnostics block, but the audit record
	// must still capture why the call failed.
	bad := invoiceArgs(map[string]interface{}{"verbosity": "compact"})
	bad["invoice"].(map[string]interface{})["line_items"].([]interface{})[0].(map[string]interface{})["account_code"] = "999"
	resp := callTool(t, m, "create_invoice", bad)
	require.False(t, resp.Success)
	require.Nil(t, resp.Diagnostics)

	// Same for an infrastructure fault at silent.
	resp = callTool(t, m, "get_invoice", map[string]interface{}{
		"tenant_id":  "acme-au-001",
		"invoice_id": "inv-missing",
		"verbosity":  "silent",
	})
	require.False(t, resp.Success)

	audit := callTool(t, m, "get_audit_log", map[string]interface{}{"tenant_id": "acme-au-001"})
	require.True(t, audit.Success)
	entries := audit.Data.(map[string]interface{})["entries"].([]storage.AuditRecord)

	byTool := make(map[string]storage.AuditRecord, len(entries))
	for _, e := range entries {
		byTool[e.ToolName] = e
	}
	create, ok := byTool["create_invoice"]
	require.True(t, ok)
	assert.False(t, create.Success)
	assert.Contains(t, create.ErrorMessage, "999")
	get, ok := byTool["get_invoice"]
	require.True(t, ok)
	assert.False(t, get.Success)
	assert.Contains(t, get.ErrorMessage, "inv-missing")
}

func TestUpdateContactPartialKeepsFlags(t *testing.T) {
	m := newTestManager(t)

	resp := callTool(t, m, "update_contact", map[string]interface{}{
		"tenant_id": "acme-au-001",
		"contact": map[string]interface{}{
			"contact_id": "c-au-0003",
			"email":      "new@boutique.example",
		},
	})
	require.True(t, resp.Success)

	contact, ok := resp.Data.(accounting.Contact)
	require.True(t, ok)
	assert.Equal(t, "new@boutique.example", contact.Email)
	assert.True(t, contact.IsCustomer)
	assert.True(t, contact.IsSupplier)

	// An explicit false still clears a flag.
	resp = callTool(t, m, "update_contact", map[string]interface{}{
		"tenant_id": "acme-au-001",
		"contact": map[string]interface{}{
			"contact_id":  "c-au-0003",
			"is_supplier": false,
		},
	})
	require.True(t, resp.Success)
	contact = resp.Data.(accounting.Contact)
	assert.True(t, contact.IsCustomer)
	assert.False(t, contact.IsSupplier)
}
