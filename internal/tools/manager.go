package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgersim/mcp-ledger-sim/internal/connection"
	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
	"github.com/ledgersim/mcp-ledger-sim/internal/recovery"
	"github.com/ledgersim/mcp-ledger-sim/internal/simulation"
	"github.com/ledgersim/mcp-ledger-sim/internal/storage"
	"github.com/ledgersim/mcp-ledger-sim/internal/tenant"
	"github.com/ledgersim/mcp-ledger-sim/internal/validation"
	"github.com/ledgersim/mcp-ledger-sim/pkg/accounting"
	"github.com/ledgersim/mcp-ledger-sim/pkg/envelope"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// Manager dispatches tool calls. It owns the wiring between the pure
// validation/recovery core and the stateful collaborators (tenant
// directory, idempotency/audit store, fault injector, connections); the
// core itself never sees any of them.
type Manager struct {
	tenants          *tenant.Directory
	store            storage.Store
	injector         *simulation.Injector
	connections      *connection.Manager
	engine           *validation.Engine
	defaultVerbosity envelope.Verbosity
	logger           *logging.Logger
}

// Config wires a Manager.
type Config struct {
	Tenants          *tenant.Directory
	Store            storage.Store
	Injector         *simulation.Injector
	Connections      *connection.Manager
	Engine           *validation.Engine
	DefaultVerbosity envelope.Verbosity
	Logger           *logging.Logger
}

// NewManager creates a Manager from its collaborators.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Manager{
		tenants:          cfg.Tenants,
		store:            cfg.Store,
		injector:         cfg.Injector,
		connections:      cfg.Connections,
		engine:           cfg.Engine,
		defaultVerbosity: cfg.DefaultVerbosity,
		logger:           logger,
	}
}

// HandleListTools returns the registered tool catalog.
func (m *Manager) HandleListTools() []Tool {
	return Catalog()
}

// callState carries the per-invocation bookkeeping every handler needs.
type callState struct {
	requestID      string
	tenantID       string
	verbosity      envelope.Verbosity
	idempotencyKey string
	start          time.Time
	logs           []string
	sqlQueries     []string
	// failureReason feeds the audit trail. Recorded at failure time so the
	// audit record does not depend on the envelope's verbosity tier.
	failureReason string
}

func (cc *callState) log(format string, args ...interface{}) {
	cc.logs = append(cc.logs, fmt.Sprintf(format, args...))
}

// HandleCallTool executes one tool call. A non-nil error is reserved for
// transport-level problems (unknown tool); every domain outcome, including
// validation failures and infrastructure faults, comes back as an
// envelope with success=false.
func (m *Manager) HandleCallTool(ctx context.Context, toolName string, args map[string]interface{}) (result interface{}, err error) {
	if !IsRegistered(toolName) {
		return nil, errors.Newf(errors.ErrCodeTransportMethodNotFound, "unknown tool: %s", toolName)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	cc := m.begin(args)
	ctx = logging.WithRequestID(ctx, cc.requestID)
	if cc.tenantID != "" {
		ctx = logging.WithTenantID(ctx, cc.tenantID)
	}
	m.logger.LogToolCall(ctx, toolName, cc.tenantID)

	// The core is written so this path is unreachable; the recover is the
	// outermost guard the transport contract requires.
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithContext(ctx).Error("Panic in tool handler", "tool", toolName, "panic", fmt.Sprint(r))
			resp := m.failure(cc, errors.Newf(errors.ErrCodePanic, "Internal error in %s", toolName))
			m.audit(ctx, cc, toolName, resp)
			result, err = resp, nil
		}
	}()

	// Simulated network conditions gate every tenant-scoped call except
	// the chaos tools themselves, which must stay reachable to recover.
	if cc.tenantID != "" && toolName != "simulate_network_conditions" && toolName != "clear_simulation" {
		if simErr := m.injector.Apply(ctx, cc.tenantID); simErr != nil {
			resp := m.failure(cc, simErr)
			m.audit(ctx, cc, toolName, resp)
			return resp, nil
		}
	}

	resp := m.dispatch(ctx, cc, toolName, args)
	m.audit(ctx, cc, toolName, resp)
	m.logger.LogToolResult(ctx, toolName, time.Since(cc.start), nil)
	return resp, nil
}

func (m *Manager) dispatch(ctx context.Context, cc *callState, toolName string, args map[string]interface{}) *envelope.Response {
	switch toolName {
	case "get_mcp_capabilities":
		return m.handleGetCapabilities(ctx, cc, args)
	case "introspect_enums":
		return m.handleIntrospectEnums(ctx, cc, args)
	case "validate_payload":
		return m.handleValidatePayload(ctx, cc, args)
	case "create_contact":
		return m.handleCreateContact(ctx, cc, args)
	case "get_contact":
		return m.handleGetContact(ctx, cc, args)
	case "list_contacts":
		return m.handleListContacts(ctx, cc, args)
	case "update_contact":
		return m.handleUpdateContact(ctx, cc, args)
	case "archive_contact":
		return m.handleArchiveContact(ctx, cc, args)
	case "create_invoice":
		return m.handleCreateInvoice(ctx, cc, args)
	case "get_invoice":
		return m.handleGetInvoice(ctx, cc, args)
	case "list_invoices":
		return m.handleListInvoices(ctx, cc, args)
	case "update_invoice":
		return m.handleUpdateInvoice(ctx, cc, args)
	case "create_quote":
		return m.handleCreateQuote(ctx, cc, args)
	case "get_quote":
		return m.handleGetQuote(ctx, cc, args)
	case "update_quote_status":
		return m.handleUpdateQuoteStatus(ctx, cc, args)
	case "create_credit_note":
		return m.handleCreateCreditNote(ctx, cc, args)
	case "get_credit_note":
		return m.handleGetCreditNote(ctx, cc, args)
	case "list_credit_notes":
		return m.handleListCreditNotes(ctx, cc, args)
	case "allocate_credit_note":
		return m.handleAllocateCreditNote(ctx, cc, args)
	case "create_payment":
		return m.handleCreatePayment(ctx, cc, args)
	case "get_payment":
		return m.handleGetPayment(ctx, cc, args)
	case "delete_payment":
		return m.handleDeletePayment(ctx, cc, args)
	case "create_bank_transaction":
		return m.handleCreateBankTransaction(ctx, cc, args)
	case "list_bank_transactions":
		return m.handleListBankTransactions(ctx, cc, args)
	case "connect_tenant":
		return m.handleConnectTenant(ctx, cc, args)
	case "complete_connection":
		return m.handleCompleteConnection(ctx, cc, args)
	case "disconnect_tenant":
		return m.handleDisconnectTenant(ctx, cc, args)
	case "list_connections":
		return m.handleListConnections(ctx, cc, args)
	case "simulate_network_conditions":
		return m.handleSimulateNetworkConditions(ctx, cc, args)
	case "clear_simulation":
		return m.handleClearSimulation(ctx, cc, args)
	case "get_audit_log":
		return m.handleGetAuditLog(ctx, cc, args)
	default:
		// IsRegistered guarantees this is unreachable.
		return m.failure(cc, errors.Newf(errors.ErrCodeTransportMethodNotFound, "unknown tool: %s", toolName))
	}
}

// begin extracts the per-call bookkeeping from the raw arguments.
func (m *Manager) begin(args map[string]interface{}) *callState {
	verbosity := m.defaultVerbosity
	if v, ok := envelope.ParseVerbosity(argString(args, "verbosity")); ok {
		verbosity = v
	}
	return &callState{
		requestID:      uuid.New().String(),
		tenantID:       argString(args, "tenant_id"),
		verbosity:      verbosity,
		idempotencyKey: argString(args, "idempotency_key"),
		start:          time.Now(),
	}
}

// respond builds the envelope for this call, filling in the request
// bookkeeping and debug material.
func (m *Manager) respond(cc *callState, success bool, data interface{}, opts envelope.Options) *envelope.Response {
	opts.RequestID = cc.requestID
	opts.ExecutionTime = time.Since(cc.start)
	if opts.Logs == nil && len(cc.logs) > 0 {
		opts.Logs = cc.logs
	}
	if opts.SQLQueries == nil && len(cc.sqlQueries) > 0 {
		opts.SQLQueries = cc.sqlQueries
	}
	return envelope.Build(success, data, cc.verbosity, opts)
}

// success builds a plain success envelope.
func (m *Manager) success(cc *callState, data interface{}) *envelope.Response {
	return m.respond(cc, true, data, envelope.Options{})
}

// failure converts an infrastructure or business error into a failure
// envelope. Recovery comes from the infrastructure suggestion set; there
// is never a validation diff on this path.
func (m *Manager) failure(cc *callState, err error) *envelope.Response {
	code := errors.GetCode(err)
	cc.failureReason = errors.GetMessage(err)
	opts := envelope.Options{
		Narrative: errors.GetMessage(err),
		RootCause: string(code),
	}
	if action := recovery.SuggestInfrastructure(code); action != nil {
		opts.Recovery = action
	}
	data := map[string]interface{}{
		"error": errors.GetMessage(err),
		"code":  string(code),
	}
	return m.respond(cc, false, data, opts)
}

// validationFailure converts a failed validation result into a failure
// envelope carrying the result as data, the score, and the category-based
// recovery suggestion.
func (m *Manager) validationFailure(cc *callState, entityType accounting.EntityType, result *validation.Result) *envelope.Response {
	score := result.Score
	opts := envelope.Options{
		Score:     &score,
		Warnings:  result.Warnings,
		Narrative: fmt.Sprintf("Validation of the %s payload failed with %d error(s).", entityType, len(result.Errors)),
	}
	cc.failureReason = opts.Narrative
	if len(result.Errors) > 0 {
		opts.RootCause = result.Errors[0]
		cc.failureReason = result.Errors[0]
	}
	if action := recovery.Suggest(entityType, result); action != nil {
		opts.Recovery = action
	}
	return m.respond(cc, false, result, opts)
}

// snapshot fetches the tenant snapshot, converting failures into a ready
// failure envelope.
func (m *Manager) snapshot(ctx context.Context, cc *callState) (*accounting.TenantSnapshot, *envelope.Response) {
	if cc.tenantID == "" {
		return nil, m.failure(cc, errors.New(errors.ErrCodeTransportInvalidParams, "tenant_id is required"))
	}
	snap, err := m.tenants.GetSnapshot(ctx, cc.tenantID)
	if err != nil {
		return nil, m.failure(cc, err)
	}
	cc.log("fetched snapshot for tenant %s", cc.tenantID)
	return snap, nil
}

// replay checks the idempotency store for a cached outcome of this call.
func (m *Manager) replay(ctx context.Context, cc *callState) *envelope.Response {
	if cc.idempotencyKey == "" || cc.tenantID == "" {
		return nil
	}
	cc.sqlQueries = append(cc.sqlQueries, "SELECT response FROM idempotency_results WHERE tenant_id = ? AND key = ?")
	record, err := m.store.GetResult(ctx, cc.tenantID, cc.idempotencyKey)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Idempotency lookup failed")
		return nil
	}
	if record == nil {
		return nil
	}
	var resp envelope.Response
	if err := json.Unmarshal(record.Response, &resp); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Cached idempotency record is unreadable")
		return nil
	}
	cc.log("idempotency replay for key %s", cc.idempotencyKey)
	return &resp
}

// remember caches a successful write outcome under the call's idempotency
// key. Failures are not cached: nothing was created, so a retry should
// re-execute.
func (m *Manager) remember(ctx context.Context, cc *callState, toolName string, resp *envelope.Response) {
	if cc.idempotencyKey == "" || cc.tenantID == "" || resp == nil || !resp.Success {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Failed to marshal idempotency record")
		return
	}
	cc.sqlQueries = append(cc.sqlQueries, "INSERT INTO idempotency_results (tenant_id, key, tool_name, response, created_at) VALUES (?, ?, ?, ?, ?)")
	err = m.store.PutResult(ctx, &storage.IdempotencyRecord{
		TenantID:  cc.tenantID,
		Key:       cc.idempotencyKey,
		ToolName:  toolName,
		Response:  payload,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Failed to store idempotency record")
	}
}

// audit records the call outcome. Fire-and-forget: a failed audit write is
// logged and never fails the response.
func (m *Manager) audit(ctx context.Context, cc *callState, toolName string, resp *envelope.Response) {
	record := &storage.AuditRecord{
		ID:              uuid.New().String(),
		TenantID:        cc.tenantID,
		ToolName:        toolName,
		ActionType:      actionType(toolName),
		Success:         resp != nil && resp.Success,
		RequestID:       cc.requestID,
		ExecutionTimeMs: float64(time.Since(cc.start).Microseconds()) / 1000.0,
		CreatedAt:       time.Now().UTC(),
	}
	if resp != nil && !resp.Success {
		record.ErrorMessage = cc.failureReason
	}
	if err := m.store.RecordAudit(ctx, record); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Audit write failed")
	}
}

// actionType classifies a tool name for the audit trail.
func actionType(toolName string) string {
	switch {
	case strings.HasPrefix(toolName, "create_"):
		return "create"
	case strings.HasPrefix(toolName, "update_"), strings.HasPrefix(toolName, "allocate_"), strings.HasPrefix(toolName, "archive_"):
		return "update"
	case strings.HasPrefix(toolName, "delete_"), strings.HasPrefix(toolName, "disconnect_"):
		return "delete"
	case strings.HasPrefix(toolName, "simulate_"), toolName == "clear_simulation":
		return "simulate"
	case strings.HasPrefix(toolName, "connect_"), toolName == "complete_connection":
		return "connect"
	case toolName == "validate_payload":
		return "validate"
	default:
		return "read"
	}
}
