package transport

import (
	"context"

	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
	"github.com/ledgersim/mcp-ledger-sim/internal/tools"
)

// ToolHandler is the surface the JSON-RPC layer needs from the tool
// manager.
type ToolHandler interface {
	HandleListTools() []tools.Tool
	HandleCallTool(ctx context.Context, toolName string, args map[string]interface{}) (interface{}, error)
}

// Server routes JSON-RPC methods to the tool manager. It owns request
// shape validation; everything below the tools/call boundary is the
// manager's problem.
type Server struct {
	handler ToolHandler
	logger  *logging.Logger
}

// NewServer creates a JSON-RPC server over a tool handler.
func NewServer(handler ToolHandler, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Server{handler: handler, logger: logger}
}

// validateRequest checks the JSON-RPC envelope, returning an error
// response for malformed requests and nil for valid ones.
func (s *Server) validateRequest(req *JSONRPCRequest) *JSONRPCResponse {
	if req == nil {
		return NewInvalidRequestError(nil, "Request cannot be null")
	}
	if req.JSONRPC != "2.0" {
		return NewInvalidRequestError(req.ID, "Invalid or missing 'jsonrpc' field, must be '2.0'")
	}
	if req.Method == "" {
		return NewInvalidRequestError(req.ID, "Missing or empty 'method' field")
	}
	// Notifications carry no ID; every method here returns a result, so
	// they are rejected rather than silently dropped.
	if req.ID == nil {
		return NewInvalidRequestError(nil, "Missing 'id' field - notifications are not supported")
	}
	return nil
}

// HandleRequest processes a JSON-RPC request and returns a response.
func (s *Server) HandleRequest(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if errResp := s.validateRequest(req); errResp != nil {
		return errResp
	}

	switch req.Method {
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return NewMethodNotFoundError(req.ID, req.Method)
	}
}

func (s *Server) handleToolsList(req *JSONRPCRequest) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": s.handler.HandleListTools(),
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if req.Params == nil {
		return NewInvalidParamsError(req.ID, "Missing 'params' field for tools/call method")
	}

	name, ok := req.Params["name"]
	if !ok {
		return NewInvalidParamsError(req.ID, "Missing 'name' field in params")
	}
	toolName, ok := name.(string)
	if !ok {
		return NewInvalidParamsError(req.ID, "Field 'name' must be a string")
	}
	if toolName == "" {
		return NewInvalidParamsError(req.ID, "Field 'name' cannot be empty")
	}

	arguments := make(map[string]interface{})
	if args, exists := req.Params["arguments"]; exists && args != nil {
		argsMap, ok := args.(map[string]interface{})
		if !ok {
			return NewInvalidParamsError(req.ID, "Field 'arguments' must be an object")
		}
		arguments = argsMap
	}

	if !tools.IsRegistered(toolName) {
		return NewMethodNotFoundError(req.ID, toolName)
	}

	result, err := s.handler.HandleCallTool(ctx, toolName, arguments)
	if err != nil {
		s.logger.WithContext(ctx).WithError(LoggableError(err)).Warn("Tool call failed", "tool", toolName)
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   ToJSONRPCError(err),
		}
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}
