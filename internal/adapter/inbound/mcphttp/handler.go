package mcphttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
	"github.com/i2y/mcpboot/pkg/shared/mcpjsonrpc"
)

// Handlers struct holds dependencies for the admin HTTP handlers.
type Handlers struct {
	serveToolsUseCase *usecase.ServeToolsUseCase
	invokeToolUseCase *usecase.InvokeToolUseCase
	logger            *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(
	serveUC *usecase.ServeToolsUseCase,
	invokeUC *usecase.InvokeToolUseCase,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		serveToolsUseCase: serveUC,
		invokeToolUseCase: invokeUC,
		logger:            logger.With("component", "mcphttp_handler"),
	}
}

// RegisterAdminRoutes sets up the HTTP routes for admin endpoints.
func (h *Handlers) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /admin/tools", h.handleListTools)
	mux.HandleFunc("POST /admin/call", h.handleCallTool)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTools implements GET /admin/tools
func (h *Handlers) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools := h.serveToolsUseCase.Execute(r.Context())
	if tools == nil {
		tools = []domain.Tool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

// handleCallTool implements POST /admin/call. The body is a JSON-RPC
// tools/call request and the reply a JSON-RPC response.
func (h *Handlers) handleCallTool(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		mcpjsonrpc.Request
		Params mcpjsonrpc.CallToolParams `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode call request body", slog.Any("error", err))
		writeJSON(w, http.StatusBadRequest, mcpjsonrpc.NewError(nil, mcpjsonrpc.CodeParseError, err.Error()))
		return
	}
	if req.Version != mcpjsonrpc.Version {
		writeJSON(w, http.StatusBadRequest, mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidRequest, "jsonrpc must be \"2.0\""))
		return
	}
	if req.Method != mcpjsonrpc.MethodCallTool {
		writeJSON(w, http.StatusOK, mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeMethodNotFound, "unknown method "+req.Method))
		return
	}
	if req.Params.Name == "" {
		writeJSON(w, http.StatusOK, mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeInvalidParams, "missing tool name"))
		return
	}

	h.logger.Info("Received admin tool call", slog.String("tool_name", req.Params.Name))
	result, err := h.invokeToolUseCase.Execute(r.Context(), req.Params.Name, req.Params.Arguments)
	if err != nil {
		var mappingErr *domain.MappingError
		code := mcpjsonrpc.CodeServerErrorToolFailed
		switch {
		case errors.Is(err, domain.ErrToolNotFound):
			code = mcpjsonrpc.CodeServerErrorToolNotFound
		case errors.As(err, &mappingErr):
			code = mcpjsonrpc.CodeInvalidParams
		}
		writeJSON(w, http.StatusOK, mcpjsonrpc.NewError(req.ID, code, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, mcpjsonrpc.NewResult(req.ID, result))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
