package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/i2y/mcpboot/internal/adapter/outbound/middleware"
	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
)

// StreamablePath is where the streamable HTTP transport is mounted.
const StreamablePath = "/mcp"

// Options identify the server to MCP clients.
type Options struct {
	Name         string
	Version      string
	Instructions string
}

// Server publishes registered tools through mark3labs/mcp-go and serves its transports.
type Server struct {
	mcp        *server.MCPServer
	serveTools *usecase.ServeToolsUseCase
	invokeTool *usecase.InvokeToolUseCase
	logger     *slog.Logger
}

// New creates the protocol server. Tools are not visible until Publish is called.
func New(opts Options, serveTools *usecase.ServeToolsUseCase, invokeTool *usecase.InvokeToolUseCase, logger *slog.Logger) *Server {
	logger = logger.With("component", "mcpserver")

	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest) {
		logger.DebugContext(ctx, "Received tool call", slog.String("tool_name", message.Params.Name), slog.Any("request_id", id))
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.WarnContext(ctx, "MCP request failed", slog.String("method", string(method)), slog.Any("request_id", id), slog.Any("error", err))
	})

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(hooks),
	}
	if opts.Instructions != "" {
		serverOpts = append(serverOpts, server.WithInstructions(opts.Instructions))
	}

	return &Server{
		mcp:        server.NewMCPServer(opts.Name, opts.Version, serverOpts...),
		serveTools: serveTools,
		invokeTool: invokeTool,
		logger:     logger,
	}
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Publish adds every registered tool to the protocol server.
func (s *Server) Publish(ctx context.Context) error {
	tools := s.serveTools.Execute(ctx)
	for _, tool := range tools {
		mcpTool, err := ToMCPTool(tool)
		if err != nil {
			return fmt.Errorf("failed to publish tool %s: %w", tool.Name, err)
		}
		s.mcp.AddTool(mcpTool, s.callHandler(tool.Name))
	}
	s.logger.InfoContext(ctx, "Published tools", slog.Int("count", len(tools)))
	return nil
}

// ToMCPTool converts a tool descriptor into its mcp-go form.
// Annotations are only filled when the tool declared hints.
func ToMCPTool(tool domain.Tool) (mcp.Tool, error) {
	raw, err := tool.InputSchema.MarshalRaw()
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode input schema: %w", err)
	}
	mcpTool := mcp.NewToolWithRawSchema(tool.Name, tool.Description, raw)
	if hints := tool.Annotations; hints != nil {
		mcpTool.Annotations = mcp.ToolAnnotation{
			ReadOnlyHint:    hints.ReadOnlyHint,
			DestructiveHint: hints.DestructiveHint,
			IdempotentHint:  hints.IdempotentHint,
			OpenWorldHint:   hints.OpenWorldHint,
		}
	}
	return mcpTool, nil
}

func (s *Server) callHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.invokeTool.Execute(ctx, name, request.GetArguments())
		if err != nil {
			var mappingErr *domain.MappingError
			var invocationErr *domain.HandlerInvocationError
			switch {
			case errors.As(err, &mappingErr):
				return mcp.NewToolResultError(mappingErr.Error()), nil
			case errors.As(err, &invocationErr):
				return mcp.NewToolResultError(invocationErr.Error()), nil
			default:
				return nil, err
			}
		}
		return ToCallToolResult(result)
	}
}

// ToCallToolResult converts a handler result into a CallToolResult.
// Strings become text content, CallToolResults pass through and
// anything else is encoded as JSON text.
func ToCallToolResult(result any) (*mcp.CallToolResult, error) {
	switch r := result.(type) {
	case nil:
		return mcp.NewToolResultText(""), nil
	case *mcp.CallToolResult:
		return r, nil
	case string:
		return mcp.NewToolResultText(r), nil
	default:
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool result: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// SSEHandler returns the SSE transport wrapped by mws.
func (s *Server) SSEHandler(baseURL string, mws []middleware.Middleware) http.Handler {
	return middleware.Chain(server.NewSSEServer(s.mcp, server.WithBaseURL(baseURL)), mws)
}

// StreamableHandler returns the streamable HTTP transport mounted at StreamablePath, wrapped by mws.
func (s *Server) StreamableHandler(mws []middleware.Middleware) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(StreamablePath, server.NewStreamableHTTPServer(s.mcp))
	return middleware.Chain(mux, mws)
}

// ServeStdio serves the protocol over in and out until ctx is done.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.InfoContext(ctx, "Starting in STDIO mode")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}
