// server.go
package openapi2mcp

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ubermorgenland/pangolin-mcp/pkg/auth"
)

// DefaultBasePath is where the streamable HTTP endpoint is mounted.
const DefaultBasePath = "/mcp"

// NewServer creates an MCP server and registers every operation of d as a tool.
// In read-only mode write tools stay registered, so calling one yields a
// policy error result, but they are filtered out of tools/list.
// A tools/call missing a required path parameter is answered with an
// INVALID_REQUEST JSON-RPC error. opts must not replace the hooks.
// Example usage:
//
//	d := openapi2mcp.NewDispatcher(ops, api, openapi2mcp.WithReadOnly(true))
//	srv := openapi2mcp.NewServer("mcp-pangolin", "0.1.0", d,
//		mcpserver.WithInstructions("Pangolin Integration API server."))
//	openapi2mcp.ServeStdio(srv, nil)
func NewServer(name, version string, d *Dispatcher, opts ...mcpserver.ServerOption) *mcpserver.MCPServer {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRequestInitialization(d.rejectInvalidCall)

	base := []mcpserver.ServerOption{
		mcpserver.WithHooks(hooks),
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
		mcpserver.WithToolFilter(d.filterTools),
	}
	srv := mcpserver.NewMCPServer(name, version, append(base, opts...)...)
	RegisterTools(srv, d)
	return srv
}

// RegisterTools adds one tool per operation of d, in extraction order.
func RegisterTools(srv *mcpserver.MCPServer, d *Dispatcher) {
	for _, op := range d.Operations() {
		srv.AddTool(BuildTool(op), d.HandleTool)
	}
}

// rejectInvalidCall runs before mcp-go routes a request. Errors returned here
// reach the client as INVALID_REQUEST; errors from tool handlers would be
// reported as INTERNAL_ERROR.
func (d *Dispatcher) rejectInvalidCall(_ context.Context, _ any, message any) error {
	raw, ok := message.(json.RawMessage)
	if !ok {
		return nil
	}
	var req struct {
		Method mcp.MCPMethod `json:"method"`
		Params struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"params"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.Method != mcp.MethodToolsCall {
		return nil
	}
	if err := d.CheckCall(req.Params.Name, req.Params.Arguments); IsRequestError(err) {
		return err
	}
	return nil
}

// filterTools hides write tools from listings in read-only mode.
func (d *Dispatcher) filterTools(_ context.Context, tools []mcp.Tool) []mcp.Tool {
	if !d.readOnly {
		return tools
	}
	visible := make([]mcp.Tool, 0, len(tools))
	for _, tool := range tools {
		if op, ok := d.Lookup(tool.Name); ok && !op.Method.IsWrite() {
			visible = append(visible, tool)
		}
	}
	return visible
}

// ServeStdio serves srv over stdin/stdout. errLog receives transport errors;
// nil keeps the mcp-go default.
func ServeStdio(srv *mcpserver.MCPServer, errLog *log.Logger) error {
	if errLog == nil {
		return mcpserver.ServeStdio(srv)
	}
	return mcpserver.ServeStdio(srv, mcpserver.WithErrorLogger(errLog))
}

// authContextFunc lets an incoming "Authorization: Bearer" header replace the
// configured API key for calls made during that HTTP request.
func authContextFunc(ctx context.Context, r *http.Request) context.Context {
	if authCtx := auth.CreateAuthContext(r); authCtx != nil {
		return auth.WithAuthContext(ctx, authCtx)
	}
	return ctx
}

// HandlerForStreamableHTTP returns an http.Handler serving srv with the
// streamable HTTP transport at basePath.
// Example usage:
//
//	mux := http.NewServeMux()
//	mux.Handle("/mcp", openapi2mcp.HandlerForStreamableHTTP(srv, "/mcp"))
func HandlerForStreamableHTTP(srv *mcpserver.MCPServer, basePath string) http.Handler {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithHTTPContextFunc(authContextFunc),
		mcpserver.WithEndpointPath(basePath),
	)
}

// GetStreamableHTTPURL returns the URL for the streamable HTTP endpoint.
// Example usage:
//
//	url := openapi2mcp.GetStreamableHTTPURL(":8080", "/mcp")
//	// Returns: "http://localhost:8080/mcp"
func GetStreamableHTTPURL(addr, basePath string) string {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return "http://" + normalizeAddrToHost(addr) + basePath
}

// normalizeAddrToHost converts a listen address to a host:port usable in URLs.
// ":8080" becomes "localhost:8080".
func normalizeAddrToHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "localhost"
	}
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
