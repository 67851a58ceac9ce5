package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ubermorgenland/pangolin-mcp/pkg/auth"
	"github.com/ubermorgenland/pangolin-mcp/pkg/client"
	"github.com/ubermorgenland/pangolin-mcp/pkg/loader"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
	"github.com/ubermorgenland/pangolin-mcp/pkg/openapi2mcp"
)

// ServerName is the MCP implementation name reported to clients.
const ServerName = "mcp-pangolin"

// Version is reported to MCP clients; overridden at build time with -ldflags.
var Version = "0.1.0"

// Info describes the running service.
type Info struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Title          string `json:"title"`
	BaseURL        string `json:"base_url"`
	APIVersion     string `json:"api_version"`
	Mode           string `json:"mode"`
	AvailableTools int    `json:"available_tools"`
}

// Options configures a Service.
type Options struct {
	APIKey   string
	BaseURL  string
	ReadOnly bool
	// ClientOptions are passed to the Pangolin HTTP client.
	ClientOptions []client.Option
}

// Service owns the operations extracted from one document, the access policy
// and the HTTP client. It is immutable after construction.
type Service struct {
	doc        *loader.Document
	dispatcher *openapi2mcp.Dispatcher
	baseURL    string
	apiVersion string
	logger     *zap.Logger
}

// NewService extracts the operations of doc and prepares them for dispatch.
func NewService(doc *loader.Document, opts Options, logger *zap.Logger) (*Service, error) {
	if doc == nil {
		return nil, NewError(ErrorTypeValidation, "no OpenAPI document", "")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.APIKey == "" {
		return nil, NewError(ErrorTypeValidation, "API key is required", "")
	}

	clientOpts := append([]client.Option{client.WithLogger(logger)}, opts.ClientOptions...)
	api, err := client.New(opts.BaseURL, opts.APIKey, clientOpts...)
	if err != nil {
		return nil, Wrap(err, ErrorTypeValidation, "failed to create Pangolin client")
	}

	ops := openapi2mcp.ExtractOperations(doc)
	s := &Service{
		doc: doc,
		dispatcher: openapi2mcp.NewDispatcher(ops, api,
			openapi2mcp.WithReadOnly(opts.ReadOnly),
			openapi2mcp.WithDispatchLogger(logger)),
		baseURL:    opts.BaseURL,
		apiVersion: doc.Info.Version,
		logger:     logger.With(zap.String("component", "service")),
	}
	s.logStartup()
	return s, nil
}

func (s *Service) logStartup() {
	s.logger.Info("Loaded endpoints from OpenAPI document",
		zap.String("title", s.doc.Info.Title),
		zap.String("api_version", s.apiVersion),
		zap.Int("endpoints", len(s.dispatcher.Operations())),
		zap.Int("available", len(s.dispatcher.Available())))
	if s.dispatcher.ReadOnly() {
		s.logger.Info("Running in READ-ONLY mode - write operations are disabled")
	}

	schemes := auth.ExtractAuthSchemes(s.doc.Components.SecuritySchemes)
	hasBearer := false
	for _, scheme := range schemes {
		s.logger.Info("Found security scheme",
			zap.String("name", scheme.Name),
			zap.String("type", scheme.Type),
			zap.String("detail", scheme.Detail))
		hasBearer = hasBearer || scheme.IsBearer()
	}
	if len(schemes) > 0 && !hasBearer {
		s.logger.Warn("No bearer security scheme declared; requests still send the API key as a bearer token")
	}

	for _, c := range openapi2mcp.Collisions(s.dispatcher.Operations()) {
		s.logger.Warn("Tool name shared by several operations; the last one is callable",
			zap.String("tool", c.Name),
			zap.Strings("operations", c.Paths))
	}
	for _, p := range openapi2mcp.ValidateToolSchemas(s.Tools()) {
		s.logger.Warn("Generated input schema does not compile",
			zap.String("tool", p.Tool),
			zap.Error(p.Err))
	}
}

// Document returns the loaded document.
func (s *Service) Document() *loader.Document {
	return s.doc
}

// Dispatcher returns the dispatcher backing Call.
func (s *Service) Dispatcher() *openapi2mcp.Dispatcher {
	return s.dispatcher
}

// ReadOnly reports the access policy.
func (s *Service) ReadOnly() bool {
	return s.dispatcher.ReadOnly()
}

// ListOperations returns the operations available under the access policy.
func (s *Service) ListOperations() []models.Operation {
	return s.dispatcher.Available()
}

// Tools returns the tool descriptors available under the access policy.
func (s *Service) Tools() []mcp.Tool {
	return s.dispatcher.Tools()
}

// Call invokes the named tool.
func (s *Service) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return s.dispatcher.Call(ctx, name, args)
}

// Info returns the service description.
func (s *Service) Info() Info {
	return Info{
		Name:           ServerName,
		Version:        Version,
		Title:          s.doc.Info.Title,
		BaseURL:        s.baseURL,
		APIVersion:     s.apiVersion,
		Mode:           modeName(s.ReadOnly()),
		AvailableTools: len(s.dispatcher.Available()),
	}
}

// Instructions returns the MCP instructions text sent on initialize.
func (s *Service) Instructions() string {
	info := s.Info()
	return fmt.Sprintf("Pangolin Integration API server.\n"+
		"Connected to: %s\n"+
		"API version: %s\n"+
		"Mode: %s\n"+
		"Available tools: %d\n\n"+
		"Use these tools to manage your Pangolin resources including organizations, sites, resources, roles, users, and more.",
		info.BaseURL, info.APIVersion, info.Mode, info.AvailableTools)
}

// MCPServer builds an MCP server exposing the service's tools.
func (s *Service) MCPServer() *mcpserver.MCPServer {
	return openapi2mcp.NewServer(ServerName, Version, s.dispatcher,
		mcpserver.WithInstructions(s.Instructions()))
}
