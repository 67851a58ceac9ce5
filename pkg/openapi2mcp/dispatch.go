package openapi2mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/ubermorgenland/pangolin-mcp/pkg/client"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// APIClient sends a prepared request to the API.
type APIClient interface {
	Do(ctx context.Context, req client.Request) (*client.Response, error)
}

// Dispatcher routes tool calls to API requests. It is immutable after
// construction and safe for concurrent use.
type Dispatcher struct {
	ops       []models.Operation
	available []models.Operation
	index     map[string]int
	readOnly  bool
	api       APIClient
	logger    *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithReadOnly restricts calls and listings to GET operations.
func WithReadOnly(readOnly bool) DispatcherOption {
	return func(d *Dispatcher) { d.readOnly = readOnly }
}

func WithDispatchLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher indexes ops by name. When names collide the last operation wins.
func NewDispatcher(ops []models.Operation, api APIClient, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		ops:    append([]models.Operation(nil), ops...),
		index:  make(map[string]int, len(ops)),
		api:    api,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("component", "dispatcher"))

	for i, op := range d.ops {
		d.index[op.Name] = i
	}
	d.available = d.ops
	if d.readOnly {
		d.available = models.FilterReadOnly(d.ops)
	}
	return d
}

// ReadOnly reports the access policy.
func (d *Dispatcher) ReadOnly() bool {
	return d.readOnly
}

// Operations returns every extracted operation.
func (d *Dispatcher) Operations() []models.Operation {
	return d.ops
}

// Available returns the operations visible under the access policy.
func (d *Dispatcher) Available() []models.Operation {
	return d.available
}

// Tools projects the available operations.
func (d *Dispatcher) Tools() []mcp.Tool {
	return BuildTools(d.available)
}

// Lookup finds an operation by tool name.
func (d *Dispatcher) Lookup(name string) (models.Operation, bool) {
	i, ok := d.index[name]
	if !ok {
		return models.Operation{}, false
	}
	return d.ops[i], true
}

// HandleTool adapts Call to the mcp-go tool handler signature.
func (d *Dispatcher) HandleTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return d.Call(ctx, req.Params.Name, req.GetArguments())
}

// Call invokes the named tool.
//
// Unknown tools and missing required path parameters return a *RequestError.
// Policy rejections, transport failures and API error statuses are returned
// as error results, never as errors.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	logger := d.logger.With(zap.String("call_id", uuid.NewString()), zap.String("tool", name))

	op, ok := d.Lookup(name)
	if !ok {
		logger.Warn("Unknown tool requested")
		return nil, unknownToolError(name)
	}

	if d.readOnly && op.Method.IsWrite() {
		logger.Warn("Blocked write operation in read-only mode",
			zap.String("method", op.Method.String()),
			zap.String("path", op.Path))
		return mcp.NewToolResultError(fmt.Sprintf(
			"Error: Write operation '%s' is not allowed in read-only mode. "+
				"The server is configured with PANGOLIN_READ_ONLY=true.", name)), nil
	}

	req, err := buildRequest(op, args)
	if err != nil {
		logger.Warn("Rejected tool call", zap.Error(err))
		return nil, err
	}

	logger.Info("Calling tool",
		zap.String("method", op.Method.String()),
		zap.String("path", op.Path))

	resp, err := d.api.Do(ctx, req)
	if err != nil {
		logger.Error("Pangolin API call failed", zap.Error(err))
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}

	logger.Info("Tool call completed", zap.Int("status", resp.StatusCode))
	return FormatResponse(resp), nil
}

// CheckCall reports the *RequestError Call would return for a missing
// required path parameter. Unknown tools and writes blocked by the read-only
// policy are left to Call.
func (d *Dispatcher) CheckCall(name string, args map[string]any) error {
	op, ok := d.Lookup(name)
	if !ok || (d.readOnly && op.Method.IsWrite()) {
		return nil
	}
	if _, err := buildRequest(op, args); err != nil {
		d.logger.Warn("Rejected tool call", zap.String("tool", name), zap.Error(err))
		return err
	}
	return nil
}

// buildRequest partitions args into path, query and body values.
func buildRequest(op models.Operation, args map[string]any) (client.Request, error) {
	req := client.Request{
		Method:     op.Method,
		Path:       op.Path,
		PathParams: make(map[string]string, len(op.PathParams)),
		Query:      make(map[string]string),
	}

	for _, p := range op.PathParams {
		if v, ok := args[p.Name]; ok {
			req.PathParams[p.Name] = stringifyValue(v)
		} else if p.Required {
			return client.Request{}, missingPathParameterError(p.Name)
		}
	}

	// Query parameters are never enforced, even when declared required.
	for _, p := range op.QueryParams {
		if v, ok := args[p.Name]; ok {
			req.Query[p.Name] = stringifyValue(v)
		}
	}

	if op.HasBody() {
		body := make(map[string]any)
		for k, v := range args {
			if !op.IsDeclaredParam(k) {
				body[k] = v
			}
		}
		if len(body) > 0 {
			req.Body = body
		}
	}
	return req, nil
}

// stringifyValue renders a JSON value for a URL: strings as-is, numbers and
// booleans in their textual form, null as "", arrays and objects as JSON text.
func stringifyValue(v any) string {
	switch v.(type) {
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err == nil {
			return string(b)
		}
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
