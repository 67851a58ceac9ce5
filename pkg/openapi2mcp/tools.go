package openapi2mcp

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// BuildTool projects an operation into an MCP tool.
//
// Properties come from path parameters, then query parameters, then body
// properties. A name that is already present is not overwritten, so a body
// property sharing a parameter's name is dropped. Required names are the
// required path and query parameters followed by the body's required list,
// without duplicates.
//
// Example usage:
//
//	ops := openapi2mcp.ExtractOperations(doc)
//	tool := openapi2mcp.BuildTool(ops[0])
//	fmt.Println(tool.Name, tool.InputSchema.Required)
func BuildTool(op models.Operation) mcp.Tool {
	schema := BuildInputSchema(op)
	return mcp.Tool{
		Name:        op.Name,
		Description: ToolDescription(op),
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: schema.Properties,
			Required:   schema.Required,
		},
	}
}

// BuildTools projects every operation, keeping order.
func BuildTools(ops []models.Operation) []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(ops))
	for _, op := range ops {
		tools = append(tools, BuildTool(op))
	}
	return tools
}

// ToolDescription returns "[METHOD] description", with the tags appended when present.
func ToolDescription(op models.Operation) string {
	desc := fmt.Sprintf("[%s] %s", op.Method, op.Description)
	if len(op.Tags) > 0 {
		desc += fmt.Sprintf(" (Tags: %s)", strings.Join(op.Tags, ", "))
	}
	return desc
}

// InputSchema is the JSON Schema object describing a tool's arguments.
type InputSchema struct {
	Properties map[string]any
	Required   []string
}

// Map renders the schema as a JSON Schema object. "required" is omitted when empty.
func (s InputSchema) Map() map[string]any {
	out := map[string]any{
		"type":       "object",
		"properties": s.Properties,
	}
	if len(s.Required) > 0 {
		required := make([]any, len(s.Required))
		for i, name := range s.Required {
			required[i] = name
		}
		out["required"] = required
	}
	return out
}

// BuildInputSchema builds the input schema of an operation.
func BuildInputSchema(op models.Operation) InputSchema {
	schema := InputSchema{Properties: make(map[string]any)}
	seen := make(map[string]bool)
	addRequired := func(name string) {
		if !seen[name] {
			seen[name] = true
			schema.Required = append(schema.Required, name)
		}
	}
	insert := func(name string, prop map[string]any) {
		if _, ok := schema.Properties[name]; !ok {
			schema.Properties[name] = prop
		}
	}

	for _, p := range op.PathParams {
		insert(p.Name, parameterProperty(p))
		if p.Required {
			addRequired(p.Name)
		}
	}
	for _, p := range op.QueryParams {
		insert(p.Name, parameterProperty(p))
		if p.Required {
			addRequired(p.Name)
		}
	}
	if op.RequestBody != nil {
		for _, name := range op.RequestBody.Order {
			prop := op.RequestBody.Properties[name]
			insert(prop.Name, bodyProperty(prop))
		}
		for _, name := range op.RequestBody.Required {
			addRequired(name)
		}
	}
	return schema
}

func parameterProperty(p models.Parameter) map[string]any {
	prop := map[string]any{"type": string(p.Type)}
	if p.Description != "" {
		prop["description"] = p.Description
	}
	if p.Default != nil {
		prop["default"] = p.Default
	}
	return prop
}

func bodyProperty(p models.PropertySchema) map[string]any {
	prop := map[string]any{"type": string(p.Type)}
	if p.Description != "" {
		prop["description"] = p.Description
	}
	if p.Default != nil {
		prop["default"] = p.Default
	}
	if len(p.Enum) > 0 {
		enum := make([]any, len(p.Enum))
		for i, v := range p.Enum {
			enum[i] = v
		}
		prop["enum"] = enum
	}
	return prop
}
