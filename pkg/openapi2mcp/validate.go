package openapi2mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// SchemaProblem reports a tool whose generated input schema does not compile.
type SchemaProblem struct {
	Tool string
	Err  error
}

func (p SchemaProblem) String() string {
	return fmt.Sprintf("%s: %v", p.Tool, p.Err)
}

// ValidateToolSchemas compiles each tool's input schema as JSON Schema.
// It does not validate argument values.
func ValidateToolSchemas(tools []mcp.Tool) []SchemaProblem {
	var problems []SchemaProblem
	for _, tool := range tools {
		schema := InputSchema{Properties: tool.InputSchema.Properties, Required: tool.InputSchema.Required}
		if schema.Properties == nil {
			schema.Properties = map[string]any{}
		}
		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.Map())); err != nil {
			problems = append(problems, SchemaProblem{Tool: tool.Name, Err: err})
		}
	}
	return problems
}

// Collision is a tool name produced by more than one (path, method) pair.
type Collision struct {
	Name  string
	Paths []string
}

// Collisions lists generated names shared by several operations, in first-seen order.
// Lookups by name resolve to the last of them.
func Collisions(ops []models.Operation) []Collision {
	byName := make(map[string][]string)
	var order []string
	for _, op := range ops {
		if _, ok := byName[op.Name]; !ok {
			order = append(order, op.Name)
		}
		byName[op.Name] = append(byName[op.Name], fmt.Sprintf("%s %s", op.Method, op.Path))
	}
	var out []Collision
	for _, name := range order {
		if len(byName[name]) > 1 {
			out = append(out, Collision{Name: name, Paths: byName[name]})
		}
	}
	return out
}
