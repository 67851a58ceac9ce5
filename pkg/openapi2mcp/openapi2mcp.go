// Package openapi2mcp turns an OpenAPI 3.0 document into MCP tools and dispatches
// tool calls back to the HTTP API the document describes.
//
// The pipeline has three stages:
//
//   - ExtractOperations walks the document and produces one models.Operation per
//     (path, method) pair, in declared path order and GET, POST, PUT, DELETE, PATCH
//     order within a path.
//   - BuildTool projects an operation into an mcp.Tool with a JSON Schema input.
//   - Dispatcher.Call partitions tool arguments into path, query and body values,
//     builds the request and formats the API response as tool output.
//
// # Quick Start
//
//	doc, err := loader.LoadFile("pangolin.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	ops := openapi2mcp.ExtractOperations(doc)
//	api, _ := client.New("https://api.example.com/v1", apiKey)
//	d := openapi2mcp.NewDispatcher(ops, api, openapi2mcp.WithReadOnly(true))
//	srv := openapi2mcp.NewServer("mcp-pangolin", "0.1.0", d)
//	openapi2mcp.ServeStdio(srv, nil)
//
// # Naming
//
// Tool names are derived from the path and method only: the leading slash is
// removed, "/" and "-" become "_", "{x}" becomes "by_x", and non-GET methods get
// a prefix (POST "update_", PUT "create_", DELETE "delete_", PATCH "patch_").
// The root path becomes "health_check". Two paths that normalize to the same
// string produce the same name; see Collisions.
package openapi2mcp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ubermorgenland/pangolin-mcp/pkg/loader"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ExtractOperations returns the operations of doc in canonical order.
// The result depends on doc only, so repeated calls return equal slices.
func ExtractOperations(doc *loader.Document) []models.Operation {
	if doc == nil {
		return nil
	}
	var ops []models.Operation
	for _, path := range doc.Paths.Keys() {
		item := doc.Paths.Get(path)
		if item == nil {
			continue
		}
		for _, method := range models.Methods {
			source := item.GetOperation(method.String())
			if source == nil {
				continue
			}
			ops = append(ops, buildOperation(path, method, source))
		}
	}
	return ops
}

func buildOperation(path string, method models.HTTPMethod, source *openapi3.Operation) models.Operation {
	op := models.Operation{
		Name:        GenerateToolName(path, method),
		Method:      method,
		Path:        path,
		Description: operationDescription(path, method, source),
		Tags:        append([]string(nil), source.Tags...),
	}

	for _, ref := range source.Parameters {
		if ref == nil || ref.Value == nil {
			continue
		}
		switch ref.Value.In {
		case openapi3.ParameterInPath:
			op.PathParams = append(op.PathParams, convertParameter(ref.Value))
		case openapi3.ParameterInQuery:
			op.QueryParams = append(op.QueryParams, convertParameter(ref.Value))
		}
	}

	if source.RequestBody != nil && source.RequestBody.Value != nil {
		op.RequestBody = extractRequestBody(source.RequestBody.Value)
	}
	return op
}

// GenerateToolName derives the tool name for a path template and method.
//
//	GenerateToolName("/org/{orgId}/site", models.MethodPut) // "create_org_by_orgId_site"
//	GenerateToolName("/", models.MethodGet)                 // "health_check"
func GenerateToolName(path string, method models.HTTPMethod) string {
	name := strings.TrimLeft(path, "/")
	name = strings.NewReplacer("/", "_", "-", "_").Replace(name)
	name = placeholderPattern.ReplaceAllString(name, "by_$1")
	if name == "" {
		name = "health_check"
	}
	return method.NamePrefix() + name
}

// ExtractPathParams returns the placeholder names of a path template in order of appearance.
func ExtractPathParams(path string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func operationDescription(path string, method models.HTTPMethod, source *openapi3.Operation) string {
	if source.Description != "" {
		return source.Description
	}
	if source.Summary != "" {
		return source.Summary
	}
	return fmt.Sprintf("%s %s", method, path)
}

func convertParameter(p *openapi3.Parameter) models.Parameter {
	param := models.Parameter{
		Name:        p.Name,
		Type:        models.TypeString,
		Required:    p.Required,
		Description: p.Description,
	}
	if p.Schema != nil && p.Schema.Value != nil {
		param.Type = schemaType(p.Schema.Value)
		param.Default = p.Schema.Value.Default
	}
	return param
}
