// schema.go
package openapi2mcp

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"

	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

const jsonMediaType = "application/json"

// itemName is the name given to converted array item schemas.
const itemName = "item"

// combinator identifies which part of a body schema contributes properties.
type combinator int

const (
	combinatorDirect combinator = iota
	// every allOf entry is merged, in declared order
	combinatorAllOf
	// only the first anyOf entry is merged
	combinatorAnyOf
	// oneOf entries are never merged
	combinatorOneOf
)

// extractRequestBody builds the merged body schema of a request body.
// It returns nil when there is no usable schema or the merge yields no properties.
func extractRequestBody(body *openapi3.RequestBody) *models.BodySchema {
	mediaType, media := selectMediaType(body.Content)
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	schema := media.Schema.Value

	out := models.NewBodySchema(mediaType)
	for _, c := range []combinator{combinatorDirect, combinatorAllOf, combinatorAnyOf, combinatorOneOf} {
		for _, part := range contributors(schema, c) {
			mergeSchema(out, part)
		}
	}
	if len(out.Properties) == 0 {
		return nil
	}
	return out
}

// contributors returns the schemas whose direct properties are merged for c.
func contributors(schema *openapi3.Schema, c combinator) []*openapi3.Schema {
	switch c {
	case combinatorDirect:
		return []*openapi3.Schema{schema}
	case combinatorAllOf:
		return refValues(schema.AllOf)
	case combinatorAnyOf:
		if len(schema.AnyOf) == 0 {
			return nil
		}
		return refValues(schema.AnyOf[:1])
	case combinatorOneOf:
		return nil
	}
	return nil
}

func refValues(refs openapi3.SchemaRefs) []*openapi3.Schema {
	out := make([]*openapi3.Schema, 0, len(refs))
	for _, ref := range refs {
		if ref != nil && ref.Value != nil {
			out = append(out, ref.Value)
		}
	}
	return out
}

// mergeSchema copies the direct properties and required names of s into out.
// Properties are visited in name order so overwrites are deterministic.
func mergeSchema(out *models.BodySchema, s *openapi3.Schema) {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.SetProperty(convertProperty(name, s.Properties[name]))
	}
	out.AddRequired(s.Required...)
}

// selectMediaType prefers application/json and otherwise takes the first
// content type in lexical order.
func selectMediaType(content openapi3.Content) (string, *openapi3.MediaType) {
	if len(content) == 0 {
		return "", nil
	}
	if media, ok := content[jsonMediaType]; ok {
		return jsonMediaType, media
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0], content[keys[0]]
}

// convertProperty maps a property schema to a PropertySchema, recursing into items.
// An unresolved $ref converts to a plain string property.
func convertProperty(name string, ref *openapi3.SchemaRef) models.PropertySchema {
	prop := models.PropertySchema{Name: name, Type: models.TypeString}
	if ref == nil || ref.Value == nil {
		return prop
	}
	s := ref.Value

	prop.Type = schemaType(s)
	prop.Description = s.Description
	prop.Default = s.Default
	prop.Nullable = s.Nullable
	prop.Pattern = s.Pattern
	prop.MaxLength = s.MaxLength
	prop.Minimum = s.Min
	prop.Maximum = s.Max
	if s.MinLength > 0 {
		minLength := s.MinLength
		prop.MinLength = &minLength
	}
	if len(s.Enum) > 0 {
		prop.Enum = cast.ToStringSlice(s.Enum)
	}
	if s.Items != nil {
		items := convertProperty(itemName, s.Items)
		prop.Items = &items
	}
	return prop
}

// schemaType returns the first declared type, defaulting to string.
func schemaType(s *openapi3.Schema) models.ParameterType {
	if s.Type == nil {
		return models.TypeString
	}
	for _, t := range s.Type.Slice() {
		if t != openapi3.TypeNull {
			return models.ParseParameterType(t)
		}
	}
	return models.TypeString
}
