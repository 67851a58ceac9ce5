package models

import "strings"

// HTTPMethod is one of the five HTTP methods that are turned into tools.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
	MethodPatch  HTTPMethod = "PATCH"
)

// Methods lists the supported methods in extraction order.
var Methods = []HTTPMethod{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}

// IsWrite reports whether the method mutates remote state.
func (m HTTPMethod) IsWrite() bool {
	switch m {
	case MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	}
	return false
}

// NamePrefix returns the prefix prepended to generated tool names.
func (m HTTPMethod) NamePrefix() string {
	switch m {
	case MethodPost:
		return "update_"
	case MethodPut:
		return "create_"
	case MethodDelete:
		return "delete_"
	case MethodPatch:
		return "patch_"
	}
	return ""
}

func (m HTTPMethod) String() string {
	return string(m)
}

// ParameterType is the JSON Schema type of a parameter or property.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// ParseParameterType maps an OpenAPI type name to a ParameterType.
// Anything unknown or empty becomes TypeString.
func ParseParameterType(s string) ParameterType {
	switch ParameterType(strings.TrimSpace(s)) {
	case TypeInteger:
		return TypeInteger
	case TypeNumber:
		return TypeNumber
	case TypeBoolean:
		return TypeBoolean
	case TypeArray:
		return TypeArray
	case TypeObject:
		return TypeObject
	}
	return TypeString
}

// Parameter is a path or query parameter of an operation.
type Parameter struct {
	Name        string
	Type        ParameterType
	Required    bool
	Description string
	Default     any
}

// PropertySchema describes one request body property.
type PropertySchema struct {
	Name        string
	Type        ParameterType
	Description string
	Default     any
	Enum        []string
	Nullable    bool
	MinLength   *uint64
	MaxLength   *uint64
	Minimum     *float64
	Maximum     *float64
	Pattern     string
	Items       *PropertySchema
}

// BodySchema is the merged JSON body contract of an operation.
type BodySchema struct {
	ContentType string
	Properties  map[string]PropertySchema
	// Order holds the property names in first-insertion order.
	Order    []string
	Required []string
}

// NewBodySchema returns an empty body schema for the given media type.
func NewBodySchema(contentType string) *BodySchema {
	return &BodySchema{
		ContentType: contentType,
		Properties:  make(map[string]PropertySchema),
	}
}

// SetProperty inserts or overwrites a property. Overwriting keeps the original position.
func (b *BodySchema) SetProperty(p PropertySchema) {
	if _, ok := b.Properties[p.Name]; !ok {
		b.Order = append(b.Order, p.Name)
	}
	b.Properties[p.Name] = p
}

// AddRequired appends names to the required list, skipping ones already present.
func (b *BodySchema) AddRequired(names ...string) {
	for _, name := range names {
		if !containsString(b.Required, name) {
			b.Required = append(b.Required, name)
		}
	}
}

// Operation is one (path, method) pair extracted from the document.
type Operation struct {
	Name        string
	Method      HTTPMethod
	Path        string
	Description string
	Tags        []string
	PathParams  []Parameter
	QueryParams []Parameter
	RequestBody *BodySchema
}

// HasBody reports whether the operation accepts a JSON body.
func (o *Operation) HasBody() bool {
	return o.RequestBody != nil
}

// IsDeclaredParam reports whether name is one of the operation's path or query parameters.
func (o *Operation) IsDeclaredParam(name string) bool {
	for _, p := range o.PathParams {
		if p.Name == name {
			return true
		}
	}
	for _, p := range o.QueryParams {
		if p.Name == name {
			return true
		}
	}
	return false
}

// FilterReadOnly returns the operations callable in read-only mode.
func FilterReadOnly(ops []Operation) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if !op.Method.IsWrite() {
			out = append(out, op)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
