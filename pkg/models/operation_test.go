package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPMethodIsWrite(t *testing.T) {
	assert.False(t, MethodGet.IsWrite())
	for _, m := range []HTTPMethod{MethodPost, MethodPut, MethodDelete, MethodPatch} {
		assert.True(t, m.IsWrite(), m)
	}
}

func TestParseParameterType(t *testing.T) {
	cases := map[string]ParameterType{
		"integer": TypeInteger,
		"number":  TypeNumber,
		"boolean": TypeBoolean,
		"array":   TypeArray,
		"object":  TypeObject,
		"string":  TypeString,
		"":        TypeString,
		"file":    TypeString,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseParameterType(in), in)
	}
}

func TestBodySchemaMerge(t *testing.T) {
	b := NewBodySchema("application/json")
	b.SetProperty(PropertySchema{Name: "name", Type: TypeString})
	b.SetProperty(PropertySchema{Name: "size", Type: TypeInteger})
	b.SetProperty(PropertySchema{Name: "name", Type: TypeNumber})
	b.AddRequired("name", "size", "name")

	assert.Equal(t, []string{"name", "size"}, b.Order)
	assert.Equal(t, TypeNumber, b.Properties["name"].Type)
	assert.Equal(t, []string{"name", "size"}, b.Required)
}

func TestFilterReadOnly(t *testing.T) {
	ops := []Operation{
		{Name: "orgs", Method: MethodGet},
		{Name: "create_org", Method: MethodPut},
		{Name: "org_by_orgId", Method: MethodGet},
		{Name: "delete_org_by_orgId", Method: MethodDelete},
	}

	filtered := FilterReadOnly(ops)

	assert.Len(t, filtered, 2)
	assert.LessOrEqual(t, len(filtered), len(ops))
	for _, op := range filtered {
		assert.Equal(t, MethodGet, op.Method)
	}
}

func TestOperationIsDeclaredParam(t *testing.T) {
	op := Operation{
		PathParams:  []Parameter{{Name: "orgId"}},
		QueryParams: []Parameter{{Name: "limit"}},
	}
	assert.True(t, op.IsDeclaredParam("orgId"))
	assert.True(t, op.IsDeclaredParam("limit"))
	assert.False(t, op.IsDeclaredParam("name"))
}
