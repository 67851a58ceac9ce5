package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

const directDoc = `{
  "openapi": "3.0.0",
  "info": {"title": "Pangolin Integration API", "version": "v1"},
  "servers": [{"url": "https://api.example.com/v1"}],
  "paths": {
    "/orgs": {"get": {"summary": "List orgs", "tags": ["Organization"]}},
    "/org/{orgId}": {
      "get": {"parameters": [{"name": "orgId", "in": "path", "required": true, "schema": {"type": "string"}}]},
      "delete": {"parameters": [{"name": "orgId", "in": "path", "required": true}]}
    },
    "/": {"get": {"description": "Health"}}
  }
}`

func TestParse_Direct(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(directDoc))
	require.NoError(t, err)

	assert.Equal(t, "3.0.0", doc.OpenAPI)
	assert.Equal(t, "Pangolin Integration API", doc.Info.Title)
	assert.Equal(t, "v1", doc.Info.Version)
	assert.Equal(t, "https://api.example.com/v1", doc.BaseURL())
	assert.Equal(t, []string{"/orgs", "/org/{orgId}", "/"}, doc.Paths.Keys())
	assert.Nil(t, doc.CustomOptions)

	item := doc.Paths.Get("/org/{orgId}")
	require.NotNil(t, item)
	assert.NotNil(t, item.Get)
	assert.NotNil(t, item.Delete)
	assert.Nil(t, item.Post)
}

func TestParse_Envelope(t *testing.T) {
	t.Parallel()
	raw := `{"swaggerDoc": ` + directDoc + `, "customOptions": {"persistAuthorization": true}}`

	doc, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "v1", doc.Info.Version)
	assert.Equal(t, 3, doc.Paths.Len())
	assert.JSONEq(t, `{"persistAuthorization": true}`, string(doc.CustomOptions))
	assert.JSONEq(t, directDoc, string(doc.Raw()))
}

func TestParse_EnvelopeWithoutOptions(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(`{"swaggerDoc": ` + directDoc + `}`))
	require.NoError(t, err)
	assert.Equal(t, "Pangolin Integration API", doc.Info.Title)
	assert.Nil(t, doc.CustomOptions)
}

func TestParse_ErrorCarriesDirectDetail(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte(`{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}}`))
	require.Error(t, err)

	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrorCodeParse, se.Code)
	assert.Contains(t, err.Error(), `"paths"`)
	assert.True(t, IsCode(err, ErrorCodeParse))
}

func TestParse_MissingInfoVersion(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte(`{"openapi": "3.0.0", "info": {"title": "x"}, "paths": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "info.version")
}

func TestParse_NotJSON(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte(`not a document`))
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrorCodeParse))
}

func TestParse_DuplicatePathKeepsFirstPosition(t *testing.T) {
	t.Parallel()
	raw := `{"openapi":"3.0.0","info":{"title":"t","version":"1"},"paths":{
	  "/a": {"get": {"summary": "first"}},
	  "/b": {"get": {}},
	  "/a": {"post": {"summary": "second"}}
	}}`
	doc, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, doc.Paths.Keys())
	item := doc.Paths.Get("/a")
	assert.Nil(t, item.Get)
	require.NotNil(t, item.Post)
	assert.Equal(t, "second", item.Post.Summary)
}

func TestParse_RefsStayUnresolved(t *testing.T) {
	t.Parallel()
	raw := `{"openapi":"3.0.0","info":{"title":"t","version":"1"},"paths":{
	  "/a": {"post": {
	    "parameters": [{"$ref": "#/components/parameters/Limit"}],
	    "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/A"}}}}
	  }}
	}}`
	doc, err := Parse([]byte(raw))
	require.NoError(t, err)

	op := doc.Paths.Get("/a").Post
	require.Len(t, op.Parameters, 1)
	assert.Equal(t, "#/components/parameters/Limit", op.Parameters[0].Ref)
	assert.Nil(t, op.Parameters[0].Value)
	schema := op.RequestBody.Value.Content["application/json"].Schema
	assert.Equal(t, "#/components/schemas/A", schema.Ref)
	assert.Nil(t, schema.Value)
}

func TestParse_YAML(t *testing.T) {
	t.Parallel()
	raw := `
openapi: 3.0.0
info:
  title: Pangolin
  version: "1.0"
paths:
  /sites:
    get:
      summary: List sites
  /orgs:
    get:
      summary: List orgs
    put:
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                name: {type: string}
`
	doc, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Info.Version)
	assert.Equal(t, []string{"/sites", "/orgs"}, doc.Paths.Keys())
	put := doc.Paths.Get("/orgs").Put
	require.NotNil(t, put)
	assert.Contains(t, put.RequestBody.Value.Content["application/json"].Schema.Value.Properties, "name")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(directDoc), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Paths.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrorCodeIO, se.Code)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFile_Invalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"openapi": 3}`), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrorCodeParse, se.Code)
	assert.Equal(t, path, se.Source)
}

type fakeStore struct {
	specs map[string]*models.OpenAPISpec
}

func (f *fakeStore) GetByName(_ context.Context, name string) (*models.OpenAPISpec, error) {
	spec, ok := f.specs[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return spec, nil
}

func TestLoadSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inactive := models.NewOpenAPISpec("old", directDoc, "json")
	off := false
	inactive.IsActive = &off
	store := &fakeStore{specs: map[string]*models.OpenAPISpec{
		"pangolin": models.NewOpenAPISpec("pangolin", directDoc, "json"),
		"old":      inactive,
	}}

	doc, err := LoadSource(ctx, Source{Inline: directDoc}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Paths.Len())

	doc, err = LoadSource(ctx, Source{Name: "pangolin"}, store)
	require.NoError(t, err)
	assert.Equal(t, "v1", doc.Info.Version)

	_, err = LoadSource(ctx, Source{}, nil)
	assert.True(t, IsCode(err, ErrorCodeInput))

	_, err = LoadSource(ctx, Source{File: "a.json", Inline: directDoc}, nil)
	assert.True(t, IsCode(err, ErrorCodeInput))

	_, err = LoadSource(ctx, Source{Name: "pangolin"}, nil)
	assert.True(t, IsCode(err, ErrorCodeInput))

	_, err = LoadSource(ctx, Source{Name: "old"}, store)
	assert.True(t, IsCode(err, ErrorCodeInput))

	_, err = LoadSource(ctx, Source{Name: "missing"}, store)
	assert.True(t, IsCode(err, ErrorCodeIO))

	_, err = LoadSource(ctx, Source{Inline: "{}"}, nil)
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "inline", se.Source)
}

func TestLint(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(directDoc))
	require.NoError(t, err)

	// Operations without responses are reported, but never rejected.
	warnings := Lint(context.Background(), doc)
	assert.NotEmpty(t, warnings)

	assert.Nil(t, Lint(context.Background(), nil))
}
