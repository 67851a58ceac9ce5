package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ubermorgenland/pangolin-mcp/pkg/loader"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

var errNotFound = errors.New("not found")

type memoryRepo struct {
	specs map[string]*models.OpenAPISpec
	next  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{specs: map[string]*models.OpenAPISpec{}}
}

func (m *memoryRepo) Upsert(_ context.Context, spec *models.OpenAPISpec) (*models.OpenAPISpec, error) {
	if old, ok := m.specs[spec.Name]; ok {
		spec.ID = old.ID
	} else {
		m.next++
		spec.ID = m.next
	}
	m.specs[spec.Name] = spec
	return spec, nil
}

func (m *memoryRepo) GetByName(_ context.Context, name string) (*models.OpenAPISpec, error) {
	spec, ok := m.specs[name]
	if !ok {
		return nil, errNotFound
	}
	return spec, nil
}

func (m *memoryRepo) GetAll(context.Context) ([]*models.OpenAPISpec, error) {
	return m.sorted(false), nil
}

func (m *memoryRepo) GetActive(context.Context) ([]*models.OpenAPISpec, error) {
	return m.sorted(true), nil
}

func (m *memoryRepo) sorted(activeOnly bool) []*models.OpenAPISpec {
	var out []*models.OpenAPISpec
	for _, spec := range m.specs {
		if !activeOnly || spec.Active() {
			out = append(out, spec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memoryRepo) SetActive(_ context.Context, name string, active bool) error {
	spec, ok := m.specs[name]
	if !ok {
		return errNotFound
	}
	spec.IsActive = &active
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, name string) error {
	if _, ok := m.specs[name]; !ok {
		return errNotFound
	}
	delete(m.specs, name)
	return nil
}

const specJSON = `{
  "openapi": "3.0.0",
  "info": {"title": "Pangolin Integration API", "version": "v1"},
  "paths": {"/orgs": {"get": {"summary": "List orgs"}}}
}`

const specYAML = `openapi: 3.0.0
info:
  title: Pangolin Staging
  version: v2
paths:
  /orgs:
    get:
      summary: List orgs
`

func TestImportContent(t *testing.T) {
	ctx := context.Background()
	svc := NewSpecStoreService(newMemoryRepo(), zaptest.NewLogger(t))

	spec, err := svc.ImportContent(ctx, "pangolin", specJSON, "json")
	require.NoError(t, err)
	assert.Equal(t, 1, spec.ID)
	require.NotNil(t, spec.Title)
	assert.Equal(t, "Pangolin Integration API", *spec.Title)
	assert.Equal(t, "v1", *spec.Version)
	assert.True(t, spec.Active())

	again, err := svc.ImportContent(ctx, "pangolin", specJSON, "json")
	require.NoError(t, err)
	assert.Equal(t, 1, again.ID)

	_, err = svc.ImportContent(ctx, "broken", `{"openapi": "3.0.0"}`, "json")
	assert.True(t, loader.IsCode(err, loader.ErrorCodeParse))

	_, err = svc.ImportContent(ctx, " ", specJSON, "json")
	assert.Error(t, err)
}

func TestImportFileAndDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pangolin.json"), []byte(specJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yml"), []byte(specYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("openapi: 3.0.0\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o700))

	repo := newMemoryRepo()
	svc := NewSpecStoreService(repo, zaptest.NewLogger(t))

	spec, err := svc.ImportFile(ctx, filepath.Join(dir, "staging.yml"), "")
	require.NoError(t, err)
	assert.Equal(t, "staging", spec.Name)
	assert.Equal(t, "yaml", *spec.FileFormat)
	assert.Equal(t, "Pangolin Staging", *spec.Title)

	_, err = svc.ImportFile(ctx, filepath.Join(dir, "missing.json"), "")
	assert.Error(t, err)

	results, err := svc.ImportDir(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "bad.yaml", results[0].File)
	assert.Error(t, results[0].Err)
	assert.Equal(t, "pangolin", results[1].Name)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Len(t, repo.specs, 2)

	_, err = svc.ImportDir(ctx, filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestActivationAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewSpecStoreService(newMemoryRepo(), zaptest.NewLogger(t))
	_, err := svc.ImportContent(ctx, "pangolin", specJSON, "json")
	require.NoError(t, err)
	_, err = svc.ImportContent(ctx, "staging", specYAML, "yaml")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, "staging"))
	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "pangolin", active[0].Name)

	// a deactivated spec cannot be served
	_, err = loader.LoadSource(ctx, loader.Source{Name: "staging"}, svc)
	assert.True(t, loader.IsCode(err, loader.ErrorCodeInput))

	require.NoError(t, svc.Activate(ctx, "staging"))
	doc, err := loader.LoadSource(ctx, loader.Source{Name: "staging"}, svc)
	require.NoError(t, err)
	assert.Equal(t, "v2", doc.Info.Version)

	require.NoError(t, svc.Delete(ctx, "pangolin"))
	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.ErrorIs(t, svc.Delete(ctx, "pangolin"), errNotFound)
}

func TestFileHelpers(t *testing.T) {
	assert.True(t, IsSpecFile("a.JSON"))
	assert.True(t, IsSpecFile("a.yml"))
	assert.False(t, IsSpecFile("a.txt"))
	assert.Equal(t, "pangolin", NameFromFile("specs/pangolin.json"))
	assert.Equal(t, "yaml", FormatFromFile("x.YAML"))
	assert.Equal(t, "json", FormatFromFile("x"))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pangolin.json"), []byte(specJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"), []byte(specYAML), 0o600))
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`specs:
  - file: pangolin.json
    name: prod
  - file: staging.yaml
    active: false
  - file: missing.json
    name: ghost
`), 0o600))

	cfg, err := LoadSeedConfig(seedPath)
	require.NoError(t, err)
	require.Len(t, cfg.Specs, 3)
	assert.Equal(t, filepath.Join(dir, "pangolin.json"), cfg.Specs[0].File)

	repo := newMemoryRepo()
	svc := NewSpecStoreService(repo, zaptest.NewLogger(t))
	results := svc.Seed(ctx, cfg)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "prod", results[0].Name)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "staging", results[1].Name)
	assert.Error(t, results[2].Err)

	assert.True(t, repo.specs["prod"].Active())
	assert.False(t, repo.specs["staging"].Active())

	_, err = LoadSeedConfig(filepath.Join(dir, "none.yaml"))
	assert.Error(t, err)
}
