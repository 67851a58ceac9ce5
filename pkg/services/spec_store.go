package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ubermorgenland/pangolin-mcp/pkg/loader"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// SpecRepository is the storage used by SpecStoreService.
// *repository.OpenAPISpecRepository implements it.
type SpecRepository interface {
	Upsert(ctx context.Context, spec *models.OpenAPISpec) (*models.OpenAPISpec, error)
	GetByName(ctx context.Context, name string) (*models.OpenAPISpec, error)
	GetAll(ctx context.Context) ([]*models.OpenAPISpec, error)
	GetActive(ctx context.Context) ([]*models.OpenAPISpec, error)
	SetActive(ctx context.Context, name string, active bool) error
	Delete(ctx context.Context, name string) error
}

// SpecStoreService imports, lists and toggles stored OpenAPI documents.
// It also serves as the loader.SpecStore for the stored-spec source.
type SpecStoreService struct {
	repo   SpecRepository
	logger *zap.Logger
}

// NewSpecStoreService creates a new spec store service
func NewSpecStoreService(repo SpecRepository, logger *zap.Logger) *SpecStoreService {
	return &SpecStoreService{
		repo:   repo,
		logger: logger.With(zap.String("component", "spec_store")),
	}
}

var _ loader.SpecStore = (*SpecStoreService)(nil)

// ImportFile stores the document at path under name. An empty name is
// derived from the file name without its extension.
func (s *SpecStoreService) ImportFile(ctx context.Context, path, name string) (*models.OpenAPISpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	if name == "" {
		name = NameFromFile(path)
	}
	return s.ImportContent(ctx, name, string(content), FormatFromFile(path))
}

// ImportContent parses content and stores it under name, replacing any stored
// spec of the same name. Documents that do not parse are rejected.
func (s *SpecStoreService) ImportContent(ctx context.Context, name, content, format string) (*models.OpenAPISpec, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("spec name is required")
	}
	doc, err := loader.Parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI spec %q: %w", name, err)
	}

	spec := models.NewOpenAPISpec(name, content, format)
	title, version := doc.Info.Title, doc.Info.Version
	spec.Title = &title
	spec.Version = &version

	saved, err := s.repo.Upsert(ctx, spec)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Imported spec",
		zap.String("name", name),
		zap.String("title", title),
		zap.String("version", version),
		zap.Int("paths", doc.Paths.Len()))
	return saved, nil
}

// ImportResult reports the outcome of importing one file of a directory.
type ImportResult struct {
	File string
	Name string
	Err  error
}

// ImportDir imports every .json, .yaml and .yml file of dir, in name order.
// A file that fails is reported and does not stop the others.
func (s *SpecStoreService) ImportDir(ctx context.Context, dir string) ([]ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read specs directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var results []ImportResult
	for _, entry := range entries {
		if entry.IsDir() || !IsSpecFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		res := ImportResult{File: entry.Name(), Name: NameFromFile(path)}
		if _, err := s.ImportFile(ctx, path, res.Name); err != nil {
			s.logger.Warn("Failed to import spec", zap.String("file", path), zap.Error(err))
			res.Err = err
		}
		results = append(results, res)
	}
	return results, nil
}

// GetByName returns the stored spec called name.
func (s *SpecStoreService) GetByName(ctx context.Context, name string) (*models.OpenAPISpec, error) {
	return s.repo.GetByName(ctx, name)
}

// List returns all stored specs, or only the active ones.
func (s *SpecStoreService) List(ctx context.Context, activeOnly bool) ([]*models.OpenAPISpec, error) {
	if activeOnly {
		return s.repo.GetActive(ctx)
	}
	return s.repo.GetAll(ctx)
}

// Activate marks the named spec as servable.
func (s *SpecStoreService) Activate(ctx context.Context, name string) error {
	return s.repo.SetActive(ctx, name, true)
}

// Deactivate hides the named spec from the stored-spec source.
func (s *SpecStoreService) Deactivate(ctx context.Context, name string) error {
	return s.repo.SetActive(ctx, name, false)
}

// Delete removes the named spec.
func (s *SpecStoreService) Delete(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}

// IsSpecFile reports whether name has a JSON or YAML extension.
func IsSpecFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// NameFromFile derives a spec name from a file path: "specs/pangolin.json" -> "pangolin".
func NameFromFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatFromFile returns "yaml" for .yaml/.yml files and "json" otherwise.
func FormatFromFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
