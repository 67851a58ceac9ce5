package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// ErrSpecNotFound is returned when no stored spec has the requested name.
var ErrSpecNotFound = errors.New("openapi spec not found")

const specColumns = `id, name, title, version, spec_content, file_format, file_size, is_active, created_at, updated_at`

// OpenAPISpecRepository handles database operations for stored OpenAPI specs
type OpenAPISpecRepository struct {
	db *sql.DB
}

// NewOpenAPISpecRepository creates a new repository instance
func NewOpenAPISpecRepository(db *sql.DB) *OpenAPISpecRepository {
	return &OpenAPISpecRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpec(row rowScanner) (*models.OpenAPISpec, error) {
	spec := &models.OpenAPISpec{}
	err := row.Scan(
		&spec.ID,
		&spec.Name,
		&spec.Title,
		&spec.Version,
		&spec.SpecContent,
		&spec.FileFormat,
		&spec.FileSize,
		&spec.IsActive,
		&spec.CreatedAt,
		&spec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// Upsert inserts spec, or replaces the stored spec with the same name.
// ID and timestamps are filled in from the database.
func (r *OpenAPISpecRepository) Upsert(ctx context.Context, spec *models.OpenAPISpec) (*models.OpenAPISpec, error) {
	query := `
		INSERT INTO openapi_specs (name, title, version, spec_content, file_format, file_size, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			title = EXCLUDED.title,
			version = EXCLUDED.version,
			spec_content = EXCLUDED.spec_content,
			file_format = EXCLUDED.file_format,
			file_size = EXCLUDED.file_size,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		spec.Name,
		spec.Title,
		spec.Version,
		spec.SpecContent,
		spec.FileFormat,
		spec.FileSize,
		spec.IsActive,
	).Scan(&spec.ID, &spec.CreatedAt, &spec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save openapi spec %q: %w", spec.Name, err)
	}
	return spec, nil
}

// GetByName retrieves a stored spec by its name
func (r *OpenAPISpecRepository) GetByName(ctx context.Context, name string) (*models.OpenAPISpec, error) {
	query := `SELECT ` + specColumns + ` FROM openapi_specs WHERE name = $1`

	spec, err := scanSpec(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSpecNotFound, name)
		}
		return nil, fmt.Errorf("failed to get openapi spec: %w", err)
	}
	return spec, nil
}

// GetAll retrieves all stored specs, newest first
func (r *OpenAPISpecRepository) GetAll(ctx context.Context) ([]*models.OpenAPISpec, error) {
	return r.list(ctx, `SELECT `+specColumns+` FROM openapi_specs ORDER BY created_at DESC`)
}

// GetActive retrieves the active stored specs, newest first
func (r *OpenAPISpecRepository) GetActive(ctx context.Context) ([]*models.OpenAPISpec, error) {
	return r.list(ctx, `SELECT `+specColumns+` FROM openapi_specs WHERE is_active = true ORDER BY created_at DESC`)
}

func (r *OpenAPISpecRepository) list(ctx context.Context, query string) ([]*models.OpenAPISpec, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list openapi specs: %w", err)
	}
	defer rows.Close()

	var specs []*models.OpenAPISpec
	for rows.Next() {
		spec, err := scanSpec(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan openapi spec: %w", err)
		}
		specs = append(specs, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list openapi specs: %w", err)
	}
	return specs, nil
}

// SetActive sets the is_active status of the named spec
func (r *OpenAPISpecRepository) SetActive(ctx context.Context, name string, active bool) error {
	query := `UPDATE openapi_specs SET is_active = $2, updated_at = NOW() WHERE name = $1`
	return r.execOne(ctx, name, "set active status", query, name, active)
}

// Delete removes the named spec
func (r *OpenAPISpecRepository) Delete(ctx context.Context, name string) error {
	query := `DELETE FROM openapi_specs WHERE name = $1`
	return r.execOne(ctx, name, "delete openapi spec", query, name)
}

// execOne runs a statement that must affect exactly the named row.
func (r *OpenAPISpecRepository) execOne(ctx context.Context, name, action, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSpecNotFound, name)
	}
	return nil
}
