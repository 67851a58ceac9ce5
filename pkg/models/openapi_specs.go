package models

import (
	"time"
)

// OpenAPISpec represents a row of the openapi_specs table.
type OpenAPISpec struct {
	ID          int        `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Title       *string    `json:"title,omitempty" db:"title"`
	Version     *string    `json:"version,omitempty" db:"version"`
	SpecContent string     `json:"spec_content" db:"spec_content"`
	FileFormat  *string    `json:"file_format,omitempty" db:"file_format"`
	FileSize    *int       `json:"file_size,omitempty" db:"file_size"`
	IsActive    *bool      `json:"is_active,omitempty" db:"is_active"`
	CreatedAt   *time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Active reports whether the stored spec may be served. A NULL flag counts as active.
func (s *OpenAPISpec) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

// NewOpenAPISpec creates a new OpenAPISpec instance with default values
func NewOpenAPISpec(name, specContent, format string) *OpenAPISpec {
	now := time.Now()
	active := true
	size := len(specContent)
	if format == "" {
		format = "json"
	}

	return &OpenAPISpec{
		Name:        name,
		SpecContent: specContent,
		FileFormat:  &format,
		FileSize:    &size,
		IsActive:    &active,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
}
