package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Lint loads the document with the kin-openapi loader and validates it.
// It returns human-readable warnings; an empty result means no findings.
// Lint never rejects a document that Parse accepted.
func Lint(ctx context.Context, doc *Document) []string {
	if doc == nil || len(doc.Raw()) == 0 {
		return nil
	}

	l := openapi3.NewLoader()
	l.Context = ctx
	t, err := l.LoadFromData(doc.Raw())
	if err != nil {
		return []string{fmt.Sprintf("load: %v", err)}
	}

	var warnings []string
	if err := t.Validate(ctx); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				warnings = append(warnings, "validate: "+line)
			}
		}
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.0") {
		warnings = append(warnings, fmt.Sprintf("openapi version %q is not 3.0.x", doc.OpenAPI))
	}
	return warnings
}
