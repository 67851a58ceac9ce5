package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// envelope is the wrapper some exporters put around the document.
type envelope struct {
	SwaggerDoc    json.RawMessage `json:"swaggerDoc"`
	CustomOptions json.RawMessage `json:"customOptions"`
}

// Source names where the document comes from. Exactly one field must be set.
type Source struct {
	File   string
	Inline string
	// Name selects a stored spec from a SpecStore.
	Name string
}

// SpecStore reads stored OpenAPI documents by name.
type SpecStore interface {
	GetByName(ctx context.Context, name string) (*models.OpenAPISpec, error)
}

// Parse decodes a document. The envelope form {"swaggerDoc": ...} is tried
// first, then the text is decoded as a document directly. When both fail the
// error carries the direct decoding failure.
//
// Text that does not start with '{' is also accepted as YAML.
func Parse(raw []byte) (*Document, error) {
	doc, err := parseJSON(raw)
	if err == nil {
		return doc, nil
	}
	if !looksLikeJSON(raw) {
		if converted, yerr := yamlToJSON(raw); yerr == nil {
			if doc, jerr := parseJSON(converted); jerr == nil {
				return doc, nil
			}
		}
	}
	return nil, &SpecError{Code: ErrorCodeParse, Message: "failed to parse OpenAPI document", Cause: err}
}

// LoadFile reads a document from disk and parses it.
func LoadFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &SpecError{Code: ErrorCodeIO, Message: "failed to read OpenAPI document", Source: path, Cause: err}
	}
	doc, err := Parse(content)
	if err != nil {
		return nil, withSource(err, path)
	}
	return doc, nil
}

// LoadSource loads the document named by src. store may be nil unless src.Name is set.
func LoadSource(ctx context.Context, src Source, store SpecStore) (*Document, error) {
	set := 0
	for _, v := range []string{src.File, src.Inline, src.Name} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, &SpecError{
			Code:    ErrorCodeInput,
			Message: "exactly one of an OpenAPI file, inline OpenAPI JSON or a stored spec name must be provided",
		}
	}

	switch {
	case src.File != "":
		return LoadFile(src.File)
	case src.Inline != "":
		doc, err := Parse([]byte(src.Inline))
		if err != nil {
			return nil, withSource(err, "inline")
		}
		return doc, nil
	}

	source := "spec:" + src.Name
	if store == nil {
		return nil, &SpecError{Code: ErrorCodeInput, Message: "stored specs require a database connection", Source: source}
	}
	stored, err := store.GetByName(ctx, src.Name)
	if err != nil {
		return nil, &SpecError{Code: ErrorCodeIO, Message: "failed to read stored spec", Source: source, Cause: err}
	}
	if !stored.Active() {
		return nil, &SpecError{Code: ErrorCodeInput, Message: fmt.Sprintf("stored spec %q is not active", src.Name), Source: source}
	}
	doc, err := Parse([]byte(stored.SpecContent))
	if err != nil {
		return nil, withSource(err, source)
	}
	return doc, nil
}

func parseJSON(raw []byte) (*Document, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && !isNull(env.SwaggerDoc) {
		if doc, err := decodeDocument(env.SwaggerDoc); err == nil {
			if !isNull(env.CustomOptions) {
				doc.CustomOptions = env.CustomOptions
			}
			return doc, nil
		}
	}
	return decodeDocument(raw)
}

func decodeDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc.raw = append([]byte(nil), raw...)
	return &doc, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func looksLikeJSON(raw []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(raw)), "{")
}

func withSource(err error, source string) error {
	if se, ok := err.(*SpecError); ok && se.Source == "" {
		se.Source = source
	}
	return err
}
