package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document is the subset of an OpenAPI 3.0 document needed to build tools.
// Path items, parameters and schemas reuse the kin-openapi types; $ref entries
// are kept unresolved (their Value is nil).
type Document struct {
	OpenAPI    string     `json:"openapi"`
	Info       Info       `json:"info"`
	Servers    []Server   `json:"servers,omitempty"`
	Paths      *Paths     `json:"paths"`
	Components Components `json:"components,omitempty"`

	// CustomOptions holds the envelope's customOptions, if the document was wrapped.
	CustomOptions json.RawMessage `json:"-"`

	raw []byte
}

// Info is the document's info block.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Server is one entry of the document's servers list.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Components only carries what startup reporting needs.
type Components struct {
	SecuritySchemes openapi3.SecuritySchemes `json:"securitySchemes,omitempty"`
}

// Raw returns the JSON text the document was decoded from.
func (d *Document) Raw() []byte {
	return d.raw
}

// BaseURL returns the first declared server URL, or "".
func (d *Document) BaseURL() string {
	if len(d.Servers) == 0 {
		return ""
	}
	return d.Servers[0].URL
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var probe struct {
		OpenAPI    *string          `json:"openapi"`
		Info       *json.RawMessage `json:"info"`
		Servers    []Server         `json:"servers"`
		Paths      *Paths           `json:"paths"`
		Components *Components      `json:"components"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.OpenAPI == nil {
		return missingField("openapi")
	}
	if probe.Info == nil {
		return missingField("info")
	}
	if probe.Paths == nil {
		return missingField("paths")
	}

	var info struct {
		Title       *string `json:"title"`
		Version     *string `json:"version"`
		Description string  `json:"description"`
	}
	if err := json.Unmarshal(*probe.Info, &info); err != nil {
		return fmt.Errorf("info: %w", err)
	}
	if info.Title == nil {
		return missingField("info.title")
	}
	if info.Version == nil {
		return missingField("info.version")
	}

	d.OpenAPI = *probe.OpenAPI
	d.Info = Info{Title: *info.Title, Version: *info.Version, Description: info.Description}
	d.Servers = probe.Servers
	d.Paths = probe.Paths
	if probe.Components != nil {
		d.Components = *probe.Components
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

// Paths maps path templates to path items and remembers declaration order.
type Paths struct {
	keys  []string
	items map[string]*openapi3.PathItem
}

// NewPaths returns an empty ordered path map.
func NewPaths() *Paths {
	return &Paths{items: make(map[string]*openapi3.PathItem)}
}

// Set adds or replaces a path item. A replaced path keeps its first position.
func (p *Paths) Set(path string, item *openapi3.PathItem) {
	if p.items == nil {
		p.items = make(map[string]*openapi3.PathItem)
	}
	if _, ok := p.items[path]; !ok {
		p.keys = append(p.keys, path)
	}
	p.items[path] = item
}

// Get returns the path item for a template, or nil.
func (p *Paths) Get(path string) *openapi3.PathItem {
	if p == nil {
		return nil
	}
	return p.items[path]
}

// Keys returns the path templates in declared order.
func (p *Paths) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of path templates.
func (p *Paths) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

func (p *Paths) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("paths: expected an object, got %v", tok)
	}

	*p = *NewPaths()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("paths: %w", err)
		}
		path, ok := tok.(string)
		if !ok {
			return fmt.Errorf("paths: unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("paths[%q]: %w", path, err)
		}
		item := &openapi3.PathItem{}
		if err := json.Unmarshal(raw, item); err != nil {
			return fmt.Errorf("paths[%q]: %w", path, err)
		}
		p.Set(path, item)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	return nil
}
