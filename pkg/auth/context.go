package auth

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// AuthContext carries a request-scoped credential that overrides the configured API key.
type AuthContext struct {
	Token string
	// Source records where the token came from, e.g. "header".
	Source string
}

type contextKey string

const authContextKey contextKey = "auth"

// CreateAuthContext extracts a bearer token from an incoming HTTP request.
// It returns nil when the request carries none.
func CreateAuthContext(r *http.Request) *AuthContext {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return nil
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	if token == "" {
		return nil
	}
	return &AuthContext{Token: token, Source: "header"}
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func FromContext(ctx context.Context) (*AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey).(*AuthContext)
	return authCtx, ok && authCtx != nil
}

// Scheme describes one security scheme declared by a document.
type Scheme struct {
	Name   string
	Type   string
	Detail string
}

// IsBearer reports whether the scheme accepts an "Authorization: Bearer" header.
func (s Scheme) IsBearer() bool {
	return s.Type == "bearer"
}

// ExtractAuthSchemes lists the document's security schemes in name order.
func ExtractAuthSchemes(schemes openapi3.SecuritySchemes) []Scheme {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Scheme
	for _, name := range names {
		ref := schemes[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		v := ref.Value
		switch v.Type {
		case "apiKey":
			location := "header"
			if v.In == "query" {
				location = "query"
			}
			out = append(out, Scheme{Name: name, Type: "apiKey", Detail: location + ":" + v.Name})
		case "http":
			switch strings.ToLower(v.Scheme) {
			case "bearer":
				out = append(out, Scheme{Name: name, Type: "bearer", Detail: "header:Authorization"})
			case "basic":
				out = append(out, Scheme{Name: name, Type: "basic", Detail: "header:Authorization"})
			default:
				out = append(out, Scheme{Name: name, Type: "http", Detail: v.Scheme})
			}
		default:
			out = append(out, Scheme{Name: name, Type: v.Type})
		}
	}
	return out
}
