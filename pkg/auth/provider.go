package auth

import (
	"context"
	"net/http"
)

// Provider supplies authentication headers for outgoing API requests.
type Provider interface {
	// AuthHeaders returns the headers to set for a request made with ctx.
	AuthHeaders(ctx context.Context) map[string]string
}

// bearerProvider uses a request-scoped token when present and the configured key otherwise.
type bearerProvider struct {
	apiKey string
}

// NewBearerProvider returns a Provider producing "Authorization: Bearer <token>".
func NewBearerProvider(apiKey string) Provider {
	return &bearerProvider{apiKey: apiKey}
}

func (p *bearerProvider) AuthHeaders(ctx context.Context) map[string]string {
	token := p.apiKey
	if authCtx, ok := FromContext(ctx); ok && authCtx.Token != "" {
		token = authCtx.Token
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// RoundTripper adds provider headers to every request.
type RoundTripper struct {
	base     http.RoundTripper
	provider Provider
}

// NewRoundTripper wraps base; a nil base means http.DefaultTransport.
func NewRoundTripper(base http.RoundTripper, provider Provider) *RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RoundTripper{base: base, provider: provider}
}

// RoundTrip clones the request so the caller's headers stay untouched.
func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	for key, value := range t.provider.AuthHeaders(req.Context()) {
		cloned.Header.Set(key, value)
	}
	return t.base.RoundTrip(cloned)
}
