// Package client sends requests to the Pangolin Integration API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ubermorgenland/pangolin-mcp/pkg/auth"
	"github.com/ubermorgenland/pangolin-mcp/pkg/memory"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 60 * time.Second

// Request is one API call. A nil Body sends no body.
type Request struct {
	Method     models.HTTPMethod
	Path       string
	PathParams map[string]string
	Query      map[string]string
	Body       map[string]any
}

// Response is the raw outcome of a call that reached the API.
type Response struct {
	StatusCode int
	// Status is the code followed by its reason phrase, e.g. "404 Not Found".
	Status string
	Body   []byte
}

// Success reports a 2xx status.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	buffers *memory.BodyPool
	logger  *zap.Logger
}

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	provider  auth.Provider
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*options)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithTransport sets the base transport under the auth layer.
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.transport = rt } }

// WithAuthProvider replaces the bearer provider built from the API key.
func WithAuthProvider(p auth.Provider) Option { return func(o *options) { o.provider = p } }

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// New validates baseURL and returns a client authenticating with apiKey.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if err := ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}

	o := options{
		timeout:  DefaultTimeout,
		provider: auth.NewBearerProvider(apiKey),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   o.timeout,
			Transport: auth.NewRoundTripper(o.transport, o.provider),
		},
		buffers: memory.NewBodyPool(memory.DefaultMaxRetained),
		logger:  o.logger.With(zap.String("component", "pangolin_client")),
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ValidateBaseURL accepts absolute http and https URLs with a host.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	return nil
}

// BuildURL joins base and path and substitutes every {key} with its value.
//
//	BuildURL("https://api.example.com/v1", "/org/{orgId}", map[string]string{"orgId": "org123"})
//	// "https://api.example.com/v1/org/org123"
func BuildURL(base, path string, params map[string]string) string {
	u := strings.TrimRight(base, "/") + path

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		u = strings.ReplaceAll(u, "{"+k+"}", params[k])
	}
	return u
}

// Do sends req. A returned error means the API was not reached or the
// response could not be read; HTTP error statuses are returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target := BuildURL(c.baseURL, req.Path, req.PathParams)
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method.String(), target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling Pangolin API",
		zap.String("method", req.Method.String()),
		zap.String("url", target),
		zap.Bool("has_body", req.Body != nil))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Pangolin API: %w", err)
	}
	defer resp.Body.Close()

	text, err := c.buffers.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Pangolin API responded",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(text)))

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp.StatusCode),
		Body:       text,
	}, nil
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}
