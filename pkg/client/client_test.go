package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ubermorgenland/pangolin-mcp/pkg/auth"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
)

func TestBuildURL(t *testing.T) {
	got := BuildURL("https://api.example.com/v1", "/org/{orgId}/site/{siteId}",
		map[string]string{"orgId": "org123", "siteId": "site456"})
	assert.Equal(t, "https://api.example.com/v1/org/org123/site/site456", got)

	assert.Equal(t, "https://api.example.com/v1/orgs", BuildURL("https://api.example.com/v1///", "/orgs", nil))
	assert.Equal(t, "http://h/a/x/b/x", BuildURL("http://h", "/a/{id}/b/{id}", map[string]string{"id": "x"}))
	assert.Equal(t, "http://h/a/{id}", BuildURL("http://h", "/a/{id}", nil))
}

func TestValidateBaseURL(t *testing.T) {
	assert.NoError(t, ValidateBaseURL("https://api.example.com/v1"))
	assert.NoError(t, ValidateBaseURL("http://localhost:3000"))
	assert.Error(t, ValidateBaseURL("not a url"))
	assert.Error(t, ValidateBaseURL("ftp://example.com"))
	assert.Error(t, ValidateBaseURL("https://"))
	assert.Error(t, ValidateBaseURL("://bad"))

	_, err := New("nope", "key")
	assert.Error(t, err)
}

type captured struct {
	method      string
	path        string
	rawQuery    string
	auth        string
	contentType string
	body        []byte
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.rawQuery = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		got.contentType = r.Header.Get("Content-Type")
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestDoGet(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"ok":true}`)
	c, err := New(srv.URL+"/v1/", "secret", WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), Request{
		Method:     models.MethodGet,
		Path:       "/org/{orgId}",
		PathParams: map[string]string{"orgId": "abc"},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success())
	assert.Equal(t, "200 OK", resp.Status)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/v1/org/abc", got.path)
	assert.Empty(t, got.rawQuery)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.Empty(t, got.contentType)
	assert.Empty(t, got.body)
}

func TestDoWithQueryAndBody(t *testing.T) {
	srv, got := newTestServer(t, http.StatusCreated, ``)
	c, err := New(srv.URL, "secret")
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), Request{
		Method: models.MethodPut,
		Path:   "/org",
		Query:  map[string]string{"limit": "10", "offset": "0"},
		Body:   map[string]any{"name": "acme", "size": 3.0},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "limit=10&offset=0", got.rawQuery)
	assert.Equal(t, "application/json", got.contentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.body, &body))
	assert.Equal(t, map[string]any{"name": "acme", "size": 3.0}, body)
}

func TestDoErrorStatusIsNotAnError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, `{"message":"Org not found"}`)
	c, err := New(srv.URL, "secret")
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), Request{Method: models.MethodGet, Path: "/org/x"})
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, "404 Not Found", resp.Status)
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url, "secret", WithTimeout(2*time.Second))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Method: models.MethodGet, Path: "/orgs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request to Pangolin API")
}

func TestDoUsesContextToken(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{}`)
	c, err := New(srv.URL, "configured")
	require.NoError(t, err)

	ctx := auth.WithAuthContext(context.Background(), &auth.AuthContext{Token: "per-request"})
	_, err = c.Do(ctx, Request{Method: models.MethodGet, Path: "/orgs"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer per-request", got.auth)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "500 Internal Server Error", statusText(500))
	assert.Equal(t, "599", statusText(599))
}
