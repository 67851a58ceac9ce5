package openapi2mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ubermorgenland/pangolin-mcp/pkg/client"
)

const emptySuccessBody = `{"status":"success"}`

// FormatResponse turns an API response into tool output.
func FormatResponse(resp *client.Response) *mcp.CallToolResult {
	if !resp.Success() {
		return mcp.NewToolResultError(fmt.Sprintf("Pangolin API error (%s): %s", resp.Status, errorMessage(resp.Body)))
	}
	return mcp.NewToolResultText(prettyJSON(resp.Body))
}

// errorMessage returns the body's "message" field, else its "error" field,
// else the raw body text. A present but non-string field falls back to the raw text.
func errorMessage(body []byte) string {
	var v map[string]any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	field, ok := v["message"]
	if !ok {
		field, ok = v["error"]
	}
	if s, isString := field.(string); ok && isString {
		return s
	}
	return string(body)
}

// prettyJSON indents a JSON body with two spaces. An empty body becomes
// {"status":"success"} and a non-JSON body becomes a JSON string.
func prettyJSON(body []byte) string {
	if len(body) == 0 {
		body = []byte(emptySuccessBody)
	}
	trimmed := bytes.TrimSpace(body)
	if json.Valid(trimmed) {
		var out bytes.Buffer
		if err := json.Indent(&out, trimmed, "", "  "); err == nil {
			return out.String()
		}
	}

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(body)); err != nil {
		return string(body)
	}
	return string(bytes.TrimRight(out.Bytes(), "\n"))
}
