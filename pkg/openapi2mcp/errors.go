package openapi2mcp

import "errors"

// Sentinel errors for tool calls the caller must correct before retrying.
var (
	ErrUnknownTool          = errors.New("unknown tool")
	ErrMissingPathParameter = errors.New("missing required path parameter")
)

// RequestError rejects a tool call before anything is sent. Its message is
// returned to the MCP client verbatim.
type RequestError struct {
	Kind    error
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Kind }

func unknownToolError(name string) error {
	return &RequestError{Kind: ErrUnknownTool, Message: "Unknown tool: " + name}
}

func missingPathParameterError(name string) error {
	return &RequestError{Kind: ErrMissingPathParameter, Message: "Missing required path parameter: " + name}
}

// IsRequestError reports whether err rejects the call itself rather than the downstream API.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
