package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidEndpointPath is returned for endpoint paths or target slugs that cannot name a single resource.
var ErrInvalidEndpointPath = errors.New("invalid endpoint path")

// EngineCallError is returned for every engine response outside the 2xx range.
type EngineCallError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	// Body is the decoded JSON body, or an empty object if the body was not JSON.
	Body any
	// RawBody is the body as received, used when Body is empty.
	RawBody string
}

func (e *EngineCallError) Error() string {
	detail, err := json.Marshal(e.Body)
	if err != nil || string(detail) == "{}" {
		detail = []byte(e.RawBody)
	}
	if len(detail) == 0 {
		return fmt.Sprintf("engine call %s %s failed with status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("engine call %s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, detail)
}

// Details returns the error as a JSON-friendly map, for reporting it back to an MCP client.
func (e *EngineCallError) Details() map[string]any {
	return map[string]any{
		"method":     e.Method,
		"url":        e.URL,
		"statusCode": e.StatusCode,
		"body":       e.Body,
	}
}

// StatusCode returns the HTTP status of an *EngineCallError found in err's chain, or 0 if there isn't one.
func StatusCode(err error) int {
	var callErr *EngineCallError
	if errors.As(err, &callErr) {
		return callErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an engine 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
