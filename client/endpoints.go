package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
)

// GetEndpoints fetches the current snapshot of endpoint definitions.
func (c *Client) GetEndpoints(ctx context.Context) ([]types.EndpointMetadata, error) {
	u, err := c.constructAPIEndpoint("endpoints")
	if err != nil {
		return nil, fmt.Errorf("failed to construct endpoints url: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var endpoints []types.EndpointMetadata
	if err := c.doJSON(req, &endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

// ExecuteRequest calls a stored endpoint.
// A "GET" request carries its parameters in the query string, every value converted to a string.
// Any other method is sent as a POST whose body is the JSON-encoded parameters.
func (c *Client) ExecuteRequest(ctx context.Context, r types.EndpointRequest) (json.RawMessage, error) {
	u, err := c.constructResourceURL("endpoints", r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to construct url for endpoint %s: %w", r.Path, err)
	}

	var req *http.Request
	if r.IsGet() {
		query, err := encodeQuery(r.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parameters of endpoint %s: %w", r.Path, err)
		}
		if query != "" {
			u += "?" + query
		}
		req, err = c.newRequest(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	} else {
		params := r.Parameters
		if params == nil {
			params = map[string]any{}
		}
		body, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parameters of endpoint %s: %w", r.Path, err)
		}
		req, err = c.newRequest(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doRaw(req)
}

// encodeQuery converts parameters into a query string, sorted by key.
// Nil values are left out, arrays and objects are sent as their JSON encoding.
func encodeQuery(params map[string]any) (string, error) {
	values := url.Values{}
	for k, v := range params {
		if v == nil {
			continue
		}
		s, err := stringify(v)
		if err != nil {
			return "", fmt.Errorf("parameter %s: %w", k, err)
		}
		values.Set(k, s)
	}
	return values.Encode(), nil
}

// stringify returns the query string form of a decoded JSON value, eg- 42 becomes "42" and true becomes "true".
func stringify(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case json.Number:
		return val.String(), nil
	case fmt.Stringer:
		return val.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
