// Package client implements the facade through which every call to the Neurelo engine goes.
//
// The HTTP Client talks to a real engine over its REST API, Mock is a deterministic stand-in
// used in test mode. Both satisfy the Engine interface.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/version"
)

// maxResponseSize caps how much of an engine response body is read.
const maxResponseSize = 10 << 20

// Engine is the set of operations the tool registrar needs from the engine.
type Engine interface {
	GetTargets(ctx context.Context) ([]types.Target, error)
	GetStatus(ctx context.Context) (*types.Status, error)
	GetTargetDBStatus(ctx context.Context, slug string) (*types.Status, error)
	GetSchema(ctx context.Context, slug string) (json.RawMessage, error)
	ExecuteReadonlyQuery(ctx context.Context, slug, query string) (json.RawMessage, error)
	ExecuteReadWriteQuery(ctx context.Context, slug, query string) (json.RawMessage, error)
	GetEndpoints(ctx context.Context) ([]types.EndpointMetadata, error)
	ExecuteRequest(ctx context.Context, r types.EndpointRequest) (json.RawMessage, error)
}

var (
	_ Engine = (*Client)(nil)
	_ Engine = (*Mock)(nil)
)

// Client is the HTTP implementation of Engine.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the engine API rooted at baseURL.
// A nil httpClient means http.DefaultClient.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// BaseURL returns the engine API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// constructAPIEndpoint joins fixed path elements onto the base URL.
// Caller supplied values must go through constructResourceURL instead.
func (c *Client) constructAPIEndpoint(elem ...string) (string, error) {
	return url.JoinPath(c.baseURL, elem...)
}

// constructResourceURL returns the URL of the named resource of a collection, eg- /targets/<slug>/schema.
// The name is escaped as a single segment, so a "/" or ".." in it can never leave the collection.
func (c *Client) constructResourceURL(collection, name string, suffix ...string) (string, error) {
	name = strings.Trim(name, "/")
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidEndpointPath, name)
	}
	u, err := c.constructAPIEndpoint(collection)
	if err != nil {
		return "", err
	}
	u += "/" + url.PathEscape(name)
	for _, s := range suffix {
		u += "/" + s
	}
	return u, nil
}

// newRequest creates a request carrying the authentication and user agent headers.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends the request and returns the response body.
// Any non-2xx response is returned as an *EngineCallError.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseErrorResponse(req, resp, body)
	}
	return body, nil
}

// doJSON sends the request and decodes the response body into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL, err)
	}
	return nil
}

// doRaw sends the request and returns the response body as opaque JSON.
// An empty body becomes a JSON null.
func (c *Client) doRaw(req *http.Request) (json.RawMessage, error) {
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode response from %s: body is not valid JSON", req.URL)
	}
	return json.RawMessage(body), nil
}

// parseErrorResponse turns a non-2xx response into an *EngineCallError.
// The body is kept when it is a JSON document, otherwise it is replaced by an empty object.
func (c *Client) parseErrorResponse(req *http.Request, resp *http.Response, body []byte) error {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil || parsed == nil {
		parsed = map[string]any{}
	}
	return &EngineCallError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       parsed,
		RawBody:    string(body),
	}
}
