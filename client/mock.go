package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
)

const (
	MockTargetUp   = "test-db"
	MockTargetDown = "test-db-down"
)

// introspectableEngines are the engine types for which the mock can return a schema.
var introspectableEngines = []string{"postgres", "mysql"}

// Mock is a deterministic in-memory Engine used in test mode.
// It never performs network I/O.
type Mock struct {
	Targets   []types.Target
	Endpoints []types.EndpointMetadata
	// Down lists the slugs whose database status is reported as down.
	Down []string

	mu    sync.Mutex
	calls []types.EndpointRequest
}

// NewMock returns a mock engine with two targets (one of them down) and two endpoints.
func NewMock() *Mock {
	return &Mock{
		Targets: []types.Target{
			{
				Slug:                    MockTargetUp,
				Description:             "Test database",
				EngineType:              "postgres",
				AllowsRawReadonlyQuery:  true,
				AllowsRawReadWriteQuery: true,
			},
			{
				Slug:                   MockTargetDown,
				Description:            "Test database that cannot be reached",
				EngineType:             "mongodb",
				AllowsRawReadonlyQuery: true,
			},
		},
		Endpoints: []types.EndpointMetadata{
			{
				Path:          "test",
				RequestMethod: types.MethodGet,
				Description:   "Test endpoint",
				Params:        map[string]types.ParameterSpec{},
			},
			{
				Path:          "create_user",
				RequestMethod: http.MethodPost,
				Description:   "Create a user",
				Params: map[string]types.ParameterSpec{
					"name": {
						Schema:      map[string]any{"type": "string"},
						Description: "Name of the user",
					},
				},
			},
		},
		Down: []string{MockTargetDown},
	}
}

func (m *Mock) GetTargets(_ context.Context) ([]types.Target, error) {
	return slices.Clone(m.Targets), nil
}

func (m *Mock) GetStatus(_ context.Context) (*types.Status, error) {
	return &types.Status{OK: true}, nil
}

func (m *Mock) GetTargetDBStatus(_ context.Context, slug string) (*types.Status, error) {
	if _, err := m.target(http.MethodGet, slug, "db-status"); err != nil {
		return nil, err
	}
	return &types.Status{OK: !slices.Contains(m.Down, slug)}, nil
}

func (m *Mock) GetSchema(_ context.Context, slug string) (json.RawMessage, error) {
	t, err := m.target(http.MethodGet, slug, "schema")
	if err != nil {
		return nil, err
	}
	if !slices.Contains(introspectableEngines, t.EngineType) {
		return nil, m.callError(http.MethodGet, "/targets/"+slug+"/schema", http.StatusMethodNotAllowed,
			fmt.Sprintf("schema introspection is not supported for engine type %s", t.EngineType))
	}
	return marshalRaw(map[string]any{
		"target": slug,
		"tables": []any{
			map[string]any{
				"name": "users",
				"columns": []any{
					map[string]any{"name": "id", "type": "uuid"},
					map[string]any{"name": "name", "type": "text"},
				},
			},
		},
	})
}

func (m *Mock) ExecuteReadonlyQuery(_ context.Context, slug, query string) (json.RawMessage, error) {
	t, err := m.target(http.MethodPost, slug, "readonly-query")
	if err != nil {
		return nil, err
	}
	if !t.AllowsRawReadonlyQuery {
		return nil, m.callError(http.MethodPost, "/targets/"+slug+"/readonly-query", http.StatusForbidden,
			"raw readonly queries are not allowed on this target")
	}
	return marshalRaw(map[string]any{"target": slug, "query": query, "readonly": true, "rows": []any{}})
}

func (m *Mock) ExecuteReadWriteQuery(_ context.Context, slug, query string) (json.RawMessage, error) {
	t, err := m.target(http.MethodPost, slug, "read-write-query")
	if err != nil {
		return nil, err
	}
	if !t.AllowsRawReadWriteQuery {
		return nil, m.callError(http.MethodPost, "/targets/"+slug+"/read-write-query", http.StatusForbidden,
			"raw read-write queries are not allowed on this target")
	}
	return marshalRaw(map[string]any{"target": slug, "query": query, "readonly": false, "rows": []any{}})
}

func (m *Mock) GetEndpoints(_ context.Context) ([]types.EndpointMetadata, error) {
	return slices.Clone(m.Endpoints), nil
}

// ExecuteRequest echoes the request back.
// GET parameters are stringified the same way the HTTP client puts them in the query string.
func (m *Mock) ExecuteRequest(_ context.Context, r types.EndpointRequest) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, r)
	m.mu.Unlock()

	params := map[string]any{}
	for k, v := range r.Parameters {
		if !r.IsGet() {
			params[k] = v
			continue
		}
		if v == nil {
			continue
		}
		s, err := stringify(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parameters of endpoint %s: %w", r.Path, err)
		}
		params[k] = s
	}
	method := http.MethodPost
	if r.IsGet() {
		method = http.MethodGet
	}
	return marshalRaw(map[string]any{
		"path":          r.Path,
		"requestMethod": method,
		"parameters":    params,
	})
}

// Calls returns the endpoint requests received so far.
func (m *Mock) Calls() []types.EndpointRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *Mock) target(method, slug, op string) (*types.Target, error) {
	for i := range m.Targets {
		if m.Targets[i].Slug == slug {
			return &m.Targets[i], nil
		}
	}
	return nil, m.callError(method, "/targets/"+slug+"/"+op, http.StatusNotFound,
		fmt.Sprintf("target %s not found", slug))
}

func (m *Mock) callError(method, path string, status int, msg string) *EngineCallError {
	body := map[string]any{"error": msg}
	raw, _ := json.Marshal(body)
	return &EngineCallError{
		Method:     method,
		URL:        "mock://engine" + path,
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
		RawBody:    string(raw),
	}
}

func marshalRaw(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mock response: %w", err)
	}
	return b, nil
}
