package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTargets(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	targets, err := m.GetTargets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, MockTargetUp, targets[0].Slug)
	assert.Equal(t, MockTargetDown, targets[1].Slug)

	status, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.OK)
}

func TestMockTargetDBStatus(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	up, err := m.GetTargetDBStatus(ctx, MockTargetUp)
	require.NoError(t, err)
	assert.True(t, up.OK)

	down, err := m.GetTargetDBStatus(ctx, MockTargetDown)
	require.NoError(t, err)
	assert.False(t, down.OK)

	_, err = m.GetTargetDBStatus(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestMockSchema(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	raw, err := m.GetSchema(ctx, MockTargetUp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"users"`)

	_, err = m.GetSchema(ctx, MockTargetDown)
	assert.Equal(t, http.StatusMethodNotAllowed, StatusCode(err))

	_, err = m.GetSchema(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestMockQueries(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	raw, err := m.ExecuteReadonlyQuery(ctx, MockTargetUp, "SELECT 1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":"test-db","query":"SELECT 1","readonly":true,"rows":[]}`, string(raw))

	_, err = m.ExecuteReadWriteQuery(ctx, MockTargetDown, "DELETE FROM t")
	assert.Equal(t, http.StatusForbidden, StatusCode(err))

	_, err = m.ExecuteReadonlyQuery(ctx, "missing", "SELECT 1")
	assert.True(t, IsNotFound(err))
}

func TestMockExecuteRequest(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	raw, err := m.ExecuteRequest(ctx, types.EndpointRequest{Path: "test", RequestMethod: "GET"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"test","requestMethod":"GET","parameters":{}}`, string(raw))

	raw, err = m.ExecuteRequest(ctx, types.EndpointRequest{
		Path:          "find",
		RequestMethod: "GET",
		Parameters:    map[string]any{"limit": 42.0, "active": true},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"find","requestMethod":"GET","parameters":{"limit":"42","active":"true"}}`, string(raw))

	raw, err = m.ExecuteRequest(ctx, types.EndpointRequest{
		Path:          "create_user",
		RequestMethod: "PATCH",
		Parameters:    map[string]any{"name": "Jane", "age": 42.0},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"create_user","requestMethod":"POST","parameters":{"name":"Jane","age":42}}`, string(raw))

	assert.Len(t, m.Calls(), 3)
}

func TestMockEndpoints(t *testing.T) {
	endpoints, err := NewMock().GetEndpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "test", endpoints[0].Path)
	assert.Equal(t, types.MethodGet, endpoints[0].RequestMethod)
	assert.Equal(t, "create_user", endpoints[1].Path)
	assert.Contains(t, endpoints[1].Params, "name")
}
