package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistration(name string, kind Kind) *Registration {
	return &Registration{
		Name: name,
		Kind: kind,
		Tool: mcp.NewTool(name),
		Handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(name), nil
		},
	}
}

func TestRegistryKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, r.Add(testRegistration(name, KindBuiltin)))
	}
	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
	assert.Equal(t, 3, r.Len())

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].Name)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(testRegistration("query_a_b", KindEndpoint)))

	err := r.Add(testRegistration("query_a_b", KindEndpoint))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTool))
	assert.Contains(t, err.Error(), "endpoint tool")
	assert.Equal(t, 1, r.Len())

	// the first registration is kept
	reg, ok := r.Get("query_a_b")
	require.True(t, ok)
	assert.Equal(t, KindEndpoint, reg.Kind)
}

func TestRegistryGetMissing(t *testing.T) {
	_, ok := NewRegistry().Get("nope")
	assert.False(t, ok)
}

func TestRegistryInstall(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(testRegistration("one", KindBuiltin)))
	require.NoError(t, r.Add(testRegistration("two", KindDynamic)))

	s := server.NewMCPServer("test", "0.0.1", server.WithToolCapabilities(true))
	r.Install(s)

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"one"`)
	assert.Contains(t, string(raw), `"name":"two"`)
}
