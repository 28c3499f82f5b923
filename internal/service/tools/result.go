package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/neurelo-connect/neurelo-connect-mcp/client"
)

// JSONMimeType tags the content block, and the result, of every successful tool call.
const JSONMimeType = "application/json"

// jsonResult serializes the engine's answer into a single text block.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	var text []byte
	switch raw := v.(type) {
	case json.RawMessage:
		text = raw
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize tool result: %w", err)
		}
		text = b
	}
	content := mcp.NewTextContent(string(text))
	content.Meta = jsonMeta()
	return &mcp.CallToolResult{
		Result:  mcp.Result{Meta: jsonMeta()},
		Content: []mcp.Content{content},
	}, nil
}

func jsonMeta() *mcp.Meta {
	return &mcp.Meta{AdditionalFields: map[string]any{"mimeType": JSONMimeType}}
}

// errorResult reports a failure back to the MCP client.
// Engine errors carry their method, URL, status and body so the model can act on them.
func errorResult(err error) *mcp.CallToolResult {
	var callErr *client.EngineCallError
	if errors.As(err, &callErr) {
		details, mErr := json.Marshal(callErr.Details())
		if mErr == nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s\n%s", err.Error(), details))
		}
	}
	return mcp.NewToolResultError(err.Error())
}
