package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
)

// Describe returns the API representation of a registered tool.
func (r *Registration) Describe() (types.Tool, error) {
	t := types.Tool{
		Name:        r.Name,
		Kind:        string(r.Kind),
		Description: r.Tool.Description,
		InputSchema: r.Params.InputSchema(),
	}
	if r.Endpoint != nil {
		t.Endpoint = r.Endpoint.Path
	}

	serialized, err := json.Marshal(r.Tool.Annotations)
	if err != nil {
		return types.Tool{}, fmt.Errorf("failed to marshal annotations of tool %s: %w", r.Name, err)
	}
	if err := json.Unmarshal(serialized, &t.Annotations); err != nil {
		return types.Tool{}, fmt.Errorf("failed to unmarshal annotations of tool %s: %w", r.Name, err)
	}
	return t, nil
}

// ListTools returns the API representation of every registered tool, in registration order.
func (s *ToolService) ListTools() ([]types.Tool, error) {
	regs := s.registry.List()
	out := make([]types.Tool, 0, len(regs))
	for _, reg := range regs {
		t, err := reg.Describe()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTool returns the API representation of a single tool.
func (s *ToolService) GetTool(name string) (*types.Tool, error) {
	reg, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %s is not registered", name)
	}
	t, err := reg.Describe()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InvokeTool calls a tool and converts its result for API consumers.
func (s *ToolService) InvokeTool(ctx context.Context, name string, args map[string]any) (*types.ToolInvokeResult, error) {
	resp, err := s.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}
	result, err := convertToolCallResToAPIRes(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to convert MCP response to api response: %w", err)
	}
	return result, nil
}

// convertToolCallResToAPIRes converts an MCP CallToolResult to types.ToolInvokeResult.
func convertToolCallResToAPIRes(resp *mcp.CallToolResult) (*types.ToolInvokeResult, error) {
	contentList, err := convertToolCallRespContent(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to convert content: %w", err)
	}

	var meta map[string]any
	if resp.Meta != nil && len(resp.Meta.AdditionalFields) > 0 {
		meta = maps.Clone(resp.Meta.AdditionalFields)
	}

	return &types.ToolInvokeResult{
		Meta:    meta,
		IsError: resp.IsError,
		Content: contentList,
	}, nil
}

func convertToolCallRespContent(content []mcp.Content) ([]map[string]any, error) {
	contentList := make([]map[string]any, 0, len(content))
	for i, item := range content {
		serialized, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal content item %d: %w", i, err)
		}
		var contentMap map[string]any
		if err := json.Unmarshal(serialized, &contentMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content item %d: %w", i, err)
		}
		contentList = append(contentList, contentMap)
	}
	return contentList, nil
}
