package types

// Tool describes a tool exposed by the server.
type Tool struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	Annotations map[string]any `json:"annotations,omitempty"`

	// Endpoint is the path of the engine endpoint called by the tool, empty for built-in tools.
	Endpoint string `json:"endpoint,omitempty"`
}

// ToolInvokeInput is the request body of a direct tool invocation.
type ToolInvokeInput struct {
	Name  string         `json:"name" binding:"required"`
	Input map[string]any `json:"input"`
}

// ToolInvokeResult represents the result of a Tool call.
// It is designed to be passed down to the end user.
type ToolInvokeResult struct {
	Meta    map[string]any `json:"_meta,omitempty"`
	IsError bool           `json:"isError,omitempty"`

	Content []map[string]any `json:"content"`
}
