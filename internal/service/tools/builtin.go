package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/schema"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
	"go.uber.org/zap"
)

// Names of the built-in tools.
const (
	ToolListDatabases     = "system_list_databases"
	ToolGetDatabaseStatus = "system_get_database_status"
	ToolGetStatus         = "system_get_status"
	ToolGetDatabaseSchema = "system_get_database_schema"
	ToolRawReadonlyQuery  = "raw_readonly_query"
	ToolRawQuery          = "raw_query"

	ToolGetEndpoints = "system_get_endpoints"
	ToolCallEndpoint = "call_endpoint"
)

// BuiltinToolNames lists the built-in tools in registration order.
var BuiltinToolNames = []string{
	ToolListDatabases,
	ToolGetDatabaseStatus,
	ToolGetStatus,
	ToolGetDatabaseSchema,
	ToolRawReadonlyQuery,
	ToolRawQuery,
}

// DynamicToolNames lists the tools registered in dynamic endpoint mode.
var DynamicToolNames = []string{ToolGetEndpoints, ToolCallEndpoint}

var (
	noParams = mustParams(nil)

	targetParam = types.ParameterSpec{
		Schema:      map[string]any{"type": "string", "minLength": 1},
		Description: "Slug of the target database, as returned by " + ToolListDatabases,
	}

	targetParams = mustParams(map[string]types.ParameterSpec{"target": targetParam})

	queryParams = mustParams(map[string]types.ParameterSpec{
		"target": targetParam,
		"query": {
			Schema:      map[string]any{"type": "string", "minLength": 1},
			Description: "Query to run, in the native language of the target engine",
		},
	})

	callEndpointParams = mustParams(map[string]types.ParameterSpec{
		"path": {
			Schema:      map[string]any{"type": "string", "minLength": 1},
			Description: "Path of the endpoint, as returned by " + ToolGetEndpoints,
		},
		"requestMethod": {
			Schema:      map[string]any{"type": "string", "minLength": 1},
			Description: "HTTP method of the endpoint. GET parameters are sent in the query string, any other method sends them as a JSON body",
		},
		"parameters": {
			Schema: map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"oneOf": []any{
						map[string]any{"type": "string"},
						map[string]any{"type": "number"},
						map[string]any{"type": "boolean"},
					},
				},
			},
			Optional:    true,
			Description: "Parameters of the endpoint",
		},
	})
)

// mustParams compiles the parameters of a built-in tool. Built-in schemas are fixed,
// so a failure is a programming error.
func mustParams(specs map[string]types.ParameterSpec) *schema.ParamSet {
	ps, err := schema.CompileParams(specs)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in tool parameters: %v", err))
	}
	return ps
}

// newTool builds the MCP tool advertised for a registration.
func newTool(name, description string, params *schema.ParamSet, readOnly bool) (mcp.Tool, error) {
	inputSchema, err := json.Marshal(params.InputSchema())
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to serialize input schema of tool %s: %w", name, err)
	}
	tool := mcp.NewToolWithRawSchema(name, description, inputSchema)
	destructive := !readOnly
	tool.Annotations = mcp.ToolAnnotation{
		Title:           name,
		ReadOnlyHint:    &readOnly,
		DestructiveHint: &destructive,
	}
	return tool, nil
}

type builtin struct {
	name        string
	description string
	params      *schema.ParamSet
	readOnly    bool
	call        engineCall
}

func (s *ToolService) builtins() []builtin {
	return []builtin{
		{
			name:        ToolListDatabases,
			description: "List the databases (targets) available through the engine, with their engine type and the kinds of raw queries they allow.",
			params:      noParams,
			readOnly:    true,
			call: func(ctx context.Context, _ map[string]any) (any, error) {
				return s.engine.GetTargets(ctx)
			},
		},
		{
			name:        ToolGetDatabaseStatus,
			description: "Check whether the engine can reach a target database.",
			params:      targetParams,
			readOnly:    true,
			call: func(ctx context.Context, args map[string]any) (any, error) {
				return s.engine.GetTargetDBStatus(ctx, args["target"].(string))
			},
		},
		{
			name:        ToolGetStatus,
			description: "Check whether the engine itself is up.",
			params:      noParams,
			readOnly:    true,
			call: func(ctx context.Context, _ map[string]any) (any, error) {
				return s.engine.GetStatus(ctx)
			},
		},
		{
			name:        ToolGetDatabaseSchema,
			description: "Fetch the introspected schema of a target database.",
			params:      targetParams,
			readOnly:    true,
			call: func(ctx context.Context, args map[string]any) (any, error) {
				return s.engine.GetSchema(ctx, args["target"].(string))
			},
		},
		{
			name:        ToolRawReadonlyQuery,
			description: "Run a read-only query against a target database. The target must allow raw read-only queries.",
			params:      queryParams,
			readOnly:    true,
			call: func(ctx context.Context, args map[string]any) (any, error) {
				return s.engine.ExecuteReadonlyQuery(ctx, args["target"].(string), args["query"].(string))
			},
		},
		{
			name:        ToolRawQuery,
			description: "Run a query that may modify data against a target database. The target must allow raw read-write queries.",
			params:      queryParams,
			call: func(ctx context.Context, args map[string]any) (any, error) {
				return s.engine.ExecuteReadWriteQuery(ctx, args["target"].(string), args["query"].(string))
			},
		},
	}
}

func (s *ToolService) dynamicTools() []builtin {
	return []builtin{
		{
			name:        ToolGetEndpoints,
			description: "List the endpoints exposed by the engine, with their path, request method and parameter schemas.",
			params:      noParams,
			readOnly:    true,
			call: func(ctx context.Context, _ map[string]any) (any, error) {
				return s.engine.GetEndpoints(ctx)
			},
		},
		{
			name:        ToolCallEndpoint,
			description: "Call an engine endpoint by path. Use " + ToolGetEndpoints + " first to find its request method and parameters.",
			params:      callEndpointParams,
			call: func(ctx context.Context, args map[string]any) (any, error) {
				req := types.EndpointRequest{
					Path:          args["path"].(string),
					RequestMethod: args["requestMethod"].(string),
				}
				if p, ok := args["parameters"].(map[string]any); ok {
					req.Parameters = p
				}
				return s.engine.ExecuteRequest(ctx, req)
			},
		},
	}
}

// registerBuiltins registers the built-in tools that are not disabled.
func (s *ToolService) registerBuiltins() error {
	return s.registerFixed(s.builtins(), KindBuiltin)
}

// registerDynamicEndpointTools registers the generic endpoint tools used in dynamic mode.
func (s *ToolService) registerDynamicEndpointTools() error {
	return s.registerFixed(s.dynamicTools(), KindDynamic)
}

func (s *ToolService) registerFixed(tools []builtin, kind Kind) error {
	for _, b := range tools {
		if s.disabled.has(b.name) {
			s.logger.Info("skipping disabled tool", zap.String("tool", b.name))
			continue
		}
		tool, err := newTool(b.name, b.description, b.params, b.readOnly)
		if err != nil {
			return err
		}
		if _, err := s.add(kind, tool, b.params, b.call); err != nil {
			return err
		}
	}
	return nil
}
