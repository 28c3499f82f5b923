// Package tools builds the set of MCP tools exposed by the server and dispatches tool calls to the engine.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neurelo-connect/neurelo-connect-mcp/client"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/schema"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/service/journal"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/telemetry"
	"go.uber.org/zap"
)

// Options control which tools are registered and how they are named.
type Options struct {
	// Prefix namespaces the endpoint tools, eg- "crm" turns query_users into crm_query_users.
	Prefix string

	// DynamicEndpoints replaces the per-endpoint tools by the generic
	// system_get_endpoints and call_endpoint tools.
	DynamicEndpoints bool

	// DisabledTools lists the tools that must not be registered.
	// Endpoints can be disabled by tool name (with or without prefix) or by path.
	DisabledTools []string

	// SkipInvalidEndpoints registers the remaining endpoints when the schema of one of them
	// cannot be compiled, instead of failing.
	SkipInvalidEndpoints bool
}

// ServiceConfig holds the parameters for creating a ToolService.
type ServiceConfig struct {
	Engine  client.Engine
	Metrics telemetry.CustomMetrics
	// Journal records every tool call, optional.
	Journal journal.Recorder
	Logger  *zap.Logger
	Options Options
}

// ToolService registers the tools and handles their calls.
type ToolService struct {
	engine   client.Engine
	metrics  telemetry.CustomMetrics
	journal  journal.Recorder
	logger   *zap.Logger
	opts     Options
	disabled disabledSet

	registry *Registry
}

// NewToolService creates a ToolService. No tool is registered until Register is called.
func NewToolService(c *ServiceConfig) (*ToolService, error) {
	if c == nil || c.Engine == nil {
		return nil, errors.New("an engine client is required")
	}
	if err := ValidatePrefix(c.Options.Prefix); err != nil {
		return nil, err
	}
	s := &ToolService{
		engine:   c.Engine,
		metrics:  c.Metrics,
		journal:  c.Journal,
		logger:   c.Logger,
		opts:     c.Options,
		disabled: newDisabledSet(c.Options.DisabledTools),
		registry: NewRegistry(),
	}
	// a nil *JournalService stored in the interface means no journal
	if j, ok := s.journal.(*journal.JournalService); ok && j == nil {
		s.journal = nil
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewNoopCustomMetrics()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// Register builds the tool registry: the built-in tools first, then either the generic
// endpoint tools or one tool per endpoint fetched from the engine.
// It must be called exactly once.
func (s *ToolService) Register(ctx context.Context) (*Registry, error) {
	if s.registry.Len() > 0 {
		return nil, errors.New("tools are already registered")
	}
	if err := s.registerBuiltins(); err != nil {
		return nil, err
	}
	if s.opts.DynamicEndpoints {
		if err := s.registerDynamicEndpointTools(); err != nil {
			return nil, err
		}
	} else {
		if err := s.registerEndpointTools(ctx); err != nil {
			return nil, err
		}
	}
	s.logger.Info("registered tools",
		zap.Int("count", s.registry.Len()),
		zap.Bool("dynamic_endpoints", s.opts.DynamicEndpoints),
	)
	return s.registry, nil
}

// Registry returns the tools registered so far.
func (s *ToolService) Registry() *Registry {
	return s.registry
}

// InstallInto registers the tools and adds them to each of the given MCP servers.
func (s *ToolService) InstallInto(ctx context.Context, servers ...*server.MCPServer) error {
	reg, err := s.Register(ctx)
	if err != nil {
		return err
	}
	for _, srv := range servers {
		reg.Install(srv)
	}
	return nil
}

// Call invokes a registered tool directly, bypassing the MCP transport.
func (s *ToolService) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	reg, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %s is not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return reg.Handler(ctx, req)
}

// engineCall is the single engine operation performed by a tool.
type engineCall func(ctx context.Context, args map[string]any) (any, error)

// add registers a tool whose handler validates the arguments against params and then runs call.
func (s *ToolService) add(kind Kind, tool mcp.Tool, params *schema.ParamSet, call engineCall) (*Registration, error) {
	reg := &Registration{
		Name:    tool.Name,
		Kind:    kind,
		Tool:    tool,
		Params:  params,
		Handler: s.handler(tool.Name, params, call),
	}
	if err := s.registry.Add(reg); err != nil {
		return nil, err
	}
	s.logger.Debug("registered tool", zap.String("tool", tool.Name), zap.String("kind", string(kind)))
	return reg, nil
}

// handler wraps an engine call into an MCP tool handler.
// Failures are returned as error results, the returned error is always nil.
func (s *ToolService) handler(name string, params *schema.ParamSet, call engineCall) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		outcome := telemetry.ToolCallOutcomeError
		args := req.GetArguments()
		var callErr error

		// record the tool call when the handler returns
		defer func() {
			d := time.Since(started)
			s.metrics.RecordToolCall(ctx, name, outcome, d)
			s.recordCall(ctx, name, args, outcome, callErr, d)
		}()

		if err := params.Validate(args); err != nil {
			outcome = telemetry.ToolCallOutcomeInvalid
			callErr = fmt.Errorf("invalid arguments for tool %s: %w", name, err)
			return errorResult(callErr), nil
		}

		result, err := call(ctx, params.Strip(args))
		if err != nil {
			callErr = err
			s.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
			return errorResult(err), nil
		}

		res, err := jsonResult(result)
		if err != nil {
			callErr = err
			return errorResult(err), nil
		}
		outcome = telemetry.ToolCallOutcomeSuccess
		return res, nil
	}
}

func (s *ToolService) recordCall(ctx context.Context, name string, args map[string]any, outcome telemetry.ToolCallOutcome, callErr error, d time.Duration) {
	if s.journal == nil {
		return
	}
	e := journal.Entry{
		Tool:      name,
		Arguments: args,
		Outcome:   string(outcome),
		Duration:  d,
	}
	if callErr != nil {
		e.Error = callErr.Error()
		e.StatusCode = client.StatusCode(callErr)
	}
	// the call already happened, a journal failure must not turn it into an error
	if err := s.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("failed to record tool call", zap.String("tool", name), zap.Error(err))
	}
}
