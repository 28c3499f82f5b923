package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neurelo-connect/neurelo-connect-mcp/internal/schema"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
	"go.uber.org/zap"
)

// ErrInvalidEndpoint is returned for an endpoint that cannot be turned into a tool.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// registerEndpointTools fetches the endpoint snapshot once and registers one tool per endpoint.
func (s *ToolService) registerEndpointTools(ctx context.Context) error {
	endpoints, err := s.engine.GetEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch endpoints from engine: %w", err)
	}
	s.logger.Info("fetched endpoints from engine", zap.Int("count", len(endpoints)))

	for i := range endpoints {
		ep := endpoints[i]
		if err := s.registerEndpoint(&ep); err != nil {
			// a name collision is a configuration error, it is never skipped
			if s.opts.SkipInvalidEndpoints && !errors.Is(err, ErrDuplicateTool) {
				s.logger.Error("skipping endpoint", zap.String("path", ep.Path), zap.Error(err))
				continue
			}
			return err
		}
	}
	return nil
}

func (s *ToolService) registerEndpoint(ep *types.EndpointMetadata) error {
	if strings.Trim(ep.Path, "/") == "" {
		return fmt.Errorf("%w: endpoint path must not be empty", ErrInvalidEndpoint)
	}
	unprefixed := EndpointToolName(ep.Path)
	name := withPrefix(s.opts.Prefix, unprefixed)
	if s.disabled.has(name, unprefixed, ep.Path) {
		s.logger.Info("skipping disabled endpoint", zap.String("path", ep.Path), zap.String("tool", name))
		return nil
	}

	params, err := schema.CompileParams(ep.Params)
	if err != nil {
		return fmt.Errorf("%w: failed to compile parameters of endpoint %s: %w", ErrInvalidEndpoint, ep.Path, err)
	}

	tool, err := newTool(name, endpointDescription(ep, params), params, ep.IsGet())
	if err != nil {
		return err
	}
	reg, err := s.add(KindEndpoint, tool, params, func(ctx context.Context, args map[string]any) (any, error) {
		return s.engine.ExecuteRequest(ctx, types.EndpointRequest{
			Path:          ep.Path,
			RequestMethod: ep.RequestMethod,
			Parameters:    args,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to register endpoint %s: %w", ep.Path, err)
	}
	reg.Endpoint = ep
	return nil
}

// endpointDescription documents an endpoint tool with its method, path and parameters.
func endpointDescription(ep *types.EndpointMetadata, params *schema.ParamSet) string {
	var b strings.Builder
	if ep.Description != "" {
		b.WriteString(ep.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Calls the %s endpoint %s.", ep.RequestMethod, ep.Path)
	if params.Len() > 0 {
		b.WriteString("\nParameters:")
		for _, line := range params.Describe() {
			b.WriteString("\n- ")
			b.WriteString(line)
		}
	}
	return b.String()
}
