package tools

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/schema"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
)

// ErrDuplicateTool is returned when two tools would be registered under the same name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Kind tells where a registered tool comes from.
type Kind string

const (
	KindBuiltin  Kind = "builtin"
	KindDynamic  Kind = "dynamic"
	KindEndpoint Kind = "endpoint"
)

// Registration binds a tool name to its input contract and handler.
type Registration struct {
	Name    string
	Kind    Kind
	Tool    mcp.Tool
	Params  *schema.ParamSet
	Handler server.ToolHandlerFunc

	// Endpoint is the engine endpoint served by the tool, only set for KindEndpoint.
	Endpoint *types.EndpointMetadata
}

// Registry is the ordered set of tools exposed by one server.
// It is built once at startup and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*Registration
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Registration)}
}

// Add appends a registration.
// It refuses a name that is already taken instead of replacing the existing tool.
func (r *Registry) Add(reg *Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[reg.Name]; ok {
		return fmt.Errorf("%w: %s is already registered as a %s tool", ErrDuplicateTool, reg.Name, existing.Kind)
	}
	r.byName[reg.Name] = reg
	r.order = append(r.order, reg.Name)
	return nil
}

// Get returns the registration of a tool.
func (r *Registry) Get(name string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byName[name]
	return reg, ok
}

// List returns the registrations in the order they were added.
func (r *Registry) List() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Registration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the tool names in the order they were added.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Install adds every registered tool to an MCP server.
func (r *Registry) Install(s *server.MCPServer) {
	for _, reg := range r.List() {
		s.AddTool(reg.Tool, reg.Handler)
	}
}
