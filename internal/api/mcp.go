package api

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/version"
)

// NewMCPServer creates the MCP server on which the tools are installed.
// Session lifecycle events are reported to sessions when it is not nil.
func NewMCPServer(name string, sessions *SessionTracker) *server.MCPServer {
	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	}
	if sessions != nil {
		opts = append(opts, server.WithHooks(sessions.Hooks()))
	}
	return server.NewMCPServer(name, version.GetVersion(), opts...)
}
