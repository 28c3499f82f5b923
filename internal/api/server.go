// Package api provides the HTTP transport of the MCP server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/service/journal"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/service/tools"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/telemetry"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	V0PathPrefix    = "/v0"
	V0ApiPathPrefix = "/api" + V0PathPrefix
)

// shutdownTimeout bounds how long Start waits for open connections once its context is done.
const shutdownTimeout = 5 * time.Second

type ServerOptions struct {
	// Port is the HTTP port to bind the server to
	Port string

	// ServerName is the display name reported by /metadata
	ServerName string

	// MCPServer holds the registered tools. It is served over both the
	// streamable http transport (/mcp) and the SSE transport (/sse, /message).
	MCPServer *server.MCPServer

	ToolService *tools.ToolService
	// JournalService is optional, /api/v0/calls is unavailable without it.
	JournalService *journal.JournalService
	Sessions       *SessionTracker

	OtelProviders *telemetry.Providers
	Logger        *zap.Logger
}

// Server serves the MCP transports and a small JSON API over HTTP.
type Server struct {
	port       string
	serverName string
	router     *gin.Engine

	mcpServer *server.MCPServer

	toolService    *tools.ToolService
	journalService *journal.JournalService
	sessions       *SessionTracker

	otelProviders *telemetry.Providers
	logger        *zap.Logger
}

// NewServer initializes a new Gin server for the MCP transports.
func NewServer(opts *ServerOptions) (*Server, error) {
	if opts.MCPServer == nil {
		return nil, errors.New("an MCP server is required")
	}
	if opts.ToolService == nil {
		return nil, errors.New("a tool service is required")
	}
	s := &Server{
		port:           opts.Port,
		serverName:     opts.ServerName,
		mcpServer:      opts.MCPServer,
		toolService:    opts.ToolService,
		journalService: opts.JournalService,
		sessions:       opts.Sessions,
		otelProviders:  opts.OtelProviders,
		logger:         opts.Logger,
	}
	if s.sessions == nil {
		s.sessions = NewSessionTracker(nil, opts.Logger)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	r, err := s.setupRouter()
	if err != nil {
		return nil, err
	}
	s.router = r

	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is done (blocking call).
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening for MCP clients", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run the server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// SSE streams stay open until their clients go away
		_ = srv.Close()
		return fmt.Errorf("failed to shut down the server gracefully: %w", err)
	}
	return nil
}

// setupRouter sets up the Gin router with the MCP transports and API endpoints.
func (s *Server) setupRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	// if otel is enabled, setup prometheus metrics endpoint
	if s.otelProviders != nil && s.otelProviders.IsEnabled() {
		// instrument gin
		r.Use(otelgin.Middleware(s.otelProviders.ServiceName()))

		// expose prometheus metrics endpoint
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET(
		"/health",
		func(c *gin.Context) {
			c.JSON(http.StatusOK, types.HealthStatus{Status: "ok", ActiveSessions: s.sessions.Count()})
		},
	)

	r.GET(
		"/metadata",
		func(c *gin.Context) {
			m := &types.ServerMetadata{
				Name:    s.serverName,
				Version: version.GetVersion(),
			}
			c.JSON(http.StatusOK, m)
		},
	)

	// streamable http transport, sessions are keyed by the Mcp-Session-Id header
	streamableHTTPServer := server.NewStreamableHTTPServer(s.mcpServer)
	r.Any("/mcp", gin.WrapH(streamableHTTPServer))

	// SSE transport: /sse opens a session and announces its id,
	// /message?sessionId=<id> delivers client messages to that session
	sseServer := server.NewSSEServer(s.mcpServer)
	r.GET("/sse", gin.WrapH(sseServer.SSEHandler()))
	r.POST("/message", gin.WrapH(sseServer.MessageHandler()))

	apiV0 := r.Group(V0ApiPathPrefix)
	{
		apiV0.GET("/tools", s.listToolsHandler())
		apiV0.GET("/tool", s.getToolHandler())
		apiV0.POST("/tools/invoke", s.invokeToolHandler())

		apiV0.GET("/calls", s.listCallsHandler())
	}

	return r, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		)
	}
}
