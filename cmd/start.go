package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/api"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/config"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/logging"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	startServerCmdBindPort  string
	startServerCmdTelemetry bool
)

var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MCP server",
	Long: "Starts the MCP server and registers the tools of the engine.\n\n" +
		"By default, the server talks MCP over stdin/stdout, which is what desktop MCP clients expect.\n" +
		"When a port is given (--port or " + config.PortEnvVar + "), the server listens over HTTP instead, with\n" +
		"the streamable http transport on /mcp and the SSE transport on /sse and /message.\n\n" +
		"The engine is reached at " + config.BasePathEnvVar + " with the key in " + config.APIKeyEnvVar + ".\n" +
		"The endpoints are fetched once at startup: restart the server to pick up new endpoints.\n" +
		"Startup fails if the parameter schema of an endpoint cannot be compiled, unless --skip-invalid-endpoints is set.",
	RunE: runStartServer,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "1",
	},
}

func init() {
	startServerCmd.Flags().StringVar(
		&startServerCmdBindPort,
		"port",
		"",
		fmt.Sprintf("port to serve the HTTP transport on (overrides env var %s)", config.PortEnvVar),
	)
	startServerCmd.Flags().BoolVar(
		&startServerCmdTelemetry,
		"telemetry",
		false,
		fmt.Sprintf(
			"expose prometheus metrics on /metrics when serving over HTTP."+
				" Alternatively, set the %s environment variable ('true' | 'false')",
			config.TelemetryEnabledEnvVar,
		),
	)

	rootCmd.AddCommand(startServerCmd)
}

func runStartServer(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd, func(o *config.Overrides) {
		if cmd.Flags().Changed("port") {
			o.Port = &startServerCmdBindPort
		}
		if cmd.Flags().Changed("telemetry") {
			o.Telemetry = &startServerCmdTelemetry
		}
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(c.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelProviders, err := telemetry.Init(ctx, &telemetry.Config{
		ServiceName: "neurelo-mcp",
		Enabled:     c.Telemetry,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Opentelemetry providers: %w", err)
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shutdown opentelemetry providers", zap.Error(err))
		}
	}()

	// The no-op implementation is used unless metrics are enabled,
	// so the rest of the code never has to check whether metrics are on.
	metrics := telemetry.NewNoopCustomMetrics()
	if otelProviders.IsEnabled() {
		metrics, err = telemetry.NewOtelCustomMetrics(otelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create MCP metrics: %w", err)
		}
	}

	journalService, closeJournal, err := openJournal(c)
	if err != nil {
		return err
	}
	defer closeJournal()

	toolService, err := newToolService(c, logger, metrics, journalService)
	if err != nil {
		return err
	}

	sessions := api.NewSessionTracker(metrics, logger)
	mcpServer := api.NewMCPServer(c.ServerName, sessions)
	if err := toolService.InstallInto(ctx, mcpServer); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	if !c.UsesHTTP() {
		logger.Info("serving MCP over stdio", zap.String("server_name", c.ServerName))
		if err := server.ServeStdio(mcpServer); err != nil {
			return fmt.Errorf("stdio transport failed: %w", err)
		}
		return nil
	}

	s, err := api.NewServer(&api.ServerOptions{
		Port:           c.Port,
		ServerName:     c.ServerName,
		MCPServer:      mcpServer,
		ToolService:    toolService,
		JournalService: journalService,
		Sessions:       sessions,
		OtelProviders:  otelProviders,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	cmd.Printf("%s listening on :%s\n\n", c.ServerName, c.Port)
	return s.Start(ctx)
}
