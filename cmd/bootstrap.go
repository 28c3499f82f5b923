package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/neurelo-connect/neurelo-connect-mcp/client"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/config"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/db"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/logging"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/service/journal"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/service/tools"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// engineRequestTimeout bounds a single round trip to the engine API.
const engineRequestTimeout = 60 * time.Second

// newEngine returns the engine facade selected by the configuration.
func newEngine(c *config.Config, logger *zap.Logger) client.Engine {
	if c.TestMode {
		logger.Warn("test mode is on, serving the in-memory mock engine")
		return client.NewMock()
	}
	return client.NewClient(c.BasePath, c.APIKey, &http.Client{Timeout: engineRequestTimeout})
}

// openJournal opens the call journal if one is configured.
// The returned close function is never nil.
func openJournal(c *config.Config) (*journal.JournalService, func(), error) {
	if c.JournalDSN == "" {
		return nil, func() {}, nil
	}
	conn, err := db.Open(c.JournalDSN)
	if err != nil {
		return nil, func() {}, err
	}
	return journal.NewJournalService(conn), closeDB(conn), nil
}

func closeDB(conn *gorm.DB) func() {
	return func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// newToolService builds the tool service for the configuration. Tools are registered by the caller.
// j may be nil, in which case tool calls are not journaled.
func newToolService(
	c *config.Config,
	logger *zap.Logger,
	metrics telemetry.CustomMetrics,
	j *journal.JournalService,
) (*tools.ToolService, error) {
	svc, err := tools.NewToolService(&tools.ServiceConfig{
		Engine:  newEngine(c, logger),
		Metrics: metrics,
		Journal: j,
		Logger:  logger,
		Options: tools.Options{
			Prefix:               c.ToolPrefix,
			DynamicEndpoints:     c.DynamicEndpoints,
			DisabledTools:        c.DisabledTools,
			SkipInvalidEndpoints: c.SkipInvalidEndpoints,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tool service: %w", err)
	}
	return svc, nil
}

// localTools builds and registers the tools in process, for the commands that inspect or call
// tools without starting a server. The returned close function is never nil.
func localTools(cmd *cobra.Command) (*tools.ToolService, func(), error) {
	c, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, func() {}, err
	}
	logger, err := logging.New(c.LogLevel)
	if err != nil {
		return nil, func() {}, err
	}
	j, closeJournal, err := openJournal(c)
	if err != nil {
		return nil, func() {}, err
	}
	svc, err := newToolService(c, logger, telemetry.NewNoopCustomMetrics(), j)
	if err != nil {
		closeJournal()
		return nil, func() {}, err
	}
	if _, err := svc.Register(cmd.Context()); err != nil {
		closeJournal()
		return nil, func() {}, fmt.Errorf("failed to register tools: %w", err)
	}
	return svc, closeJournal, nil
}
