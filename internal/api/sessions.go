package api

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/telemetry"
	"go.uber.org/zap"
)

// SessionTracker keeps track of the MCP client sessions currently open on the server.
// Entries are inserted when a session registers and deleted when it unregisters.
type SessionTracker struct {
	mu       sync.RWMutex
	sessions map[string]time.Time

	metrics telemetry.CustomMetrics
	logger  *zap.Logger
}

// NewSessionTracker creates an empty session tracker.
// metrics and logger may be nil.
func NewSessionTracker(metrics telemetry.CustomMetrics, logger *zap.Logger) *SessionTracker {
	if metrics == nil {
		metrics = telemetry.NewNoopCustomMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTracker{
		sessions: make(map[string]time.Time),
		metrics:  metrics,
		logger:   logger,
	}
}

// Hooks returns the MCP server hooks that feed the tracker.
func (t *SessionTracker) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		t.Open(ctx, session.SessionID())
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		t.Close(ctx, session.SessionID())
	})
	return hooks
}

// Open records a new session. Re-opening a known session is a no-op.
func (t *SessionTracker) Open(ctx context.Context, id string) {
	t.mu.Lock()
	_, exists := t.sessions[id]
	if !exists {
		t.sessions[id] = time.Now()
	}
	t.mu.Unlock()

	if exists {
		return
	}
	t.metrics.AddActiveSessions(ctx, 1)
	t.logger.Debug("session opened", zap.String("session_id", id))
}

// Close releases a session. Closing an unknown session is a no-op.
func (t *SessionTracker) Close(ctx context.Context, id string) {
	t.mu.Lock()
	_, exists := t.sessions[id]
	delete(t.sessions, id)
	t.mu.Unlock()

	if !exists {
		return
	}
	t.metrics.AddActiveSessions(ctx, -1)
	t.logger.Debug("session closed", zap.String("session_id", id))
}

// Count returns the number of open sessions.
func (t *SessionTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Sessions returns a snapshot of the open sessions and the time they were opened.
func (t *SessionTracker) Sessions() map[string]time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.sessions)
}
