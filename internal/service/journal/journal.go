// Package journal records every tool call in a database so that past calls can be inspected later.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neurelo-connect/neurelo-connect-mcp/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultListLimit is the number of calls returned by List when no limit is given.
const DefaultListLimit = 20

// Entry is the data recorded for one tool call.
type Entry struct {
	Tool       string
	Arguments  map[string]any
	Outcome    string
	Error      string
	StatusCode int
	Duration   time.Duration
}

// Recorder persists tool calls.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// ListOptions filters the calls returned by List.
type ListOptions struct {
	// Tool restricts the listing to one tool, all tools if empty.
	Tool string
	// Limit is the maximum number of calls returned, DefaultListLimit if zero or less.
	Limit int
	// FailedOnly restricts the listing to calls that returned an error.
	FailedOnly bool
}

// JournalService stores tool calls using gorm.
type JournalService struct {
	db *gorm.DB
}

func NewJournalService(db *gorm.DB) *JournalService {
	return &JournalService{db: db}
}

// Record inserts one tool call. A nil JournalService records nothing.
func (j *JournalService) Record(ctx context.Context, e Entry) error {
	if j == nil {
		return nil
	}
	args := e.Arguments
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments of %s: %w", e.Tool, err)
	}
	call := &model.ToolCall{
		Tool:       e.Tool,
		Arguments:  datatypes.JSON(raw),
		Outcome:    e.Outcome,
		Error:      e.Error,
		StatusCode: e.StatusCode,
		DurationMs: e.Duration.Milliseconds(),
	}
	if err := j.db.WithContext(ctx).Create(call).Error; err != nil {
		return fmt.Errorf("failed to record call to %s: %w", e.Tool, err)
	}
	return nil
}

// List returns the most recent calls first.
func (j *JournalService) List(ctx context.Context, opts ListOptions) ([]*model.ToolCall, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := j.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if opts.Tool != "" {
		q = q.Where("tool = ?", opts.Tool)
	}
	if opts.FailedOnly {
		q = q.Where("error <> ''")
	}

	var calls []*model.ToolCall
	if err := q.Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to list tool calls: %w", err)
	}
	return calls, nil
}

// Purge deletes the calls recorded before the given time and returns how many were removed.
func (j *JournalService) Purge(ctx context.Context, before time.Time) (int64, error) {
	result := j.db.WithContext(ctx).Where("created_at < ?", before).Delete(&model.ToolCall{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge tool calls: %w", result.Error)
	}
	return result.RowsAffected, nil
}
