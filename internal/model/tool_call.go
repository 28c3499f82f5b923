// Package model contains the records persisted in the call journal.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ToolCall is one invocation of a tool, as recorded in the call journal.
type ToolCall struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`

	// Tool is the registered name of the tool, including any configured prefix.
	Tool string `json:"tool" gorm:"index;not null"`

	// Arguments are the arguments the tool was called with.
	Arguments datatypes.JSON `json:"arguments" gorm:"type:jsonb"`

	// Outcome is one of the telemetry.ToolCallOutcome values.
	Outcome string `json:"outcome" gorm:"type:varchar(30);not null"`

	// Error holds the error message returned to the MCP client, empty on success.
	Error string `json:"error,omitempty"`

	// StatusCode is the HTTP status of a failed engine call, 0 otherwise.
	StatusCode int `json:"status_code,omitempty"`

	DurationMs int64 `json:"duration_ms"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// BeforeCreate assigns a random ID to calls that don't have one yet.
func (c *ToolCall) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Succeeded reports whether the call returned a result.
func (c *ToolCall) Succeeded() bool {
	return c.Error == ""
}
