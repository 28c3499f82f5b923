package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
)

// GetTargets lists the databases managed by the engine.
func (c *Client) GetTargets(ctx context.Context) ([]types.Target, error) {
	u, err := c.constructAPIEndpoint("targets")
	if err != nil {
		return nil, fmt.Errorf("failed to construct targets url: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var targets []types.Target
	if err := c.doJSON(req, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// GetStatus reports whether the engine's workflow service is reachable.
// A down service is a successful call returning OK=false.
func (c *Client) GetStatus(ctx context.Context) (*types.Status, error) {
	u, err := c.constructAPIEndpoint("status")
	if err != nil {
		return nil, fmt.Errorf("failed to construct status url: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var status types.Status
	if err := c.doJSON(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetTargetDBStatus reports whether the engine can reach the database of a target.
func (c *Client) GetTargetDBStatus(ctx context.Context, slug string) (*types.Status, error) {
	u, err := c.constructResourceURL("targets", slug, "db-status")
	if err != nil {
		return nil, fmt.Errorf("failed to construct db status url for target %s: %w", slug, err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var status types.Status
	if err := c.doJSON(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetSchema returns the engine-defined schema document of a target.
// The engine answers 405 for targets whose engine type cannot be introspected.
func (c *Client) GetSchema(ctx context.Context, slug string) (json.RawMessage, error) {
	u, err := c.constructResourceURL("targets", slug, "schema")
	if err != nil {
		return nil, fmt.Errorf("failed to construct schema url for target %s: %w", slug, err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.doRaw(req)
}

// ExecuteReadonlyQuery runs a raw query that the engine guarantees not to mutate data.
// The query is forwarded untouched, rejecting mutating statements is left to the engine.
func (c *Client) ExecuteReadonlyQuery(ctx context.Context, slug, query string) (json.RawMessage, error) {
	return c.executeQuery(ctx, slug, "readonly-query", query)
}

// ExecuteReadWriteQuery runs a raw query that may mutate data.
func (c *Client) ExecuteReadWriteQuery(ctx context.Context, slug, query string) (json.RawMessage, error) {
	return c.executeQuery(ctx, slug, "read-write-query", query)
}

func (c *Client) executeQuery(ctx context.Context, slug, kind, query string) (json.RawMessage, error) {
	u, err := c.constructResourceURL("targets", slug, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s url for target %s: %w", kind, slug, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, u, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	return c.doRaw(req)
}
