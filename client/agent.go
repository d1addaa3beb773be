// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"

	"github.com/hashicorp/nomad/api"
)

// Agent is used to query the agent the client talks to.
type Agent struct {
	client *Client
}

// Health returns the client and server health of the agent.
func (a *Agent) Health(ctx context.Context) (*api.AgentHealthResponse, error) {
	var resp api.AgentHealthResponse
	if _, err := a.client.query(ctx, "/v1/agent/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to read agent health: %w", err)
	}
	return &resp, nil
}

// Healthy reports whether the agent answered its health endpoint and every
// role it runs is healthy.
func (a *Agent) Healthy(ctx context.Context) bool {
	health, err := a.Health(ctx)
	if err != nil {
		a.client.logger.Debug("agent health check failed", "error", err)
		return false
	}
	if health.Client != nil && !health.Client.Ok {
		return false
	}
	if health.Server != nil && !health.Server.Ok {
		return false
	}
	return true
}

// Leader returns the RPC address of the cluster leader.
func (a *Agent) Leader(ctx context.Context) (string, error) {
	var leader string
	if _, err := a.client.query(ctx, "/v1/status/leader", nil, &leader); err != nil {
		return "", fmt.Errorf("failed to read leader: %w", err)
	}
	return leader, nil
}
