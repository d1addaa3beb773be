// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/nomad-rest-client/wait"
	"github.com/hashicorp/nomad/api"
)

// Deployments is used to query and act on deployments.
type Deployments struct {
	client *Client
}

type promoteRequest struct {
	DeploymentID string
	All          bool
	Groups       []string `json:",omitempty"`
}

type failRequest struct {
	DeploymentID string
}

// List returns all deployments.
func (d *Deployments) List(ctx context.Context, q *api.QueryOptions) ([]*api.Deployment, *api.QueryMeta, error) {
	var resp []*api.Deployment
	qm, err := d.client.query(ctx, "/v1/deployments", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	return resp, qm, nil
}

// Info returns the deployment deploymentID.
func (d *Deployments) Info(ctx context.Context, deploymentID string, q *api.QueryOptions) (*api.Deployment, *api.QueryMeta, error) {
	var resp api.Deployment
	qm, err := d.client.query(ctx, "/v1/deployment/"+escape(deploymentID), q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read deployment %s: %w", deploymentID, err)
	}
	return &resp, qm, nil
}

// Allocations lists the allocations created by the deployment.
func (d *Deployments) Allocations(ctx context.Context, deploymentID string, q *api.QueryOptions) ([]*api.AllocationListStub, *api.QueryMeta, error) {
	var resp []*api.AllocationListStub
	qm, err := d.client.query(ctx, "/v1/deployment/allocations/"+escape(deploymentID), q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list allocations of deployment %s: %w", deploymentID, err)
	}
	return resp, qm, nil
}

// Fail marks the deployment as failed.
func (d *Deployments) Fail(ctx context.Context, deploymentID string, w *api.WriteOptions) (*api.DeploymentUpdateResponse, error) {
	var resp api.DeploymentUpdateResponse
	_, err := d.client.write(ctx, http.MethodPost, "/v1/deployment/fail/"+escape(deploymentID),
		&failRequest{DeploymentID: deploymentID}, &resp, w)
	if err != nil {
		return nil, fmt.Errorf("failed to fail deployment %s: %w", deploymentID, err)
	}
	return &resp, nil
}

// Promote promotes the canaries of groups. No groups promotes all of them.
func (d *Deployments) Promote(ctx context.Context, deploymentID string, groups []string, w *api.WriteOptions) (*api.DeploymentUpdateResponse, error) {
	req := &promoteRequest{
		DeploymentID: deploymentID,
		All:          len(groups) == 0,
		Groups:       groups,
	}

	var resp api.DeploymentUpdateResponse
	if _, err := d.client.write(ctx, http.MethodPost, "/v1/deployment/promote/"+escape(deploymentID), req, &resp, w); err != nil {
		return nil, fmt.Errorf("failed to promote deployment %s: %w", deploymentID, err)
	}
	return &resp, nil
}

// WaitForSuccess blocks until the deployment is successful, fails, is
// cancelled, or timeout elapses.
func (d *Deployments) WaitForSuccess(ctx context.Context, deploymentID string, timeout time.Duration) wait.Result {
	probe := func(ctx context.Context) (string, error) {
		dep, _, err := d.Info(ctx, deploymentID, nil)
		if err != nil {
			return "", err
		}
		return dep.Status, nil
	}
	return wait.ForStatus(ctx, "deployment "+deploymentID, probe, api.DeploymentStatusSuccessful,
		d.client.waitOptions(timeout, DeploymentTerminalStatuses))
}
