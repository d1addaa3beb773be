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

// Allocations is used to query and act on allocations.
type Allocations struct {
	client *Client
}

// restartRequest is the body of the allocation restart endpoint. An empty
// TaskName together with AllTasks false restarts the running tasks only.
type restartRequest struct {
	TaskName string
	AllTasks bool
}

// List returns the stubs of all allocations visible to the request.
func (a *Allocations) List(ctx context.Context, q *api.QueryOptions) ([]*api.AllocationListStub, *api.QueryMeta, error) {
	var resp []*api.AllocationListStub
	qm, err := a.client.query(ctx, "/v1/allocations", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return resp, qm, nil
}

// Info returns the allocation allocID.
func (a *Allocations) Info(ctx context.Context, allocID string, q *api.QueryOptions) (*api.Allocation, *api.QueryMeta, error) {
	var resp api.Allocation
	qm, err := a.client.query(ctx, "/v1/allocation/"+escape(allocID), q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read allocation %s: %w", allocID, err)
	}
	return &resp, qm, nil
}

// Stop stops the allocation and returns the ID of the resulting evaluation.
func (a *Allocations) Stop(ctx context.Context, allocID string, w *api.WriteOptions) (string, *api.WriteMeta, error) {
	var resp api.AllocStopResponse
	wm, err := a.client.write(ctx, http.MethodPost, "/v1/allocation/"+escape(allocID)+"/stop", nil, &resp, w)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stop allocation %s: %w", allocID, err)
	}
	return resp.EvalID, wm, nil
}

// Restart restarts task within the allocation. An empty task restarts every
// task of the allocation.
func (a *Allocations) Restart(ctx context.Context, allocID, task string, w *api.WriteOptions) (*api.WriteMeta, error) {
	req := &restartRequest{TaskName: task, AllTasks: task == ""}

	wm, err := a.client.write(ctx, http.MethodPut, "/v1/client/allocation/"+escape(allocID)+"/restart", req, nil, w)
	if err != nil {
		return nil, fmt.Errorf("failed to restart allocation %s: %w", allocID, err)
	}
	return wm, nil
}

// WaitForStatus blocks until the client status of allocID is desired,
// settles in another terminal status, or timeout elapses. A non-positive
// timeout uses the configured default.
func (a *Allocations) WaitForStatus(ctx context.Context, allocID, desired string, timeout time.Duration) wait.Result {
	probe := func(ctx context.Context) (string, error) {
		alloc, _, err := a.Info(ctx, allocID, nil)
		if err != nil {
			return "", err
		}
		return alloc.ClientStatus, nil
	}
	return wait.ForStatus(ctx, "allocation "+allocID, probe, desired, a.client.waitOptions(timeout, nil))
}
