// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"time"

	"github.com/hashicorp/nomad-rest-client/stream"
	"github.com/hashicorp/nomad-rest-client/wait"
	"github.com/hashicorp/nomad/api"
)

// TaskStatePending is reported for a task which has no recorded state yet.
const TaskStatePending = "pending"

// Tasks groups the operations on a single task of an allocation.
type Tasks struct {
	client *Client
}

// State returns the state of task within allocID, or nil when the client has
// not reported any state for it yet.
func (t *Tasks) State(ctx context.Context, allocID, task string, q *api.QueryOptions) (*api.TaskState, error) {
	alloc, _, err := t.client.Allocations().Info(ctx, allocID, q)
	if err != nil {
		return nil, err
	}
	return alloc.TaskStates[task], nil
}

// Restart restarts a single task of the allocation.
func (t *Tasks) Restart(ctx context.Context, allocID, task string, w *api.WriteOptions) (*api.WriteMeta, error) {
	return t.client.Allocations().Restart(ctx, allocID, task, w)
}

// ReadLogs performs a single bounded read of the task log.
func (t *Tasks) ReadLogs(ctx context.Context, allocID, task string, kind stream.Kind, offset int64) (*stream.Chunk, error) {
	return t.client.Allocations().ReadLogs(ctx, allocID, task, kind, offset)
}

// StreamLogs tails the task log.
func (t *Tasks) StreamLogs(ctx context.Context, allocID, task string, kind stream.Kind, onData stream.DataFunc, onError stream.ErrorFunc) (*stream.Stream, error) {
	return t.client.Allocations().StreamLogs(ctx, allocID, task, kind, onData, onError)
}

// WaitForStatus blocks until task within allocID reports desired, settles in
// another terminal state, or timeout elapses. A task without state counts as
// pending.
func (t *Tasks) WaitForStatus(ctx context.Context, allocID, task, desired string, timeout time.Duration) wait.Result {
	probe := func(ctx context.Context) (string, error) {
		state, err := t.State(ctx, allocID, task, nil)
		if err != nil {
			return "", err
		}
		if state == nil || state.State == "" {
			return TaskStatePending, nil
		}
		return state.State, nil
	}
	return wait.ForStatus(ctx, "task "+task+" of allocation "+allocID, probe, desired,
		t.client.waitOptions(timeout, nil))
}
