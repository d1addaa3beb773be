// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/nomad-rest-client/wait"
	"github.com/hashicorp/nomad/api"
	"github.com/shoenig/test/must"
	"github.com/stretchr/testify/assert"
)

func TestAllocations_ListInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/allocations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `ClientStatus == "running"`, r.URL.Query().Get("filter"))
		writeJSON(t, w, []*api.AllocationListStub{{ID: "a1"}})
	})
	mux.HandleFunc("GET /v1/allocation/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &api.Allocation{ID: r.PathValue("id"), ClientStatus: "running"})
	})
	c := newTestClient(t, mux)

	allocs, _, err := c.Allocations().List(context.Background(), &api.QueryOptions{Filter: `ClientStatus == "running"`})
	must.NoError(t, err)
	must.Len(t, 1, allocs)

	alloc, _, err := c.Allocations().Info(context.Background(), "a1", nil)
	must.NoError(t, err)
	must.Eq(t, "a1", alloc.ID)
	must.Eq(t, "running", alloc.ClientStatus)
}

func TestAllocations_Stop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/allocation/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &api.AllocStopResponse{EvalID: "eval-9"})
	})
	c := newTestClient(t, mux)

	evalID, wm, err := c.Allocations().Stop(context.Background(), "a1", nil)
	must.NoError(t, err)
	must.Eq(t, "eval-9", evalID)
	must.Eq(t, uint64(7), wm.LastIndex)
}

func TestAllocations_Restart(t *testing.T) {
	testCases := []struct {
		name            string
		task            string
		expectedRequest restartRequest
	}{
		{
			name:            "single task",
			task:            "web",
			expectedRequest: restartRequest{TaskName: "web"},
		},
		{
			name:            "all tasks",
			expectedRequest: restartRequest{AllTasks: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("PUT /v1/client/allocation/{id}/restart", func(w http.ResponseWriter, r *http.Request) {
				var req restartRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, tc.expectedRequest, req)
				writeJSON(t, w, struct{}{})
			})
			c := newTestClient(t, mux)

			_, err := c.Allocations().Restart(context.Background(), "a1", tc.task, nil)
			must.NoError(t, err)
		})
	}
}

func TestAllocations_WaitForStatus(t *testing.T) {
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/allocation/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			writeJSON(t, w, &api.Allocation{ID: "a1", ClientStatus: "pending"})
		case 2:
			writeJSON(t, w, &api.Allocation{ID: "a1", ClientStatus: "running"})
		default:
			notFound(w)
		}
	})
	c := newTestClient(t, mux)

	res := c.Allocations().WaitForStatus(context.Background(), "a1", "complete", 0)
	must.Eq(t, wait.Reached, res.Outcome)
	must.Eq(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAllocations_WaitForStatus_serverError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/allocation/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("rpc error: no leader"))
	})
	c := newTestClient(t, mux)

	res := c.Allocations().WaitForStatus(context.Background(), "a1", "complete", 0)
	must.Eq(t, wait.Failed, res.Outcome)
	must.ErrorContains(t, res.Err, "no leader")
}

func TestTasks_WaitForStatus(t *testing.T) {
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/allocation/{id}", func(w http.ResponseWriter, r *http.Request) {
		alloc := &api.Allocation{ID: "a1"}
		switch atomic.AddInt32(&calls, 1) {
		case 1:
		case 2:
			alloc.TaskStates = map[string]*api.TaskState{"web": {State: "pending"}}
		default:
			alloc.TaskStates = map[string]*api.TaskState{"web": {State: "running"}}
		}
		writeJSON(t, w, alloc)
	})
	c := newTestClient(t, mux)

	state, err := c.Tasks().State(context.Background(), "a1", "web", nil)
	must.NoError(t, err)
	must.Nil(t, state)

	res := c.Tasks().WaitForStatus(context.Background(), "a1", "web", "running", 0)
	must.True(t, res.OK())
	must.Eq(t, "running", res.Status)
}

func TestTasks_WaitForStatus_dead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/allocation/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &api.Allocation{
			ID:         "a1",
			TaskStates: map[string]*api.TaskState{"web": {State: "dead", Failed: true}},
		})
	})
	c := newTestClient(t, mux)

	res := c.Tasks().WaitForStatus(context.Background(), "a1", "web", "running", 0)
	must.Eq(t, wait.TerminalMismatch, res.Outcome)
	must.Eq(t, "dead", res.Status)
}
