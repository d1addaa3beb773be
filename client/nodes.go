// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	errHelper "github.com/hashicorp/nomad-rest-client/helper/error"
	"github.com/hashicorp/nomad-rest-client/wait"
	"github.com/hashicorp/nomad/api"
)

// Drain states reported while waiting for a node drain.
const (
	NodeDrainStateDraining = "draining"
	NodeDrainStateDrained  = "drained"
)

// DefaultNodeDrainDeadline is used when no drain deadline is supplied.
const DefaultNodeDrainDeadline = 15 * time.Minute

// Nodes is used to query and act on client nodes.
type Nodes struct {
	client *Client
}

// List returns the stubs of all nodes.
func (n *Nodes) List(ctx context.Context, q *api.QueryOptions) ([]*api.NodeListStub, *api.QueryMeta, error) {
	var resp []*api.NodeListStub
	qm, err := n.client.query(ctx, "/v1/nodes", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return resp, qm, nil
}

// Info returns the node nodeID.
func (n *Nodes) Info(ctx context.Context, nodeID string, q *api.QueryOptions) (*api.Node, *api.QueryMeta, error) {
	var resp api.Node
	qm, err := n.client.query(ctx, "/v1/node/"+escape(nodeID), q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read node %s: %w", nodeID, err)
	}
	return &resp, qm, nil
}

// Allocations lists the allocations placed on nodeID.
func (n *Nodes) Allocations(ctx context.Context, nodeID string, q *api.QueryOptions) ([]*api.Allocation, *api.QueryMeta, error) {
	var resp []*api.Allocation
	qm, err := n.client.query(ctx, "/v1/node/"+escape(nodeID)+"/allocations", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list allocations of node %s: %w", nodeID, err)
	}
	return resp, qm, nil
}

// UpdateDrain starts a drain on nodeID using spec, or cancels an ongoing
// drain when spec is nil.
func (n *Nodes) UpdateDrain(ctx context.Context, nodeID string, spec *api.DrainSpec, markEligible bool, w *api.WriteOptions) (*api.NodeDrainUpdateResponse, error) {
	req := &api.NodeUpdateDrainRequest{
		NodeID:       nodeID,
		DrainSpec:    spec,
		MarkEligible: markEligible,
		Meta: map[string]string{
			"source":    "nomad-rest-client",
			"timestamp": time.Now().String(),
		},
	}

	var resp api.NodeDrainUpdateResponse
	if _, err := n.client.write(ctx, http.MethodPost, "/v1/node/"+escape(nodeID)+"/drain", req, &resp, w); err != nil {
		return nil, fmt.Errorf("failed to update drain of node %s: %w", nodeID, err)
	}
	return &resp, nil
}

// ToggleEligibility marks nodeID as eligible or ineligible for scheduling.
func (n *Nodes) ToggleEligibility(ctx context.Context, nodeID string, eligible bool, w *api.WriteOptions) (*api.NodeEligibilityUpdateResponse, error) {
	eligibility := api.NodeSchedulingIneligible
	if eligible {
		eligibility = api.NodeSchedulingEligible
	}
	req := &api.NodeUpdateEligibilityRequest{
		NodeID:      nodeID,
		Eligibility: eligibility,
	}

	var resp api.NodeEligibilityUpdateResponse
	if _, err := n.client.write(ctx, http.MethodPost, "/v1/node/"+escape(nodeID)+"/eligibility", req, &resp, w); err != nil {
		return nil, fmt.Errorf("failed to toggle eligibility of node %s: %w", nodeID, err)
	}
	return &resp, nil
}

// WaitForDrain blocks until nodeID no longer carries a drain strategy. A
// node that goes down while draining ends the wait as a terminal mismatch.
func (n *Nodes) WaitForDrain(ctx context.Context, nodeID string, timeout time.Duration) wait.Result {
	probe := func(ctx context.Context) (string, error) {
		node, _, err := n.Info(ctx, nodeID, nil)
		if err != nil {
			return "", err
		}
		switch {
		case node.Status == api.NodeStatusDown:
			return api.NodeStatusDown, nil
		case node.DrainStrategy != nil:
			return NodeDrainStateDraining, nil
		default:
			return NodeDrainStateDrained, nil
		}
	}

	opts := n.client.waitOptions(timeout, []string{api.NodeStatusDown})
	return wait.ForStatus(ctx, "drain of node "+nodeID, probe, NodeDrainStateDrained, opts)
}

// DrainAndWait drains every node in nodeIDs concurrently and waits for all
// drains to finish. The errors of every failed drain are returned together.
// Resetting the eligibility of nodes that failed to drain is left to the
// caller.
func (n *Nodes) DrainAndWait(ctx context.Context, nodeIDs []string, spec *api.DrainSpec, timeout time.Duration) error {
	if spec == nil {
		spec = &api.DrainSpec{Deadline: DefaultNodeDrainDeadline}
	}

	// Define a WaitGroup. This allows us to trigger each node drain in a go
	// routine and then wait for them all to complete before exiting.
	var wg sync.WaitGroup
	wg.Add(len(nodeIDs))

	var (
		result     *multierror.Error
		resultLock sync.Mutex
	)

	for _, nodeID := range nodeIDs {
		go func() {
			defer wg.Done()

			if err := n.drainNode(ctx, nodeID, spec, timeout); err != nil {
				resultLock.Lock()
				result = multierror.Append(result, err)
				resultLock.Unlock()
				return
			}
			n.client.logger.Debug("node drain complete", "node_id", nodeID)
		}()
	}

	wg.Wait()

	return errHelper.FormattedMultiError(result)
}

func (n *Nodes) drainNode(ctx context.Context, nodeID string, spec *api.DrainSpec, timeout time.Duration) error {
	n.client.logger.Info("triggering drain on node", "node_id", nodeID, "deadline", spec.Deadline)

	if _, err := n.UpdateDrain(ctx, nodeID, spec, false, nil); err != nil {
		return err
	}

	res := n.WaitForDrain(ctx, nodeID, timeout)
	switch res.Outcome {
	case wait.Reached:
		return nil
	case wait.TerminalMismatch:
		return fmt.Errorf("node %s went %s while draining", nodeID, res.Status)
	case wait.TimedOut:
		return fmt.Errorf("timed out waiting for node %s to drain", nodeID)
	default:
		return fmt.Errorf("failed to monitor drain of node %s: %v", nodeID, res.Err)
	}
}
