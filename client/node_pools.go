// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/nomad/api"
)

// NodePools is used to query and modify node pools.
type NodePools struct {
	client *Client
}

// List returns all node pools.
func (p *NodePools) List(ctx context.Context, q *api.QueryOptions) ([]*api.NodePool, *api.QueryMeta, error) {
	var resp []*api.NodePool
	qm, err := p.client.query(ctx, "/v1/node/pools", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list node pools: %w", err)
	}
	return resp, qm, nil
}

// Info returns the node pool name.
func (p *NodePools) Info(ctx context.Context, name string, q *api.QueryOptions) (*api.NodePool, *api.QueryMeta, error) {
	var resp api.NodePool
	qm, err := p.client.query(ctx, "/v1/node/pool/"+escape(name), q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read node pool %s: %w", name, err)
	}
	return &resp, qm, nil
}

// Register creates or updates a node pool.
func (p *NodePools) Register(ctx context.Context, pool *api.NodePool, w *api.WriteOptions) (*api.WriteMeta, error) {
	if pool == nil || pool.Name == "" {
		return nil, fmt.Errorf("node pool name is required")
	}
	wm, err := p.client.write(ctx, http.MethodPut, "/v1/node/pools", pool, nil, w)
	if err != nil {
		return nil, fmt.Errorf("failed to register node pool %s: %w", pool.Name, err)
	}
	return wm, nil
}

// Delete removes the node pool name.
func (p *NodePools) Delete(ctx context.Context, name string, w *api.WriteOptions) (*api.WriteMeta, error) {
	wm, err := p.client.write(ctx, http.MethodDelete, "/v1/node/pool/"+escape(name), nil, nil, w)
	if err != nil {
		return nil, fmt.Errorf("failed to delete node pool %s: %w", name, err)
	}
	return wm, nil
}

// ListNodes returns the stubs of the nodes in the pool.
func (p *NodePools) ListNodes(ctx context.Context, name string, q *api.QueryOptions) ([]*api.NodeListStub, *api.QueryMeta, error) {
	var resp []*api.NodeListStub
	qm, err := p.client.query(ctx, "/v1/node/pool/"+escape(name)+"/nodes", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list nodes of node pool %s: %w", name, err)
	}
	return resp, qm, nil
}

// ListJobs returns the stubs of the jobs placed in the pool.
func (p *NodePools) ListJobs(ctx context.Context, name string, q *api.QueryOptions) ([]*api.JobListStub, *api.QueryMeta, error) {
	var resp []*api.JobListStub
	qm, err := p.client.query(ctx, "/v1/node/pool/"+escape(name)+"/jobs", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list jobs of node pool %s: %w", name, err)
	}
	return resp, qm, nil
}
