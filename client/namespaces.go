// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/nomad/api"
)

// Namespaces is used to query and modify namespaces.
type Namespaces struct {
	client *Client
}

// List returns all namespaces.
func (n *Namespaces) List(ctx context.Context, q *api.QueryOptions) ([]*api.Namespace, *api.QueryMeta, error) {
	var resp []*api.Namespace
	qm, err := n.client.query(ctx, "/v1/namespaces", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	return resp, qm, nil
}

// Info returns the namespace name.
func (n *Namespaces) Info(ctx context.Context, name string, q *api.QueryOptions) (*api.Namespace, *api.QueryMeta, error) {
	var resp api.Namespace
	qm, err := n.client.query(ctx, "/v1/namespace/"+escape(name), q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read namespace %s: %w", name, err)
	}
	return &resp, qm, nil
}

// Exists reports whether the namespace can be read.
func (n *Namespaces) Exists(ctx context.Context, name string) bool {
	if _, _, err := n.Info(ctx, name, nil); err != nil {
		n.client.logger.Debug("namespace existence check failed", "namespace", name, "error", err)
		return false
	}
	return true
}

// Register creates or updates a namespace.
func (n *Namespaces) Register(ctx context.Context, ns *api.Namespace, w *api.WriteOptions) (*api.WriteMeta, error) {
	if ns == nil || ns.Name == "" {
		return nil, fmt.Errorf("namespace name is required")
	}
	wm, err := n.client.write(ctx, http.MethodPost, "/v1/namespace/"+escape(ns.Name), ns, nil, w)
	if err != nil {
		return nil, fmt.Errorf("failed to register namespace %s: %w", ns.Name, err)
	}
	return wm, nil
}

// Delete removes the namespace name.
func (n *Namespaces) Delete(ctx context.Context, name string, w *api.WriteOptions) (*api.WriteMeta, error) {
	wm, err := n.client.write(ctx, http.MethodDelete, "/v1/namespace/"+escape(name), nil, nil, w)
	if err != nil {
		return nil, fmt.Errorf("failed to delete namespace %s: %w", name, err)
	}
	return wm, nil
}
