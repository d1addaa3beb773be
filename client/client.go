// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package client is a typed client for the Nomad HTTP API. Each module maps
// its methods to Nomad REST endpoints and decodes the responses into the
// github.com/hashicorp/nomad/api structures.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad-rest-client/config"
	nomadHelper "github.com/hashicorp/nomad-rest-client/helper/nomad"
	"github.com/hashicorp/nomad-rest-client/transport"
	"github.com/hashicorp/nomad-rest-client/wait"
	"github.com/hashicorp/nomad/api"
)

// Client is the entry point to the typed API modules. It holds its own copy
// of the configuration, so several independently configured clients can be
// used within one process.
type Client struct {
	cfg       *config.Client
	apiCfg    *api.Config
	transport transport.Transport
	logger    hclog.Logger
}

// New builds a client which talks to Nomad over HTTP using cfg. A nil cfg
// uses config.Default.
func New(cfg *config.Client, logger hclog.Logger) (*Client, error) {
	c, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	tr, err := transport.NewHTTP(&transport.HTTPConfig{
		API:             c.apiCfg,
		RateLimit:       c.cfg.Transport.RateLimit,
		MaxConnsPerHost: c.cfg.Transport.MaxConnsPerHost,
		Timeout:         c.cfg.Transport.Timeout,
		Source:          "nomad-rest-client",
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP transport: %v", err)
	}
	c.transport = tr

	return c, nil
}

// NewWithTransport builds a client which sends requests through tr instead of
// the default HTTP transport.
func NewWithTransport(cfg *config.Client, tr transport.Transport, logger hclog.Logger) (*Client, error) {
	if tr == nil {
		return nil, fmt.Errorf("transport is required")
	}
	c, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.transport = tr
	return c, nil
}

func newClient(cfg *config.Client, logger hclog.Logger) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	copied, err := cfg.Copy()
	if err != nil {
		return nil, err
	}

	// Start from the defaults so partially populated configs get every block.
	owned := config.Default().Merge(copied)
	if err := owned.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Client{
		cfg:    owned,
		apiCfg: nomadHelper.MergeDefaultWithConfig(owned.Nomad),
		logger: logger.Named("client"),
	}, nil
}

// Address returns the Nomad agent address requests are sent to.
func (c *Client) Address() string { return c.apiCfg.Address }

// Jobs returns a handle on the jobs endpoints.
func (c *Client) Jobs() *Jobs { return &Jobs{client: c} }

// Allocations returns a handle on the allocations endpoints.
func (c *Client) Allocations() *Allocations { return &Allocations{client: c} }

// Tasks returns a handle on the task level operations of allocations.
func (c *Client) Tasks() *Tasks { return &Tasks{client: c} }

// Namespaces returns a handle on the namespaces endpoints.
func (c *Client) Namespaces() *Namespaces { return &Namespaces{client: c} }

// Nodes returns a handle on the nodes endpoints.
func (c *Client) Nodes() *Nodes { return &Nodes{client: c} }

// NodePools returns a handle on the node pools endpoints.
func (c *Client) NodePools() *NodePools { return &NodePools{client: c} }

// Deployments returns a handle on the deployments endpoints.
func (c *Client) Deployments() *Deployments { return &Deployments{client: c} }

// Agent returns a handle on the agent and status endpoints.
func (c *Client) Agent() *Agent { return &Agent{client: c} }

// query performs a GET request and decodes the response body into out, when
// out is non-nil.
func (c *Client) query(ctx context.Context, path string, q *api.QueryOptions, out any) (*api.QueryMeta, error) {
	resp, qm, err := c.queryRaw(ctx, path, q)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := resp.DecodeJSON(out); err != nil {
			return nil, err
		}
	}
	return qm, nil
}

// queryRaw performs a GET request and returns the undecoded response.
func (c *Client) queryRaw(ctx context.Context, path string, q *api.QueryOptions) (*transport.Response, *api.QueryMeta, error) {
	req := &transport.Request{
		Method: http.MethodGet,
		Path:   path,
		Params: c.queryParams(q),
		Header: queryHeader(q),
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	qm := parseQueryMeta(resp.Header)
	qm.RequestTime = time.Since(start)
	return resp, qm, nil
}

// write performs a request that modifies state, encoding in as the body when
// non-nil and decoding the response into out when non-nil.
func (c *Client) write(ctx context.Context, method, path string, in, out any, w *api.WriteOptions) (*api.WriteMeta, error) {
	req := &transport.Request{
		Method: method,
		Path:   path,
		Params: c.writeParams(w),
		Header: writeHeader(w),
		Body:   in,
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	wm := parseWriteMeta(resp.Header)
	wm.RequestTime = time.Since(start)

	if out != nil && len(resp.Body) > 0 {
		if err := resp.DecodeJSON(out); err != nil {
			return nil, err
		}
	}
	return wm, nil
}

// waitOptions builds the wait options for a status wait. A non-positive
// timeout uses the configured default.
func (c *Client) waitOptions(timeout time.Duration, terminal []string) wait.Options {
	if timeout <= 0 {
		timeout = c.cfg.Poll.WaitTimeout
	}
	return wait.Options{
		Timeout:  timeout,
		Interval: c.cfg.Poll.StatusInterval,
		Terminal: terminal,
		Logger:   c.logger,
	}
}
