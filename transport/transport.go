// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	nomadHelper "github.com/hashicorp/nomad-rest-client/helper/nomad"
	"github.com/hashicorp/nomad/api"
)

// HeaderToken is the request header carrying the ACL token SecretID.
const HeaderToken = "X-Nomad-Token"

// Transport is the single capability the typed client modules depend on:
// send a request to the Nomad HTTP API and get back the full response or an
// error.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request describes a single Nomad HTTP API call.
type Request struct {
	Method string
	Path   string
	Params url.Values
	Header http.Header

	// Body is JSON encoded when non-nil.
	Body any
}

// Response is a fully read Nomad HTTP API response. The underlying
// connection has already been released when a Response is returned.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into out.
func (r *Response) DecodeJSON(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// UnexpectedResponseError is returned for any non-2xx response.
type UnexpectedResponseError struct {
	method     string
	path       string
	statusCode int
	statusText string
	body       []byte
}

func (e *UnexpectedResponseError) Error() string {
	msg := fmt.Sprintf("Unexpected response code: %d (%s %s)", e.statusCode, e.method, e.path)
	if body := strings.TrimSpace(string(e.body)); body != "" {
		msg += ": " + body
	}
	return msg
}

// StatusCode returns the HTTP status code of the response.
func (e *UnexpectedResponseError) StatusCode() int { return e.statusCode }

// Status returns the HTTP status text of the response.
func (e *UnexpectedResponseError) Status() string { return e.statusText }

// Body returns the raw response body, which for Nomad usually holds a plain
// text reason.
func (e *UnexpectedResponseError) Body() []byte { return e.body }

// Unwrap satisfies the StatusCoder interface; there is no underlying cause.
func (e *UnexpectedResponseError) Unwrap() error { return nil }

// HTTPConfig is the configuration used to build an HTTP transport.
type HTTPConfig struct {

	// API is the merged Nomad API configuration holding address, token,
	// basic auth and TLS settings.
	API *api.Config

	// RateLimit is the maximum requests per second; values below 1 disable
	// rate limiting.
	RateLimit int

	// MaxConnsPerHost limits open connections to the agent.
	MaxConnsPerHost int

	// Timeout bounds each request. Zero relies on the caller's context.
	Timeout time.Duration

	// Source labels the emitted request metrics.
	Source string
}

// HTTP is the net/http implementation of Transport.
type HTTP struct {
	baseURL *url.URL
	client  *http.Client
	token   string
	auth    *api.HttpBasicAuth
	timeout time.Duration
	logger  hclog.Logger
}

// Ensure HTTP satisfies the Transport interface.
var _ Transport = (*HTTP)(nil)

// NewHTTP builds an HTTP transport from the passed config.
func NewHTTP(cfg *HTTPConfig, logger hclog.Logger) (*HTTP, error) {
	if cfg == nil || cfg.API == nil {
		return nil, fmt.Errorf("transport: missing Nomad API configuration")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	baseURL, err := url.Parse(cfg.API.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Nomad address %q: %v", cfg.API.Address, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid Nomad address %q: scheme and host are required", cfg.API.Address)
	}

	// TLS has to be applied to the raw *http.Transport before it is wrapped
	// by the instrumented round tripper.
	base := cleanhttp.DefaultPooledClient()
	base.Transport.(*http.Transport).TLSClientConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if cfg.API.TLSConfig != nil {
		tlsCfg := *cfg.API.TLSConfig
		if err := nomadHelper.ExpandTLSPaths(&tlsCfg); err != nil {
			return nil, err
		}
		if err := api.ConfigureTLS(base, &tlsCfg); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %v", err)
		}
	}

	source := cfg.Source
	if source == "" {
		source = "nomad-rest-client"
	}

	return &HTTP{
		baseURL: baseURL,
		client:  newInstrumentedClient(source, cfg.RateLimit, cfg.MaxConnsPerHost, base),
		token:   cfg.API.SecretID,
		auth:    cfg.API.HttpAuth,
		timeout: cfg.Timeout,
		logger:  logger.Named("transport"),
	}, nil
}

// Do sends the request and returns the fully read response. Non-2xx status
// codes result in an *UnexpectedResponseError.
func (h *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	httpReq, err := h.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", req.Method, req.Path, err)
	}

	h.logger.Trace("request complete", "method", req.Method, "path", req.Path,
		"code", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UnexpectedResponseError{
			method:     req.Method,
			path:       req.Path,
			statusCode: resp.StatusCode,
			statusText: resp.Status,
			body:       body,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (h *HTTP) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	// The path may carry escaped segments and a query string of its own.
	ref, err := url.Parse(req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %v", req.Path, err)
	}

	u := *h.baseURL
	u.Path = strings.TrimSuffix(h.baseURL.Path, "/") + ref.Path
	u.RawPath = ""
	if ref.RawPath != "" {
		u.RawPath = strings.TrimSuffix(h.baseURL.EscapedPath(), "/") + ref.RawPath
	}

	query := ref.Query()
	for k, v := range req.Params {
		query[k] = v
	}
	u.RawQuery = query.Encode()

	var body io.Reader
	if req.Body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(req.Body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = buf
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get(HeaderToken) == "" && h.token != "" {
		httpReq.Header.Set(HeaderToken, h.token)
	}
	if h.auth != nil {
		httpReq.SetBasicAuth(h.auth.Username, h.auth.Password)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}
