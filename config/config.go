// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/copystructure"
)

// Client is the overall configuration of a Nomad REST client and includes all
// required information to build a transport and the typed API modules.
//
// All time.Duration values should have two parts:
//   - a string field tagged with an hcl:"foo" and json:"-"
//   - a time.Duration field in the same struct which is populated within the
//     parseFile if the HCL param is populated.
//
// The string reference of a duration can include "ns", "us" (or "µs"), "ms",
// "s", "m", "h" suffixes.
type Client struct {

	// LogLevel is the level of the logs to emit.
	LogLevel string `hcl:"log_level,optional"`

	// LogJson enables log output in JSON format.
	LogJson bool `hcl:"log_json,optional"`

	// Nomad is the configuration used to reach the Nomad HTTP API.
	Nomad *Nomad `hcl:"nomad,block"`

	// Transport holds the HTTP transport tuning parameters.
	Transport *Transport `hcl:"transport,block"`

	// Poll is the configuration of the log streaming and wait loops.
	Poll *Poll `hcl:"poll,block"`

	// Telemetry is the configuration used to setup metrics collection.
	Telemetry *Telemetry `hcl:"telemetry,block"`
}

// Nomad holds the user specified configuration for connectivity to the Nomad
// API.
type Nomad struct {

	// Address is the address of the Nomad agent.
	Address string `hcl:"address,optional"`

	// Region to use.
	Region string `hcl:"region,optional"`

	// Namespace to use.
	Namespace string `hcl:"namespace,optional"`

	// Token is the SecretID of an ACL token to use to authenticate API
	// requests with.
	Token string `hcl:"token,optional"`

	// HTTPAuth is the auth info to use for http access.
	HTTPAuth string `hcl:"http_auth,optional"`

	// CACert is the path to a PEM-encoded CA cert file to use to verify the
	// Nomad server SSL certificate.
	CACert string `hcl:"ca_cert,optional"`

	// CAPath is the path to a directory of PEM-encoded CA cert files to verify
	// the Nomad server SSL certificate.
	CAPath string `hcl:"ca_path,optional"`

	// ClientCert is the path to the certificate for Nomad communication.
	ClientCert string `hcl:"client_cert,optional"`

	// ClientKey is the path to the private key for Nomad communication.
	ClientKey string `hcl:"client_key,optional"`

	// TLSServerName, if set, is used to set the SNI host when connecting via
	// TLS.
	TLSServerName string `hcl:"tls_server_name,optional"`

	// SkipVerify enables or disables SSL verification.
	SkipVerify bool `hcl:"skip_verify,optional"`
}

// Transport holds the configuration of the HTTP transport used for every
// request.
type Transport struct {

	// RateLimit is the maximum number of requests per second sent to the
	// Nomad API. A value of -1 or 0 disables rate limiting.
	RateLimitPtr *int `hcl:"rate_limit,optional"`
	RateLimit    int

	// MaxConnsPerHost limits the number of connections held open to the
	// Nomad agent.
	MaxConnsPerHost int `hcl:"max_conns_per_host,optional"`

	// Timeout is the per-request timeout. Zero means no timeout beyond the
	// caller supplied context.
	Timeout    time.Duration
	TimeoutHCL string `hcl:"timeout,optional" json:"-"`
}

// Poll holds the configuration of the repeated-request loops used for log
// streaming and status waiting.
type Poll struct {

	// LogInterval is the delay between two log reads of a stream.
	LogInterval    time.Duration
	LogIntervalHCL string `hcl:"log_interval,optional" json:"-"`

	// StatusInterval is the delay between two status reads of a wait.
	StatusInterval    time.Duration
	StatusIntervalHCL string `hcl:"status_interval,optional" json:"-"`

	// WaitTimeout is the default time limit of a status wait.
	WaitTimeout    time.Duration
	WaitTimeoutHCL string `hcl:"wait_timeout,optional" json:"-"`
}

// Telemetry holds the user specified configuration for metrics collection.
type Telemetry struct {

	// PrometheusRetentionTime is the retention time for prometheus metrics if
	// greater than 0.
	PrometheusRetentionTime    time.Duration
	PrometheusRetentionTimeHCL string `hcl:"prometheus_retention_time,optional" json:"-"`

	// PrometheusMetrics specifies whether the client should register a
	// Prometheus sink.
	PrometheusMetrics bool `hcl:"prometheus_metrics,optional"`

	// DisableHostname specifies if gauge values should be prefixed with the
	// local hostname.
	DisableHostname bool `hcl:"disable_hostname,optional"`

	// CollectionInterval specifies the time interval at which the in-memory
	// sink aggregates data.
	CollectionInterval    time.Duration
	CollectionIntervalHCL string `hcl:"collection_interval,optional" json:"-"`

	// StatsiteAddr specifies the address of a statsite server to forward
	// metrics data to.
	StatsiteAddr string `hcl:"statsite_address,optional"`

	// StatsdAddr specifies the address of a statsd server to forward metrics
	// to.
	StatsdAddr string `hcl:"statsd_address,optional"`
}

const (
	// defaultLogLevel is the default log level used for the client.
	defaultLogLevel = "info"

	// defaultRateLimit disables request rate limiting.
	defaultRateLimit = -1

	// defaultMaxConnsPerHost matches the instrumented transport default.
	defaultMaxConnsPerHost = 50

	// defaultLogInterval is the delay between log reads of a stream.
	defaultLogInterval = 1 * time.Second

	// defaultStatusInterval is the delay between status reads of a wait.
	defaultStatusInterval = 2 * time.Second

	// defaultWaitTimeout is the default time limit of a status wait.
	defaultWaitTimeout = 5 * time.Minute

	// defaultTelemetryCollectionInterval is the default telemetry metrics
	// collection interval.
	defaultTelemetryCollectionInterval = 1 * time.Second
)

// Default is used to generate a new default client configuration.
func Default() *Client {
	return &Client{
		LogLevel: defaultLogLevel,
		Nomad:    &Nomad{},
		Transport: &Transport{
			RateLimit:       defaultRateLimit,
			MaxConnsPerHost: defaultMaxConnsPerHost,
		},
		Poll: &Poll{
			LogInterval:    defaultLogInterval,
			StatusInterval: defaultStatusInterval,
			WaitTimeout:    defaultWaitTimeout,
		},
		Telemetry: &Telemetry{
			CollectionInterval: defaultTelemetryCollectionInterval,
		},
	}
}

// Copy returns a deep copy of the configuration. The client copies its
// configuration once at construction so later mutation by the caller has no
// effect on requests in flight.
func (c *Client) Copy() (*Client, error) {
	if c == nil {
		return nil, nil
	}
	out, err := copystructure.Copy(c)
	if err != nil {
		return nil, fmt.Errorf("failed to copy client configuration: %v", err)
	}
	return out.(*Client), nil
}

// Merge is used to merge two client configurations, with the values set in b
// taking precedence.
func (c *Client) Merge(b *Client) *Client {
	if c == nil {
		return b
	}
	if b == nil {
		return c
	}

	result := *c

	if b.LogLevel != "" {
		result.LogLevel = b.LogLevel
	}
	if b.LogJson {
		result.LogJson = true
	}

	result.Nomad = c.Nomad.merge(b.Nomad)
	result.Transport = c.Transport.merge(b.Transport)
	result.Poll = c.Poll.merge(b.Poll)
	result.Telemetry = c.Telemetry.merge(b.Telemetry)

	return &result
}

// Validate is used to validate the individual client config parameters, so
// that all errors can be reported to the user in one go.
func (c *Client) Validate() error {
	var result *multierror.Error

	if c.LogLevel != "" && hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("invalid log_level %q", c.LogLevel))
	}

	if c.Nomad != nil {
		result = multierror.Append(result, c.Nomad.validate())
	}
	if c.Transport != nil {
		result = multierror.Append(result, c.Transport.validate())
	}
	if c.Poll != nil {
		result = multierror.Append(result, c.Poll.validate())
	}
	if c.Telemetry != nil {
		result = multierror.Append(result, c.Telemetry.validate())
	}

	return result.ErrorOrNil()
}

func (n *Nomad) merge(b *Nomad) *Nomad {
	if n == nil {
		return b
	}
	if b == nil {
		return n
	}

	result := *n

	if b.Address != "" {
		result.Address = b.Address
	}
	if b.Region != "" {
		result.Region = b.Region
	}
	if b.Namespace != "" {
		result.Namespace = b.Namespace
	}
	if b.Token != "" {
		result.Token = b.Token
	}
	if b.HTTPAuth != "" {
		result.HTTPAuth = b.HTTPAuth
	}
	if b.CACert != "" {
		result.CACert = b.CACert
	}
	if b.CAPath != "" {
		result.CAPath = b.CAPath
	}
	if b.ClientCert != "" {
		result.ClientCert = b.ClientCert
	}
	if b.ClientKey != "" {
		result.ClientKey = b.ClientKey
	}
	if b.TLSServerName != "" {
		result.TLSServerName = b.TLSServerName
	}
	if b.SkipVerify {
		result.SkipVerify = b.SkipVerify
	}
	return &result
}

func (n *Nomad) validate() *multierror.Error {
	var result *multierror.Error

	if n.Address != "" {
		if _, err := url.Parse(n.Address); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid address %q: %v", n.Address, err))
		}
	}
	if (n.ClientCert == "") != (n.ClientKey == "") {
		result = multierror.Append(result, errors.New("client_cert and client_key must be set together"))
	}

	return prefixErrors(result, "nomad ->")
}

func (t *Transport) merge(b *Transport) *Transport {
	if t == nil {
		return b
	}
	if b == nil {
		return t
	}

	result := *t

	if b.RateLimitPtr != nil {
		result.RateLimitPtr = b.RateLimitPtr
		result.RateLimit = *b.RateLimitPtr
	} else if b.RateLimit != 0 {
		result.RateLimit = b.RateLimit
	}
	if b.MaxConnsPerHost != 0 {
		result.MaxConnsPerHost = b.MaxConnsPerHost
	}
	if b.Timeout != 0 {
		result.Timeout = b.Timeout
	}
	return &result
}

func (t *Transport) validate() *multierror.Error {
	var result *multierror.Error

	if t.RateLimit < -1 {
		result = multierror.Append(result, errors.New("rate_limit must be -1 or a non-negative number"))
	}
	if t.MaxConnsPerHost < 0 {
		result = multierror.Append(result, errors.New("max_conns_per_host must not be negative"))
	}
	if t.Timeout < 0 {
		result = multierror.Append(result, errors.New("timeout must not be negative"))
	}

	return prefixErrors(result, "transport ->")
}

func (p *Poll) merge(b *Poll) *Poll {
	if p == nil {
		return b
	}
	if b == nil {
		return p
	}

	result := *p

	if b.LogInterval != 0 {
		result.LogInterval = b.LogInterval
	}
	if b.StatusInterval != 0 {
		result.StatusInterval = b.StatusInterval
	}
	if b.WaitTimeout != 0 {
		result.WaitTimeout = b.WaitTimeout
	}
	return &result
}

func (p *Poll) validate() *multierror.Error {
	var result *multierror.Error

	if p.LogInterval < 0 {
		result = multierror.Append(result, errors.New("log_interval must be positive"))
	}
	if p.StatusInterval < 0 {
		result = multierror.Append(result, errors.New("status_interval must be positive"))
	}
	if p.WaitTimeout < 0 {
		result = multierror.Append(result, errors.New("wait_timeout must be positive"))
	}

	return prefixErrors(result, "poll ->")
}

func (t *Telemetry) merge(b *Telemetry) *Telemetry {
	if t == nil {
		return b
	}
	if b == nil {
		return t
	}

	result := *t

	if b.PrometheusMetrics {
		result.PrometheusMetrics = b.PrometheusMetrics
	}
	if b.PrometheusRetentionTime != 0 {
		result.PrometheusRetentionTime = b.PrometheusRetentionTime
	}
	if b.DisableHostname {
		result.DisableHostname = b.DisableHostname
	}
	if b.CollectionInterval != 0 {
		result.CollectionInterval = b.CollectionInterval
	}
	if b.StatsiteAddr != "" {
		result.StatsiteAddr = b.StatsiteAddr
	}
	if b.StatsdAddr != "" {
		result.StatsdAddr = b.StatsdAddr
	}
	return &result
}

func (t *Telemetry) validate() *multierror.Error {
	var result *multierror.Error

	if t.CollectionInterval < 0 {
		result = multierror.Append(result, errors.New("collection_interval must be positive"))
	}
	if t.PrometheusRetentionTime < 0 {
		result = multierror.Append(result, errors.New("prometheus_retention_time must be positive"))
	}

	return prefixErrors(result, "telemetry ->")
}

func prefixErrors(result *multierror.Error, prefix string) *multierror.Error {
	if result == nil {
		return nil
	}
	for i, err := range result.Errors {
		result.Errors[i] = multierror.Prefix(err, prefix)
	}
	return result
}

// LoadPaths loads and merges the configuration found at each path on top of
// the default configuration. Every file is validated before merging and all
// validation failures are reported together.
func LoadPaths(paths []string) (*Client, error) {
	return DefaultLoaders.LoadPaths(paths)
}

// Load loads the configuration at the given path, regardless if its a file or
// directory, using the default loader registry.
func Load(path string) (*Client, error) {
	return DefaultLoaders.Load(path)
}

// pathIsDir reports whether path exists and is a directory.
func pathIsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}
