// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package wait blocks until an entity reaches a desired status, settles in an
// unrelated terminal status, or the timeout elapses.
package wait

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/go-hclog"
	errHelper "github.com/hashicorp/nomad-rest-client/helper/error"
	"github.com/hashicorp/nomad-rest-client/poll"
)

const (
	// DefaultTimeout is used when Options.Timeout is not positive.
	DefaultTimeout = 5 * time.Minute

	// DefaultInterval is used when Options.Interval is not positive.
	DefaultInterval = 2 * time.Second

	// StatusComplete is the only desired status for which a vanished entity
	// counts as success.
	StatusComplete = "complete"
)

// DefaultTerminalStatuses are the allocation, task and job statuses after
// which no further transition is expected.
var DefaultTerminalStatuses = []string{"complete", "failed", "lost", "dead"}

// StatusFunc fetches the current status of the watched entity.
type StatusFunc func(ctx context.Context) (string, error)

// Options tunes a single wait.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration

	// Terminal overrides DefaultTerminalStatuses when non-nil.
	Terminal []string

	// Handle allows the wait to be canceled cooperatively from another
	// goroutine. Optional.
	Handle *poll.Handle

	Logger hclog.Logger
}

// Outcome identifies how a wait ended.
type Outcome int

const (
	// Reached indicates the desired status was observed, or the entity
	// vanished while waiting for it to complete.
	Reached Outcome = iota

	// TerminalMismatch indicates a terminal status other than the desired
	// one was observed.
	TerminalMismatch

	// TimedOut indicates the timeout elapsed first.
	TimedOut

	// Failed indicates the status probe returned an error.
	Failed

	// Canceled indicates the wait was canceled or its context closed.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Reached:
		return "reached"
	case TerminalMismatch:
		return "terminal_mismatch"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the outcome of a wait.
type Result struct {
	Outcome Outcome

	// Status is the last status observed. It is empty when no status was
	// fetched, or the entity was found to be gone.
	Status string

	// Err is the probe error for Failed and the context error for Canceled
	// when the context closed.
	Err error
}

// OK reports whether the desired status was reached.
func (r Result) OK() bool { return r.Outcome == Reached }

type observation struct {
	status string
	gone   bool
}

// ForStatus polls probe until it reports desired. A status in the terminal
// set that is not the desired one stops the wait immediately. When desired is
// StatusComplete, a not found error from the probe is treated as success;
// any other probe error ends the wait without retry. The name identifies the
// watched entity in log lines.
func ForStatus(ctx context.Context, name string, probe StatusFunc, desired string, opts Options) Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	terminal := opts.Terminal
	if terminal == nil {
		terminal = DefaultTerminalStatuses
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("wait").With("target", name, "desired_status", desired)

	p := func(ctx context.Context) (observation, error) {
		status, err := probe(ctx)
		if err != nil {
			if desired == StatusComplete && errHelper.IsNotFound(err) {
				return observation{gone: true}, nil
			}
			return observation{}, err
		}
		logger.Trace("observed status", "status", status)
		return observation{status: status}, nil
	}

	until := func(o observation) bool {
		return o.gone || o.status == desired || slices.Contains(terminal, o.status)
	}

	cfg := poll.Config{
		Interval: interval,
		Timeout:  timeout,
		Name:     "wait_status",
		Logger:   logger,
	}

	res := poll.Run(ctx, opts.Handle, cfg, p, until)
	out := Result{Status: res.Value.status, Err: res.Err}

	switch res.Outcome {
	case poll.Done:
		switch {
		case res.Value.gone:
			out.Outcome = Reached
			logger.Debug("target no longer exists, treating as complete")
		case res.Value.status == desired:
			out.Outcome = Reached
			logger.Debug("desired status reached")
		default:
			out.Outcome = TerminalMismatch
			logger.Warn("target reached terminal status", "status", res.Value.status)
		}
	case poll.TimedOut:
		out.Outcome = TimedOut
		logger.Warn("timed out waiting for status", "timeout", timeout, "last_status", res.Value.status)
	case poll.Failed:
		out.Outcome = Failed
		logger.Error("failed to fetch status", "error", res.Err)
	case poll.Canceled:
		out.Outcome = Canceled
		logger.Debug("wait canceled", "last_status", res.Value.status)
	}

	return out
}
