// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package poll drives a probe function at a fixed interval until a stopping
// condition holds, the configured timeout elapses, the loop is canceled, or
// the probe fails.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad-rest-client/helper/metrics"
)

// ErrInvalidInterval is returned when a loop is started without a positive
// interval.
var ErrInvalidInterval = errors.New("poll interval must be positive")

// Outcome identifies why a poll loop exited.
type Outcome int

const (
	// Done indicates the until function accepted a probe result.
	Done Outcome = iota

	// TimedOut indicates the configured timeout elapsed first.
	TimedOut

	// Canceled indicates the handle was canceled or the context closed.
	Canceled

	// Failed indicates the probe returned an error.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case TimedOut:
		return "timed_out"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle is the cancellation token of a single poll loop. Once canceled, no
// new probe is started. A probe already in flight is allowed to return but
// its result is discarded.
type Handle struct {
	once sync.Once
	ch   chan struct{}
}

// NewHandle returns a handle that has not been canceled.
func NewHandle() *Handle {
	return &Handle{ch: make(chan struct{})}
}

// Cancel signals the loop to stop. It is safe to call more than once and
// from any goroutine.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.ch) })
}

// Canceled reports whether Cancel has been called.
func (h *Handle) Canceled() bool {
	select {
	case <-h.ch:
		return true
	default:
		return false
	}
}

// Config controls the timing of a poll loop.
type Config struct {

	// Interval is the sleep between two probes. It must be positive.
	Interval time.Duration

	// Timeout bounds the total loop duration. Zero means no timeout.
	Timeout time.Duration

	// Name labels the emitted metrics and log lines.
	Name string

	// Logger receives the loop's trace and debug output. Optional.
	Logger hclog.Logger
}

// ProbeFunc performs one observation. The passed context is the one handed
// to Run and should be used for any blocking call.
type ProbeFunc[T any] func(ctx context.Context) (T, error)

// Result is the final state of a poll loop.
type Result[T any] struct {
	Outcome Outcome

	// Value is the last probe result observed before the loop exited. It is
	// the zero value when no probe result was accepted.
	Value T

	// Err is the probe error for Failed, or the context error when the
	// context closed.
	Err error

	// Probes is the number of probes started.
	Probes int
}

// Run invokes probe, then until with its result, and sleeps for the
// configured interval between probes. Probes never overlap. A nil until
// never stops the loop, which is then ended only by timeout, cancellation
// or failure. Run blocks until the loop exits.
func Run[T any](ctx context.Context, h *Handle, cfg Config, probe ProbeFunc[T], until func(T) bool) Result[T] {
	var res Result[T]

	if cfg.Interval <= 0 {
		res.Outcome, res.Err = Failed, ErrInvalidInterval
		return res
	}
	if h == nil {
		h = NewHandle()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("poll")
	if cfg.Name != "" {
		logger = logger.With("poll_name", cfg.Name)
	}

	labels := []metrics.Label{{Name: "name", Value: cfg.Name}}
	defer func() {
		metrics.IncrCounterWithLabels([]string{"poll", "outcome"}, 1,
			append(labels, metrics.Label{Name: "outcome", Value: res.Outcome.String()}))
		logger.Trace("poll loop exited", "outcome", res.Outcome.String(), "probes", res.Probes)
	}()

	var timeoutCh <-chan time.Time
	if cfg.Timeout > 0 {
		timeout := time.NewTimer(cfg.Timeout)
		defer timeout.Stop()
		timeoutCh = timeout.C
	}

	for {
		if h.Canceled() {
			res.Outcome = Canceled
			return res
		}
		if err := ctx.Err(); err != nil {
			res.Outcome, res.Err = Canceled, err
			return res
		}

		logger.Trace("starting probe", "probe", res.Probes+1)
		start := time.Now()
		res.Probes++
		val, err := probe(ctx)
		metrics.MeasureSinceWithLabels([]string{"poll", "probe"}, start, labels)

		// A result which arrives after cancellation is discarded.
		if h.Canceled() {
			res.Outcome = Canceled
			return res
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Outcome, res.Err = Canceled, ctxErr
			return res
		}

		if err != nil {
			metrics.IncrCounterWithLabels([]string{"poll", "error"}, 1, labels)
			logger.Trace("probe failed", "error", err)
			res.Outcome, res.Err = Failed, err
			return res
		}

		res.Value = val
		if until != nil && until(val) {
			res.Outcome = Done
			return res
		}

		sleep := time.NewTimer(cfg.Interval)
		select {
		case <-sleep.C:
		case <-h.ch:
			sleep.Stop()
			res.Outcome = Canceled
			return res
		case <-ctx.Done():
			sleep.Stop()
			res.Outcome, res.Err = Canceled, ctx.Err()
			return res
		case <-timeoutCh:
			sleep.Stop()
			res.Outcome = TimedOut
			return res
		}
	}
}

// Start runs the loop in a new goroutine. The returned channel receives
// exactly one result and is then closed.
func Start[T any](ctx context.Context, cfg Config, probe ProbeFunc[T], until func(T) bool) (*Handle, <-chan Result[T]) {
	h := NewHandle()
	resultCh := make(chan Result[T], 1)

	go func() {
		defer close(resultCh)
		resultCh <- Run(ctx, h, cfg, probe, until)
	}()

	return h, resultCh
}
