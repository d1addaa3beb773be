// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package stream turns the bounded, offset based task log read into a
// continuous push of new log data to a consumer callback.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/nomad-rest-client/helper/blocking"
	errHelper "github.com/hashicorp/nomad-rest-client/helper/error"
	"github.com/hashicorp/nomad-rest-client/poll"
)

// DefaultInterval is the pause between two log reads of a tail.
const DefaultInterval = time.Second

// Kind is the task output stream to read.
type Kind string

const (
	Stdout Kind = "stdout"
	Stderr Kind = "stderr"
)

// Valid reports whether k is a known stream kind.
func (k Kind) Valid() bool { return k == Stdout || k == Stderr }

// Chunk is a bounded slice of task output starting at the requested offset.
type Chunk struct {
	Data []byte

	// NextOffset is the offset the server advanced to after this chunk.
	NextOffset int64

	// File is the name of the log file the data was read from.
	File string
}

// Reader reads a bounded chunk of a task's log starting at offset.
type Reader interface {
	ReadLogs(ctx context.Context, allocID, task string, kind Kind, offset int64) (*Chunk, error)
}

// Request identifies the log to tail.
type Request struct {
	AllocID string
	Task    string
	Kind    Kind

	// Offset is the byte position to start reading from.
	Offset int64

	// Interval overrides DefaultInterval when positive.
	Interval time.Duration

	Logger hclog.Logger
}

func (r *Request) validate() error {
	var mErr *multierror.Error
	if r.AllocID == "" {
		mErr = multierror.Append(mErr, errors.New("allocation ID is required"))
	}
	if r.Task == "" {
		mErr = multierror.Append(mErr, errors.New("task name is required"))
	}
	if !r.Kind.Valid() {
		mErr = multierror.Append(mErr, fmt.Errorf("invalid log type %q", r.Kind))
	}
	if r.Offset < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("invalid offset %d", r.Offset))
	}
	return errHelper.FormattedMultiError(mErr)
}

// DataFunc receives each non-empty piece of log output. It is called from the
// stream's goroutine and should not block.
type DataFunc func(data string)

// ErrorFunc receives the error that ended a stream.
type ErrorFunc func(err error)

// Stream is a running log tail.
type Stream struct {
	handle *poll.Handle
	done   chan struct{}
	offset atomic.Int64

	errLock sync.RWMutex
	err     error
}

// Cancel stops the stream. Data delivered before cancellation is not
// retracted, and a read already in flight is allowed to return but its data
// is dropped. A delivery already under way when Cancel is called may still
// complete. Cancel may be called from within the callbacks.
func (s *Stream) Cancel() { s.handle.Cancel() }

// Done is closed once the stream has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Offset returns the current read position.
func (s *Stream) Offset() int64 { return s.offset.Load() }

// Err returns the read error that ended the stream. It is nil while the
// stream is running and after cancellation.
func (s *Stream) Err() error {
	s.errLock.RLock()
	defer s.errLock.RUnlock()
	return s.err
}

// Tail starts polling r for new log data in a new goroutine. onData is
// called for every chunk carrying data. When a read fails, onError is called
// exactly once, if set, and polling stops without retry.
func Tail(ctx context.Context, r Reader, req Request, onData DataFunc, onError ErrorFunc) (*Stream, error) {
	if r == nil {
		return nil, errors.New("log reader is required")
	}
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid log stream request: %w", err)
	}

	interval := req.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	logger := req.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("stream").With("alloc_id", req.AllocID, "task", req.Task, "type", req.Kind)

	s := &Stream{
		handle: poll.NewHandle(),
		done:   make(chan struct{}),
	}
	s.offset.Store(req.Offset)

	probe := func(ctx context.Context) (*Chunk, error) {
		return r.ReadLogs(ctx, req.AllocID, req.Task, req.Kind, s.offset.Load())
	}

	// The until func is the delivery point: it only sees chunks read before
	// cancellation and never stops the loop itself.
	deliver := func(c *Chunk) bool {
		if c == nil || s.handle.Canceled() {
			return false
		}
		cur := s.offset.Load()
		next := blocking.FindMaxFound(c.NextOffset, cur)
		if len(c.Data) > 0 && onData != nil {
			onData(string(c.Data))
		}
		if blocking.IndexHasChanged(next, cur) {
			logger.Trace("log offset advanced", "offset", next)
			s.offset.Store(next)
		}
		return false
	}

	cfg := poll.Config{
		Interval: interval,
		Name:     "log_stream",
		Logger:   logger,
	}

	logger.Debug("starting log stream", "offset", req.Offset)

	go func() {
		defer close(s.done)

		res := poll.Run(ctx, s.handle, cfg, probe, deliver)

		switch res.Outcome {
		case poll.Failed:
			logger.Error("log stream stopped", "error", res.Err)
			s.errLock.Lock()
			s.err = res.Err
			s.errLock.Unlock()
			if onError != nil {
				onError(res.Err)
			}
		default:
			logger.Debug("log stream stopped", "outcome", res.Outcome.String())
		}
	}()

	return s, nil
}
