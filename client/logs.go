// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hashicorp/nomad-rest-client/helper/blocking"
	"github.com/hashicorp/nomad-rest-client/stream"
	"github.com/hashicorp/nomad/api"
)

// Ensure Allocations satisfies the stream.Reader interface.
var _ stream.Reader = (*Allocations)(nil)

// ReadLogs performs a single non-following read of the task log starting at
// offset. The framed response is flattened into one chunk whose NextOffset is
// the highest offset reported by the agent, and never below offset.
func (a *Allocations) ReadLogs(ctx context.Context, allocID, task string, kind stream.Kind, offset int64) (*stream.Chunk, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid log type %q", kind)
	}

	q := &api.QueryOptions{Params: map[string]string{
		"task":   task,
		"type":   string(kind),
		"offset": strconv.FormatInt(offset, 10),
		"origin": "start",
		"plain":  "false",
		"follow": "false",
	}}

	resp, _, err := a.client.queryRaw(ctx, "/v1/client/fs/logs/"+escape(allocID), q)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s logs of task %s in allocation %s: %w", kind, task, allocID, err)
	}

	chunk, err := decodeFrames(resp.Body, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to decode logs of task %s in allocation %s: %w", task, allocID, err)
	}
	return chunk, nil
}

// StreamLogs tails the task log from the start, calling onData with every
// new piece of output until the stream is canceled or a read fails.
func (a *Allocations) StreamLogs(ctx context.Context, allocID, task string, kind stream.Kind, onData stream.DataFunc, onError stream.ErrorFunc) (*stream.Stream, error) {
	return stream.Tail(ctx, a, stream.Request{
		AllocID:  allocID,
		Task:     task,
		Kind:     kind,
		Interval: a.client.cfg.Poll.LogInterval,
		Logger:   a.client.logger,
	}, onData, onError)
}

func decodeFrames(body []byte, offset int64) (*stream.Chunk, error) {
	chunk := &stream.Chunk{NextOffset: offset}
	var data bytes.Buffer

	dec := json.NewDecoder(bytes.NewReader(body))
	for {
		var frame api.StreamFrame
		if err := dec.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if frame.IsHeartbeat() {
			continue
		}

		data.Write(frame.Data)
		if frame.File != "" {
			chunk.File = frame.File
		}
		chunk.NextOffset = blocking.FindMaxFound(frame.Offset, chunk.NextOffset)
	}

	chunk.Data = data.Bytes()
	return chunk, nil
}
