// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/nomad-rest-client/stream"
	"github.com/hashicorp/nomad/api"
	"github.com/shoenig/test/must"
	"github.com/stretchr/testify/assert"
)

func TestDecodeFrames(t *testing.T) {
	testCases := []struct {
		name           string
		frames         []*api.StreamFrame
		offset         int64
		expectedData   string
		expectedOffset int64
		expectedFile   string
	}{
		{
			name:           "empty body",
			offset:         10,
			expectedOffset: 10,
		},
		{
			name:           "heartbeat only",
			frames:         []*api.StreamFrame{{}},
			offset:         3,
			expectedOffset: 3,
		},
		{
			name: "multiple frames",
			frames: []*api.StreamFrame{
				{Data: []byte("hello "), Offset: 6, File: "alloc/logs/web.stdout.0"},
				{},
				{Data: []byte("world"), Offset: 11, File: "alloc/logs/web.stdout.0"},
			},
			expectedData:   "hello world",
			expectedOffset: 11,
			expectedFile:   "alloc/logs/web.stdout.0",
		},
		{
			name:           "offset never moves backwards",
			frames:         []*api.StreamFrame{{Data: []byte("x"), Offset: 2, File: "f"}},
			offset:         40,
			expectedData:   "x",
			expectedOffset: 40,
			expectedFile:   "f",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var body []byte
			for _, f := range tc.frames {
				b, err := json.Marshal(f)
				must.NoError(t, err)
				body = append(body, b...)
			}

			chunk, err := decodeFrames(body, tc.offset)
			must.NoError(t, err)
			must.Eq(t, tc.expectedData, string(chunk.Data))
			must.Eq(t, tc.expectedOffset, chunk.NextOffset)
			must.Eq(t, tc.expectedFile, chunk.File)
		})
	}

	_, err := decodeFrames([]byte("{not json"), 0)
	must.Error(t, err)
}

func TestAllocations_ReadLogs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/client/fs/logs/{id}", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "a1", r.PathValue("id"))
		assert.Equal(t, "web", q.Get("task"))
		assert.Equal(t, "stderr", q.Get("type"))
		assert.Equal(t, "12", q.Get("offset"))
		assert.Equal(t, "start", q.Get("origin"))
		assert.Equal(t, "false", q.Get("plain"))
		assert.Equal(t, "false", q.Get("follow"))
		writeJSON(t, w, &api.StreamFrame{Data: []byte("boom\n"), Offset: 17, File: "alloc/logs/web.stderr.0"})
	})
	c := newTestClient(t, mux)

	chunk, err := c.Allocations().ReadLogs(context.Background(), "a1", "web", stream.Stderr, 12)
	must.NoError(t, err)
	must.Eq(t, "boom\n", string(chunk.Data))
	must.Eq(t, int64(17), chunk.NextOffset)

	_, err = c.Allocations().ReadLogs(context.Background(), "a1", "web", stream.Kind("stdin"), 0)
	must.ErrorContains(t, err, `invalid log type "stdin"`)
}

func TestTasks_StreamLogs(t *testing.T) {
	lines := []string{"", "one\n", "", "two\n"}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/client/fs/logs/{id}", func(w http.ResponseWriter, r *http.Request) {
		offset, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
		assert.NoError(t, err)

		// Serve the next line based on how much has been consumed.
		var consumed int64
		for _, l := range lines {
			if consumed == offset && l != "" {
				writeJSON(t, w, &api.StreamFrame{Data: []byte(l), Offset: offset + int64(len(l)), File: "f"})
				return
			}
			consumed += int64(len(l))
		}
		if offset >= 8 {
			notFound(w)
			return
		}
		writeJSON(t, w, &api.StreamFrame{})
	})
	c := newTestClient(t, mux)

	var (
		lock sync.Mutex
		data []string
		errs []error
	)
	s, err := c.Tasks().StreamLogs(context.Background(), "a1", "web", stream.Stdout,
		func(d string) {
			lock.Lock()
			defer lock.Unlock()
			data = append(data, d)
		},
		func(err error) {
			lock.Lock()
			defer lock.Unlock()
			errs = append(errs, err)
		},
	)
	must.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}

	lock.Lock()
	defer lock.Unlock()
	must.Eq(t, []string{"one\n", "two\n"}, data)
	must.Len(t, 1, errs)
	must.Eq(t, int64(8), s.Offset())
}
