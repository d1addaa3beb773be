// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	errHelper "github.com/hashicorp/nomad-rest-client/helper/error"
	"github.com/hashicorp/nomad/api"
	"github.com/shoenig/test/must"
	"github.com/stretchr/testify/assert"
)

func newTestHTTP(t *testing.T, h http.HandlerFunc, modify func(*HTTPConfig)) *HTTP {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &HTTPConfig{
		API: &api.Config{
			Address:  srv.URL,
			SecretID: "secret",
		},
		RateLimit: -1,
	}
	if modify != nil {
		modify(cfg)
	}

	tr, err := NewHTTP(cfg, nil)
	must.NoError(t, err)
	return tr
}

func TestNewHTTP(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         *HTTPConfig
		expectedErr string
	}{
		{
			name:        "nil config",
			cfg:         nil,
			expectedErr: "missing Nomad API configuration",
		},
		{
			name:        "missing scheme",
			cfg:         &HTTPConfig{API: &api.Config{Address: "nomad.local"}},
			expectedErr: "invalid Nomad address",
		},
		{
			name: "missing client cert",
			cfg: &HTTPConfig{API: &api.Config{
				Address:   "https://127.0.0.1:4646",
				TLSConfig: &api.TLSConfig{ClientCert: "/does/not/exist.pem", ClientKey: "/does/not/exist-key.pem"},
			}},
			expectedErr: "failed to configure TLS",
		},
		{
			name: "valid",
			cfg:  &HTTPConfig{API: &api.Config{Address: "http://127.0.0.1:4646"}, RateLimit: 10},
		},
		{
			name: "valid with empty TLS config",
			cfg:  &HTTPConfig{API: &api.Config{Address: "http://127.0.0.1:4646", TLSConfig: &api.TLSConfig{}}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := NewHTTP(tc.cfg, nil)
			if tc.expectedErr != "" {
				must.ErrorContains(t, err, tc.expectedErr)
				must.Nil(t, tr)
				return
			}
			must.NoError(t, err)
			must.NotNil(t, tr)
		})
	}
}

func TestHTTP_Do(t *testing.T) {
	type payload struct {
		Name string
	}

	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/job/example", r.URL.Path)
		assert.Equal(t, "default", r.URL.Query().Get("namespace"))
		assert.Equal(t, "secret", r.Header.Get(HeaderToken))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "value", r.Header.Get("X-Custom"))

		var in payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "example", in.Name)

		w.Header().Set("X-Nomad-Index", "42")
		_, _ = w.Write([]byte(`{"Name":"reply"}`))
	}, nil)

	resp, err := tr.Do(context.Background(), &Request{
		Method: http.MethodPut,
		Path:   "/v1/job/example",
		Params: url.Values{"namespace": []string{"default"}},
		Header: http.Header{"X-Custom": []string{"value"}},
		Body:   payload{Name: "example"},
	})
	must.NoError(t, err)
	must.Eq(t, http.StatusOK, resp.StatusCode)
	must.Eq(t, "42", resp.Header.Get("X-Nomad-Index"))

	var out payload
	must.NoError(t, resp.DecodeJSON(&out))
	must.Eq(t, "reply", out.Name)
}

func TestHTTP_Do_requestToken(t *testing.T) {
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "override", r.Header.Get(HeaderToken))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "pass", pass)
		_, _ = w.Write([]byte(`{}`))
	}, func(c *HTTPConfig) {
		c.API.HttpAuth = &api.HttpBasicAuth{Username: "user", Password: "pass"}
	})

	_, err := tr.Do(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "/v1/agent/health",
		Header: http.Header{HeaderToken: []string{"override"}},
	})
	must.NoError(t, err)
}

func TestHTTP_Do_unexpectedResponse(t *testing.T) {
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "alloc not found\n")
	}, nil)

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/v1/allocation/abc"})
	must.Nil(t, resp)
	must.Error(t, err)

	var ure *UnexpectedResponseError
	must.True(t, errors.As(err, &ure))
	must.Eq(t, http.StatusNotFound, ure.StatusCode())
	must.Eq(t, "alloc not found\n", string(ure.Body()))
	must.StrContains(t, ure.Status(), "404")
	must.StrContains(t, err.Error(), "Unexpected response code: 404 (GET /v1/allocation/abc): alloc not found")

	must.True(t, errHelper.IsNotFound(err))
	must.False(t, errHelper.APIErrIs(err, http.StatusInternalServerError, ""))
}

func TestHTTP_Do_timeout(t *testing.T) {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}, func(c *HTTPConfig) {
		c.Timeout = 20 * time.Millisecond
	})

	_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/v1/agent/health"})
	must.Error(t, err)
	must.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHTTP_Do_canceledContext(t *testing.T) {
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Do(ctx, &Request{Method: http.MethodGet, Path: "/v1/agent/health"})
	must.Error(t, err)
	must.True(t, errors.Is(err, context.Canceled))
}

func TestResponse_DecodeJSON(t *testing.T) {
	var out map[string]any
	err := (&Response{Body: []byte("not json")}).DecodeJSON(&out)
	must.ErrorContains(t, err, "failed to decode response body")
}

func TestHTTP_Do_path(t *testing.T) {
	testCases := []struct {
		name          string
		path          string
		params        url.Values
		expectedPath  string
		expectedQuery url.Values
	}{
		{
			name:          "escaped segment",
			path:          "/v1/job/" + url.PathEscape("batch/dispatch-1"),
			expectedPath:  "/v1/job/batch%2Fdispatch-1",
			expectedQuery: url.Values{},
		},
		{
			name:          "embedded query merged with params",
			path:          "/v1/job/web?purge=true",
			params:        url.Values{"namespace": []string{"default"}},
			expectedPath:  "/v1/job/web",
			expectedQuery: url.Values{"purge": []string{"true"}, "namespace": []string{"default"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tc.expectedPath, r.URL.EscapedPath())
				assert.Equal(t, tc.expectedQuery, r.URL.Query())
				_, _ = w.Write([]byte(`{}`))
			}, nil)

			_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: tc.path, Params: tc.params})
			must.NoError(t, err)
		})
	}
}
