// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/nomad-rest-client/transport"
	"github.com/hashicorp/nomad/api"
)

const (
	headerIndex       = "X-Nomad-Index"
	headerLastContact = "X-Nomad-LastContact"
	headerKnownLeader = "X-Nomad-KnownLeader"
	headerNextToken   = "X-Nomad-NextToken"
)

// queryParams translates the query options into URL parameters. Region and
// namespace fall back to the client configuration.
func (c *Client) queryParams(q *api.QueryOptions) url.Values {
	params := url.Values{}
	if q == nil {
		q = &api.QueryOptions{}
	}

	c.setRegionNamespace(params, q.Region, q.Namespace)

	if q.AllowStale {
		params.Set("stale", "")
	}
	if q.WaitIndex != 0 {
		params.Set("index", strconv.FormatUint(q.WaitIndex, 10))
	}
	if q.WaitTime != 0 {
		params.Set("wait", durToMsec(q.WaitTime))
	}
	if q.Prefix != "" {
		params.Set("prefix", q.Prefix)
	}
	if q.Filter != "" {
		params.Set("filter", q.Filter)
	}
	if q.PerPage != 0 {
		params.Set("per_page", strconv.Itoa(int(q.PerPage)))
	}
	if q.NextToken != "" {
		params.Set("next_token", q.NextToken)
	}
	if q.Reverse {
		params.Set("reverse", "true")
	}
	for k, v := range q.Params {
		params.Set(k, v)
	}
	return params
}

// writeParams translates the write options into URL parameters.
func (c *Client) writeParams(w *api.WriteOptions) url.Values {
	params := url.Values{}
	if w == nil {
		w = &api.WriteOptions{}
	}

	c.setRegionNamespace(params, w.Region, w.Namespace)

	if w.IdempotencyToken != "" {
		params.Set("idempotency_token", w.IdempotencyToken)
	}
	return params
}

func (c *Client) setRegionNamespace(params url.Values, region, namespace string) {
	if region == "" {
		region = c.apiCfg.Region
	}
	if region != "" {
		params.Set("region", region)
	}

	if namespace == "" {
		namespace = c.apiCfg.Namespace
	}
	if namespace != "" {
		params.Set("namespace", namespace)
	}
}

func queryHeader(q *api.QueryOptions) http.Header {
	if q == nil {
		return nil
	}
	return optionsHeader(q.AuthToken, q.Headers)
}

func writeHeader(w *api.WriteOptions) http.Header {
	if w == nil {
		return nil
	}
	return optionsHeader(w.AuthToken, w.Headers)
}

func optionsHeader(token string, headers map[string]string) http.Header {
	if token == "" && len(headers) == 0 {
		return nil
	}
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	if token != "" {
		h.Set(transport.HeaderToken, token)
	}
	return h
}

// parseQueryMeta reads the blocking query metadata from the response
// headers. Missing or malformed headers leave the zero value.
func parseQueryMeta(h http.Header) *api.QueryMeta {
	qm := &api.QueryMeta{
		LastIndex: parseIndex(h),
		NextToken: h.Get(headerNextToken),
	}
	if last, err := strconv.ParseUint(h.Get(headerLastContact), 10, 64); err == nil {
		qm.LastContact = time.Duration(last) * time.Millisecond
	}
	qm.KnownLeader = h.Get(headerKnownLeader) == "true"
	return qm
}

func parseWriteMeta(h http.Header) *api.WriteMeta {
	return &api.WriteMeta{LastIndex: parseIndex(h)}
}

func parseIndex(h http.Header) uint64 {
	index, err := strconv.ParseUint(h.Get(headerIndex), 10, 64)
	if err != nil {
		return 0
	}
	return index
}

// durToMsec converts a duration to the millisecond string accepted by the
// wait parameter. Any positive duration is at least one millisecond.
func durToMsec(dur time.Duration) string {
	ms := dur / time.Millisecond
	if dur > 0 && ms == 0 {
		ms = 1
	}
	return fmt.Sprintf("%dms", ms)
}

// escape URL escapes a single path segment.
func escape(segment string) string { return url.PathEscape(segment) }
