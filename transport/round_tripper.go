// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/nomad-rest-client/helper/metrics"
	"golang.org/x/time/rate"
)

// instrumentedRoundTripper wraps http.RoundTripper to observe metrics and
// rate limit if necessary.
type instrumentedRoundTripper struct {
	rateLimiter *rate.Limiter
	source      string
	rt          http.RoundTripper
}

func (irt *instrumentedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if irt.rateLimiter != nil {
		if err := irt.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("transport: unable to ratelimit: %w", err)
		}
	}

	labels := []metrics.Label{
		{Name: "method", Value: req.Method},
		{Name: "source", Value: irt.source},
	}

	defer metrics.MeasureSinceWithLabels([]string{"http", "dur"}, time.Now(), labels)

	resp, err := irt.rt.RoundTrip(req)
	if err != nil {
		metrics.IncrCounterWithLabels([]string{"http", "error"}, 1, labels)
		return resp, err
	}

	metrics.IncrCounterWithLabels([]string{"http", "req"}, 1,
		append(labels, metrics.Label{Name: "code", Value: strconv.Itoa(resp.StatusCode)}))

	return resp, nil
}

// newInstrumentedClient returns the provided http client wrapped with a rate
// limiter, if no client is provided, a new one will be created using
// github.com/hashicorp/go-cleanhttp. Rate limiting is only applied when
// ratePerSec is positive, so -1 or 0 disable it. Source is used as a label for
// metrics.
func newInstrumentedClient(source string, ratePerSec, maxConnsPerHost int, client *http.Client) *http.Client {
	httpClient := cleanhttp.DefaultPooledClient()
	if client != nil {
		httpClient = client
	}

	if t, ok := httpClient.Transport.(*http.Transport); ok && maxConnsPerHost > 0 {
		t.MaxConnsPerHost = maxConnsPerHost
	}

	irt := &instrumentedRoundTripper{
		rt:     httpClient.Transport,
		source: source,
	}

	if ratePerSec > 0 {
		irt.rateLimiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}

	httpClient.Transport = irt

	return httpClient
}
