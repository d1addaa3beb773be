// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/nomad-rest-client/config"
	"github.com/hashicorp/nomad-rest-client/helper/metrics"
	"github.com/shoenig/test/must"
)

func TestSetup(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         *config.Telemetry
		expectedErr string
	}{
		{
			name: "nil config",
			cfg:  nil,
		},
		{
			name: "statsd and statsite",
			cfg: &config.Telemetry{
				StatsdAddr:         "127.0.0.1:8125",
				StatsiteAddr:       "127.0.0.1:8126",
				CollectionInterval: 10 * time.Millisecond,
			},
		},
		{
			name: "prometheus",
			cfg: &config.Telemetry{
				PrometheusMetrics:       true,
				PrometheusRetentionTime: time.Minute,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inm, err := Setup(tc.cfg)
			if tc.expectedErr != "" {
				must.ErrorContains(t, err, tc.expectedErr)
				return
			}
			must.NoError(t, err)
			must.NotNil(t, inm)
		})
	}
}

func TestSetup_emitsToInmem(t *testing.T) {
	inm, err := Setup(&config.Telemetry{DisableHostname: true})
	must.NoError(t, err)

	metrics.IncrCounterWithLabels([]string{"poll", "outcome"}, 1,
		[]metrics.Label{{Name: "outcome", Value: "done"}})

	var found bool
	for _, interval := range inm.Data() {
		interval.RLock()
		for key := range interval.Counters {
			if strings.HasPrefix(key, ServiceName+".poll.outcome") {
				found = true
			}
		}
		interval.RUnlock()
	}
	must.True(t, found)
}
