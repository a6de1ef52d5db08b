// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package policy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for policy evaluation.
var (
	// checkDuration tracks the latency of Check() calls.
	checkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "busguard_check_duration_seconds",
		Help:    "Histogram of policy evaluation latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// checksTotal counts evaluations by verdict.
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busguard_checks_total",
		Help: "Total number of policy checks performed",
	}, []string{"verdict"})

	// rootBypassTotal counts checks short-circuited by the superuser bypass.
	rootBypassTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busguard_root_bypass_total",
		Help: "Total number of checks that bypassed policy via uid 0",
	})
)

// CheckInstrumented wraps Check with latency and verdict metrics, for
// callers (the CLI, a future daemon) that want Prometheus observability
// without duplicating the timing boilerplate at every call site.
func CheckInstrumented(p *Policy, opts EvalOptions) Verdict {
	start := time.Now()
	if opts.Credential.IsRoot() {
		rootBypassTotal.Inc()
	}
	verdict := Check(p, opts)
	checkDuration.Observe(time.Since(start).Seconds())
	checksTotal.WithLabelValues(verdict.String()).Inc()
	return verdict
}
