package judge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	execDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "autograder",
		Subsystem: "executor",
		Name:      "execution_duration_seconds",
		Help:      "Duration of program executions including queueing on the backend",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend"})

	execTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autograder",
		Subsystem: "executor",
		Name:      "execution_timeouts_total",
		Help:      "Number of executions that exhausted their time budget",
	}, []string{"backend"})

	execFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autograder",
		Subsystem: "executor",
		Name:      "execution_failures_total",
		Help:      "Number of executions that resulted in an error",
	}, []string{"backend", "reason"})
)
