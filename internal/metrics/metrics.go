// Package metrics holds Prometheus instruments that are used across the
// engine.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nancy_requests_total",
			Help: "Cumulative number of lifecycles executed.",
		})

	RequestFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nancy_request_failures_total",
			Help: "Cumulative number of lifecycles that ended in terminal error recovery.",
		})

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nancy_requests_in_flight",
			Help: "Number of lifecycles currently executing.",
		})

	AsyncRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nancy_async_rejected_total",
			Help: "Cumulative number of async dispatches rejected by the worker pool.",
		})

	TraceSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nancy_trace_sessions_total",
			Help: "Cumulative number of trace sessions created.",
		})

	TraceRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nancy_trace_records_total",
			Help: "Cumulative number of trace records stored.",
		})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestFailuresTotal,
		RequestsInFlight,
		AsyncRejectedTotal,
		TraceSessionsTotal,
		TraceRecordsTotal,
	)
}
