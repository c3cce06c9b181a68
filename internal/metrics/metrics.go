// Package metrics exposes Prometheus collectors for the repair and
// scheduling paths and for HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roommates"

// Owner repair outcomes
const (
	RepairTransferred = "transferred"
	RepairRaceLost    = "race_lost"
	RepairPlaceholder = "placeholder"
	RepairPersistFail = "persist_failed"
)

// Assignment sources
const (
	SourceWeekly = "weekly"
	SourceManual = "manual"
)

var (
	OwnerRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "owner_repairs_total",
		Help:      "Stale group owners detected on read, by outcome.",
	}, []string{"outcome"})

	AssignmentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_created_total",
		Help:      "Task assignments created, by source.",
	}, []string{"source"})

	SchedulerRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_runs_total",
		Help:      "Weekly scheduler invocations.",
	})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Realtime events that could not be published.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request latency per matched route
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
