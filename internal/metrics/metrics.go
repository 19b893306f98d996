package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RetryFailedAttempts counts failed attempts seen by a retry executor
	RetryFailedAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metis_tools_retry_failed_attempts_total",
			Help: "Total number of failed attempts observed by retry executors",
		},
		[]string{"operation"},
	)

	// RetryExhausted counts operations that ran out of retry budget
	RetryExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metis_tools_retry_exhausted_total",
			Help: "Total number of operations that exhausted their retry budget",
		},
		[]string{"operation"},
	)

	// RetryCancelled counts operations abandoned because their context ended
	RetryCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metis_tools_retry_cancelled_total",
			Help: "Total number of operations cancelled while retrying",
		},
		[]string{"operation"},
	)

	// OutcomesRecorded counts outcomes offered to an aggregator, by whether they were kept
	OutcomesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metis_tools_outcomes_recorded_total",
			Help: "Total number of outcomes recorded, by category and result",
		},
		[]string{"category", "result"},
	)

	// TagsResolved counts mapping tag classifications
	TagsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metis_tools_tags_resolved_total",
			Help: "Total number of mapping tags classified, by result",
		},
		[]string{"result"},
	)

	// JobItems counts items handled by a job
	JobItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metis_tools_job_items_total",
			Help: "Total number of items handled by jobs, by job and result",
		},
		[]string{"job", "result"},
	)
)

// Server exposes /metrics while a long running job executes.
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server listening on port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background until Stop is called.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
