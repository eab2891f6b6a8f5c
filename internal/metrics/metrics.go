package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hidehate_api_requests_total",
		Help: "Total API requests by endpoint",
	}, []string{"endpoint"})
	APIErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hidehate_api_errors_total",
		Help: "Total failed API requests by endpoint",
	}, []string{"endpoint"})
	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hidehate_fetch_duration_seconds",
		Help:    "Timeline fetch duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	PostsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hidehate_posts_total",
		Help: "Total accepted post submissions",
	})
	PostsFlagged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hidehate_posts_flagged_total",
		Help: "Total submissions held for moderation confirmation",
	})
	Reveals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hidehate_reveals_total",
		Help: "Total per-post reveal actions",
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hidehate_command_runs_total",
		Help: "Total CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hidehate_command_errors_total",
		Help: "Total CLI command errors",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(APIRequests, APIErrors, FetchDuration, PostsSubmitted, PostsFlagged, Reveals, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveFetchDuration records one fetch duration.
func ObserveFetchDuration(start time.Time) {
	FetchDuration.Observe(time.Since(start).Seconds())
}

func IncAPIRequest(endpoint string) { APIRequests.WithLabelValues(endpoint).Inc() }
func IncAPIError(endpoint string)   { APIErrors.WithLabelValues(endpoint).Inc() }
func IncCommandRun(cmd string)      { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string)    { CommandErrors.WithLabelValues(cmd).Inc() }
