package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Computation metrics
	ComputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onlinetime_computations_total",
			Help: "Total online-time computations by outcome",
		},
		[]string{"outcome"},
	)

	ComputationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onlinetime_computation_duration_seconds",
			Help:    "Online-time computation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CollaboratorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onlinetime_collaborator_failures_total",
			Help: "Failures reported by the log source or identity resolver",
		},
		[]string{"collaborator"},
	)

	// Estimation metrics
	DaysEstimated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onlinetime_days_estimated_total",
			Help: "Total day buckets estimated",
		},
	)

	DailyOnlineSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onlinetime_daily_online_seconds",
			Help:    "Estimated online seconds per subject-day",
			Buckets: []float64{0, 60, 300, 900, 1800, 3600, 7200, 14400, 28800, 86400},
		},
	)

	// Identity cache metrics
	IdentityCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onlinetime_identity_cache_hits_total",
			Help: "Identity cache hits",
		},
	)

	IdentityCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onlinetime_identity_cache_misses_total",
			Help: "Identity cache misses",
		},
	)

	// Retention metrics
	LogsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onlinetime_logs_pruned_total",
			Help: "Activity logs removed by retention pruning",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onlinetime_api_requests_total",
			Help: "Total API requests handled",
		},
		[]string{"route", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		ComputationsTotal,
		ComputationDuration,
		CollaboratorFailures,
		DaysEstimated,
		DailyOnlineSeconds,
		IdentityCacheHits,
		IdentityCacheMisses,
		LogsPruned,
		APIRequestsTotal,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			// Use systemd socket-activated listener
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			// Create and bind listener ourselves
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
