package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// OnlineTimeService computes per-day online time for a subject.
type OnlineTimeService interface {
	ComputeOnlineTime(ctx context.Context, req onlinetime.Request) (*onlinetime.SubjectSummary, error)
}

// Config holds API server configuration.
type Config struct {
	ListenAddr          string
	DefaultGapThreshold int64
	DefaultRangeDays    int
	Location            *time.Location
	DateLayout          string // layout used for item dates in responses
	Clock               onlinetime.Clock
}

// Server represents the online-time HTTP API server.
type Server struct {
	config   Config
	service  OnlineTimeService
	subjects storage.SubjectStore
	router   *mux.Router
	server   *http.Server
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, service OnlineTimeService, subjects storage.SubjectStore, logger zerolog.Logger) *Server {
	if cfg.DefaultGapThreshold <= 0 {
		cfg.DefaultGapThreshold = onlinetime.DefaultGapThreshold
	}
	if cfg.DefaultRangeDays <= 0 {
		cfg.DefaultRangeDays = 7
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = "02-01-2006"
	}
	if cfg.Clock == nil {
		cfg.Clock = onlinetime.RealClock{}
	}

	s := &Server{
		config:   cfg,
		service:  service,
		subjects: subjects,
		router:   mux.NewRouter(),
		logger:   logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/online-time", s.handleOnlineTime).Methods("GET")
	v1.HandleFunc("/subjects", s.handleListSubjects).Methods("GET")
	v1.HandleFunc("/subjects/{id:[0-9]+}/online-time", s.handleSubjectOnlineTime).Methods("GET")
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated API listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}
