// Package server is the HTTP front door of the relay, plus a client for it.
package server

import (
	"log/slog"
	"net/http"

	"github.com/samaysahu/Vox-GPT/pkg/metrics"
	"github.com/samaysahu/Vox-GPT/pkg/relay"
)

// Config holds the server dependencies.
type Config struct {
	Relay       *relay.Relay
	Metrics     *metrics.Metrics // optional
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server routes HTTP requests to the relay.
type Server struct {
	relay   *relay.Relay
	metrics *metrics.Metrics
	origins []string
	logger  *slog.Logger
	mux     *http.ServeMux
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		relay:   cfg.Relay,
		metrics: cfg.Metrics,
		origins: cfg.CORSOrigins,
		logger:  cfg.Logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /telemetry", s.handleTelemetry)
	s.mux.HandleFunc("GET /api/arm/state", s.handleState)
	s.mux.HandleFunc("POST /api/arm/command", s.handleCommand)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = CORS(s.origins, h)
	h = Recover(s.logger, h)
	h = AccessLog(s.logger, s.metrics, h)
	h = RequestID(h)
	return h
}
