package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rom8726/caseflow"
)

type Server struct {
	engine  Engine
	history caseflow.ExecutionReader
	monitor caseflow.Monitor
	plugins []Plugin
	logger  zerolog.Logger
}

type ServerOption func(s *Server)

// WithHistory enables GET /api/history backed by reader.
func WithHistory(reader caseflow.ExecutionReader) ServerOption {
	return func(s *Server) {
		s.history = reader
	}
}

// WithMonitor enables GET /api/stats.
func WithMonitor(monitor caseflow.Monitor) ServerOption {
	return func(s *Server) {
		s.monitor = monitor
	}
}

func WithPlugins(plugins ...Plugin) ServerOption {
	return func(s *Server) {
		s.plugins = append(s.plugins, plugins...)
	}
}

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(engine Engine, opts ...ServerOption) *Server {
	s := &Server{
		engine: engine,
		logger: log.Logger.With().Str("component", "api").Logger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	RegisterCoreRoutes(mux, s.engine)
	if s.history != nil {
		RegisterHistoryRoutes(mux, s.history)
	}
	if s.monitor != nil {
		mux.HandleFunc("GET /api/stats", HandleGetStats(s.monitor))
	}

	for _, plugin := range s.plugins {
		plugin.RegisterRoutes(mux)
		s.logger.Info().
			Str("plugin", plugin.Name()).
			Str("description", plugin.Description()).
			Msg("api plugin registered")
	}

	return mux
}
