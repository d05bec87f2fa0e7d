package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"scour/agent"
)

// Server is the HTTP shell around the research agent. It formats requests
// and responses; search and research semantics live below it.
type Server struct {
	searcher agent.Searcher
	registry *agent.Registry
	history  *agent.History
	logger   *zap.Logger
	port     int
}

func NewServer(searcher agent.Searcher, registry *agent.Registry, history *agent.History, logger *zap.Logger, port int) *Server {
	return &Server{
		searcher: searcher,
		registry: registry,
		history:  history,
		logger:   logger,
		port:     port,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/search", s.SearchHandler)
	mux.HandleFunc("/api/research", s.ResearchHandler)
	mux.HandleFunc("/api/history", s.HistoryHandler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.logger.Info("starting API server", zap.Int("port", s.port))
	return http.ListenAndServe(":"+strconv.Itoa(s.port), mux)
}
