package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"scour/agent"
	"scour/search"
)

type searchRequest struct {
	Query   string      `json:"query"`
	Mode    search.Mode `json:"mode,omitempty"`
	News    bool        `json:"news,omitempty"`
	Page    int         `json:"page,omitempty"`
	PerPage int         `json:"per_page,omitempty"`
}

type researchRequest struct {
	Query   string      `json:"query"`
	Depth   agent.Depth `json:"depth,omitempty"`
	Mode    search.Mode `json:"mode,omitempty"`
	News    bool        `json:"news,omitempty"`
	Page    int         `json:"page,omitempty"`
	PerPage int         `json:"per_page,omitempty"`
	UseAI   *bool       `json:"use_ai,omitempty"`
}

// SearchHandler runs one paginated search. An empty page means the
// provider failed or nothing matched; the two are indistinguishable here.
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "missing query parameter", http.StatusBadRequest)
		return
	}
	if req.PerPage < 1 {
		req.PerPage = 10
	}
	if req.Page < 0 {
		req.Page = 0
	}

	all := s.searcher.Search(r.Context(), search.Request{
		Query:      req.Query,
		MaxResults: search.OverfetchSize(req.Page, req.PerPage),
		Mode:       req.Mode,
		News:       req.News,
	})
	page := search.Paginate(all, req.Page, req.PerPage)

	writeJSON(w, s.logger, page)
}

// ResearchHandler runs a full research call. The call is blocking by
// design; the handler goroutine is the background context it runs on.
func (s *Server) ResearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "missing query parameter", http.StatusBadRequest)
		return
	}

	useAI := true
	if req.UseAI != nil {
		useAI = *req.UseAI
	}
	mode := req.Mode
	if mode == "" {
		mode = search.ModeAuto
	}

	researcher, err := s.registry.Get(agent.Key{UseAI: useAI, Engine: string(mode)})
	if err != nil {
		s.logger.Error("failed to build agent", zap.Error(err))
		http.Error(w, "failed to initialize research agent", http.StatusInternalServerError)
		return
	}

	research := researcher.Research(r.Context(), agent.Request{
		Query:   req.Query,
		Depth:   req.Depth,
		Mode:    mode,
		News:    req.News,
		Page:    req.Page,
		PerPage: req.PerPage,
	})

	writeJSON(w, s.logger, research)
}

// HistoryHandler lists past research calls.
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "history not configured", http.StatusNotFound)
		return
	}

	records, err := s.history.List()
	if err != nil {
		s.logger.Error("failed to list history", zap.Error(err))
		http.Error(w, "failed to list history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, records)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
