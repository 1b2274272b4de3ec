package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/statebot/go-statebot/internal/bot"
)

// #region server

// Server exposes the bot's query and command surface over HTTP: read the
// record, submit facts with a forced determination, per-fact removal,
// clear-all, manual force update, and Prometheus metrics.
type Server struct {
	bot        *bot.Bot
	httpServer *http.Server
}

// New builds a server around the given bot.
func New(addr string, b *bot.Bot) *Server {
	s := &Server{bot: b}

	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/facts", s.handleFacts)
	mux.HandleFunc("/facts/clear", s.handleClear)
	mux.HandleFunc("/determine", s.handleDetermine)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	log.Printf("[HTTP] listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying handler. Tests only.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// #endregion server

// #region state

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.bot.State())
}

// #endregion state

// #region facts

type submitFactsRequest struct {
	Facts []string `json:"facts"`
}

type removeFactRequest struct {
	Fact string `json:"fact"`
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitFacts(w, r)
	case http.MethodDelete:
		s.handleRemoveFact(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSubmitFacts applies the submitted facts and forces an immediate
// determination, returning the resulting record.
func (s *Server) handleSubmitFacts(w http.ResponseWriter, r *http.Request) {
	var req submitFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Facts == nil {
		writeError(w, http.StatusBadRequest, "facts must be a list of strings")
		return
	}

	s.bot.AddFacts(req.Facts)
	if _, err := s.bot.DetermineState(r.Context()); err != nil {
		log.Printf("[HTTP] determination failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.bot.State())
}

func (s *Server) handleRemoveFact(w http.ResponseWriter, r *http.Request) {
	var req removeFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Fact == "" {
		writeError(w, http.StatusBadRequest, "fact must be a non-empty string")
		return
	}
	s.bot.RemoveFact(req.Fact)
	writeJSON(w, http.StatusOK, s.bot.State())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.bot.ClearFacts()
	writeJSON(w, http.StatusOK, s.bot.State())
}

// #endregion facts

// #region determine

func (s *Server) handleDetermine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, err := s.bot.DetermineState(r.Context()); err != nil {
		log.Printf("[HTTP] determination failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.bot.State())
}

// #endregion determine

// #region helpers

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// #endregion helpers
