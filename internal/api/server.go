package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linkratio/linkratio/internal/crawler"
)

// Server exposes the HTTP API for submitting and tracking crawl jobs.
type Server struct {
	manager *JobManager
	mux     *http.ServeMux
}

// NewServer wires handlers onto an HTTP mux.
func NewServer(manager *JobManager) *Server {
	s := &Server{
		manager: manager,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/crawl", s.handleCrawl)
	s.mux.HandleFunc("/api/crawl/", s.handleCrawl)
	s.mux.HandleFunc("/api/crawl/status/", s.handleStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// CrawlRequest is the POST /api/crawl payload.
type CrawlRequest struct {
	// URL is the seed URL to crawl from. A bare host is accepted; the
	// engine applies the configured default protocol.
	URL string `json:"url"`

	// MaxDepth is the BFS depth bound. Zero crawls only the seed.
	MaxDepth int `json:"max_depth"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	// The subtree registration accepts the trailing-slash form of the
	// endpoint but must not claim deeper unknown paths.
	if strings.TrimSuffix(r.URL.Path, "/") != "/api/crawl" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.createJob(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.manager.ListJobs())
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json payload: %v", err), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if req.MaxDepth < 0 {
		http.Error(w, crawler.ErrInvalidDepth.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := s.manager.StartJob(strings.TrimSpace(req.URL), req.MaxDepth)
	if err != nil {
		if errors.Is(err, ErrMaxConcurrency) {
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	taskID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/crawl/status/"), "/")
	if taskID == "" {
		http.NotFound(w, r)
		return
	}

	snapshot, err := s.manager.GetJob(taskID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
