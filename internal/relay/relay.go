// Package relay implements the same-origin feed relay: a thin HTTP server
// whose only job is to fetch an arbitrary feed URL server-side and return the
// raw body, so clients stuck behind cross-origin restrictions can still read
// public feeds.
package relay

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tubetop/internal/logging"
)

const userAgent = "tubetop-relay/1.0 (terminal video dashboard)"

// Server relays feed fetches.
type Server struct {
	client *http.Client
}

// NewServer creates a relay server with the given upstream timeout.
func NewServer(timeout time.Duration) *Server {
	return &Server{client: &http.Client{Timeout: timeout}}
}

// Router builds the chi router for the relay.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/fetch", s.handleFetch)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// handleFetch validates the url parameter, fetches it upstream, and copies
// the raw body through. Failure mapping: bad input is 400, an upstream HTTP
// failure propagates the upstream status, a connection failure is 502, and
// anything unexpected is 500 (via Recoverer).
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	target, err := url.Parse(raw)
	if err != nil || !target.IsAbs() || (target.Scheme != "http" && target.Scheme != "https") {
		http.Error(w, "url must be an absolute http or https URL", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		http.Error(w, "could not build upstream request", http.StatusBadRequest)
		return
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		logging.Warn("relay upstream unreachable", "url", target.String(), "error", err)
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Warn("relay upstream error", "url", target.String(), "status", resp.StatusCode)
		http.Error(w, "upstream returned "+resp.Status, resp.StatusCode)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logging.Warn("relay copy failed", "url", target.String(), "error", err)
	}
}
