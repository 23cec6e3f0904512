// Package httpapi is the HTTP boundary: synchronous and asynchronous CSV
// upload endpoints, job polling, websocket progress, health and metrics
// (spec.md §6, SPEC_FULL.md §11).
package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"degiro-returns/internal/jobstore"
	"degiro-returns/internal/notify"
)

// Server holds every dependency the handlers need.
type Server struct {
	Log       *zap.Logger
	JWTSecret []byte
	Jobs      *jobstore.Store
	Notifier  *notify.Notifier

	UploadMaxBytes int64
}

// Router builds the top-level mux. Every route is registered here rather
// than spread across files, mirroring the single-file route table the
// teacher's server used.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/public/returns", s.withCORS(s.handleComputeSync))
	mux.HandleFunc("/api/private/returns/async", s.withCORS(requireAuth(s.JWTSecret, s.handleComputeAsync)))
	mux.HandleFunc("/api/public/jobs/", s.withCORS(s.handlePollJob))
	mux.HandleFunc("/api/ws/jobs/", s.handleJobProgress)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// NewServerTimeout is the deadline applied to a synchronous compute
// request; async jobs run detached from any single request's lifetime.
const NewServerTimeout = 2 * time.Minute
