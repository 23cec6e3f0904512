package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"degiro-returns/internal/jobstore"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// handleJobProgress streams a job's status to the client every second
// until it reaches a terminal state, then closes the connection. There is
// no step-by-step progress inside ComputeReturns to report — this mirrors
// the poll endpoint over a push transport for clients that want it.
func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/ws/jobs/")
	if id == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			job, ok, err := s.Jobs.Get(r.Context(), id)
			if err != nil {
				_ = conn.WriteJSON(map[string]string{"error": err.Error()})
				return
			}
			if !ok {
				_ = conn.WriteJSON(map[string]string{"error": "job not found"})
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			if job.Status == jobstore.StatusDone || job.Status == jobstore.StatusFailed {
				return
			}
		}
	}
}
