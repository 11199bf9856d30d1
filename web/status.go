/* status.go
 * Contains the read-only HTTP endpoints: a health check for uptime monitors and a JSON
 * dump of the coordinator state (queue, open matches, tournament standings, rankings).
 * Author: Zachary Bower
 */

package web

import (
	"encoding/json"
	"log"
	"net/http"
)

// HealthzHandler HTTP endpoint used by uptime monitors to keep the host awake
// Preconditions: HTTP server has been started, receives HTTP ResponseWriter and Http Request
// Postconditions: Responds 200 with a plain ok body
func (s *Server) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// StatusHandler HTTP endpoint that returns the full coordinator snapshot as JSON
// Preconditions: HTTP server has been started, receives HTTP ResponseWriter and Http Request
// Postconditions: Responds with the queue, open matches, tournament standings and rankings
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.api == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := s.api.GetSnapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Println("failed to encode status snapshot:", err)
	}
}
