package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/me/petms/internal/ui"
)

// handleEvents streams live events for the calling user via Server-Sent
// Events. Connecting is the registration handshake: the user's entry in
// the live registry is created (displacing any previous connection) and
// removed again when the stream ends.
// GET /api/v1/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := ui.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	entry := s.registry.Register(sess.UserID, r.UserAgent())
	defer s.registry.Unregister(entry.ConnectionID)

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if err := sendSSEEvent(w, flusher, "connected", map[string]string{"connection_id": entry.ConnectionID}); err != nil {
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case ev, open := <-entry.Events():
			if !open {
				// Displaced by a newer connection before any event arrived.
				return
			}
			if err := sendSSEEvent(w, flusher, ev.Name, ev); err != nil {
				s.logger.Debug("sse client gone", "user_id", sess.UserID)
			}
			// A pushed event always precedes channel close; the stream is
			// done either way.
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
