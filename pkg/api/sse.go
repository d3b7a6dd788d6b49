package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/deckhand-io/deckhand/pkg/log"
	"github.com/google/uuid"
)

// handleEvents is the server-push channel. Each request becomes one hub
// connection for its lifetime; the first frame carries the connection ID
// the client uses for room join/leave calls.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	connID := uuid.New().String()
	logger := log.WithConnectionID(connID)
	events := s.hub.Attach(connID)
	defer s.hub.Detach(connID)

	fmt.Fprintf(w, "event: connected\ndata: {\"connection_id\":%q}\n\n", connID)
	flusher.Flush()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error().Err(err).Msg("failed to encode event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
