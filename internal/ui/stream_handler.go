package ui

import (
	"fmt"
	"net/http"
	"time"

	"tandem/internal/auth"
	httperrors "tandem/internal/http/errors"
)

// keepAliveInterval is how often an SSE comment is written so proxies do
// not drop idle connections.
const keepAliveInterval = 25 * time.Second

// Stream is the server-sent events endpoint. Clients get a "changed" event
// whenever anything in their workspace changes and refetch the page; the
// stream carries no payload beyond the wake-up.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		httperrors.LogError(r, "sse stream", fmt.Errorf("response writer does not support flushing"))
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	wake, cancel := h.hub.Subscribe(ws.ID)
	defer cancel()

	// Initial event so the client knows the stream is live.
	fmt.Fprint(w, "event: ready\ndata: ok\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-wake:
			fmt.Fprint(w, "event: changed\ndata: changed\n\n")
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
