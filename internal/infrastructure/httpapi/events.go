package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleEvents serves GET /pdf/events: the persistent push channel. One SSE
// data frame per broadcast command, plus a keep-alive comment on a fixed
// interval. The client is deregistered on every exit path; the deferred call
// covers context cancellation, heartbeat write failure and frame write
// failure alike, and Deregister is idempotent.
func (d *Deps) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET", nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAM_UNSUPPORTED", "stream unsupported", nil)
		return
	}
	sessionID, userID := identity(r, r.URL.Query().Get("sessionId"), r.URL.Query().Get("userId"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// keep nginx and friends from buffering the stream
	w.Header().Set("X-Accel-Buffering", "no")

	client, err := d.Svc.Subscribe(r.Context(), sessionID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SUBSCRIBE_FAILED", "internal error", nil)
		return
	}
	defer func() {
		_ = d.Svc.Unsubscribe(r.Context(), client)
		d.Metrics.ConnectedClients.Dec()
		d.Logger.Info().
			Str("session", sessionID).
			Str("user", userID).
			Str("client", client.ID).
			Msg("client disconnected")
	}()
	d.Metrics.ConnectedClients.Inc()
	if n, err := d.Svc.SessionCount(r.Context()); err == nil {
		d.Metrics.ActiveSessions.Set(float64(n))
	}
	d.Logger.Info().
		Str("session", sessionID).
		Str("user", userID).
		Str("client", client.ID).
		Msg("client connected")

	if err := writeFrame(w, flusher, map[string]any{
		"type":      "connected",
		"clientId":  client.ID,
		"sessionId": sessionID,
		"userId":    userID,
		"ts":        client.ConnectedAt,
	}); err != nil {
		return
	}

	interval := d.Cfg.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case cmd, open := <-client.Frames:
			if !open {
				// channel closed by a concurrent deregistration
				return
			}
			if err := writeFrame(w, flusher, cmd); err != nil {
				d.Logger.Warn().
					Err(err).
					Str("session", sessionID).
					Str("client", client.ID).
					Msg("frame write failed")
				return
			}
		case <-heartbeat.C:
			// a failed keep-alive write is an implicit disconnect
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
