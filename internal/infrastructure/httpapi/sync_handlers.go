package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"pdfsync/internal/domain"
	"pdfsync/internal/usecase"
)

// identity returns the session/user pair for a request. Precedence: explicit
// field from the body or query > x-session-id / x-user-id header > default.
func identity(r *http.Request, sessionID, userID string) (string, string) {
	if sessionID == "" {
		sessionID = r.Header.Get("x-session-id")
	}
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	if userID == "" {
		userID = r.Header.Get("x-user-id")
	}
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return sessionID, userID
}

type publishBody struct {
	SessionID string   `json:"sessionId"`
	UserID    string   `json:"userId"`
	Left      *float64 `json:"left"`
	Right     *float64 `json:"right"`
	Top       *float64 `json:"top"`
	Bottom    *float64 `json:"bottom"`
}

// decodePublishBody tolerates an empty body (page changes carry everything in
// the path) but rejects malformed JSON.
func decodePublishBody(r *http.Request) (publishBody, error) {
	var body publishBody
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		return body, err
	}
	return body, nil
}

// handlePageChange serves POST /pdf/page/{page}.
func (d *Deps) handlePageChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST", nil)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/pdf/page/")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGE", "Invalid page number", map[string]any{"page": raw})
		return
	}
	body, err := decodePublishBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}
	sessionID, userID := identity(r, body.SessionID, body.UserID)

	res, err := d.Svc.PageChange(r.Context(), sessionID, userID, page)
	if err != nil {
		d.respondPublishError(w, err)
		return
	}
	d.finishPublish(r, sessionID, userID, res)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"page":      page,
		"sessionId": sessionID,
		"userId":    userID,
	})
}

// handleZoomX serves POST /pdf/zoom/x.
func (d *Deps) handleZoomX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST", nil)
		return
	}
	var body publishBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}
	if body.Left == nil || body.Right == nil {
		writeError(w, http.StatusBadRequest, "INVALID_BOUNDS", "left and right must be numeric", nil)
		return
	}
	sessionID, userID := identity(r, body.SessionID, body.UserID)

	res, err := d.Svc.ZoomX(r.Context(), sessionID, userID, *body.Left, *body.Right)
	if err != nil {
		d.respondPublishError(w, err)
		return
	}
	d.finishPublish(r, sessionID, userID, res)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"left":      *body.Left,
		"right":     *body.Right,
		"sessionId": sessionID,
		"userId":    userID,
	})
}

// handleZoomY serves POST /pdf/zoom/y.
func (d *Deps) handleZoomY(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST", nil)
		return
	}
	var body publishBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}
	if body.Top == nil || body.Bottom == nil {
		writeError(w, http.StatusBadRequest, "INVALID_BOUNDS", "top and bottom must be numeric", nil)
		return
	}
	sessionID, userID := identity(r, body.SessionID, body.UserID)

	res, err := d.Svc.ZoomY(r.Context(), sessionID, userID, *body.Top, *body.Bottom)
	if err != nil {
		d.respondPublishError(w, err)
		return
	}
	d.finishPublish(r, sessionID, userID, res)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"top":       *body.Top,
		"bottom":    *body.Bottom,
		"sessionId": sessionID,
		"userId":    userID,
	})
}

// respondPublishError maps validation errors to 400s; anything else is a 500.
// Validation failures never reach the broadcaster.
func (d *Deps) respondPublishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, "INVALID_PAGE", "Invalid page number", nil)
	case errors.Is(err, domain.ErrInvalidXBounds):
		writeError(w, http.StatusBadRequest, "INVALID_BOUNDS", "Left bound must be less than right bound", nil)
	case errors.Is(err, domain.ErrInvalidYBounds):
		writeError(w, http.StatusBadRequest, "INVALID_BOUNDS", "Top bound must be less than bottom bound", nil)
	default:
		d.Logger.Error().Err(err).Msg("publish failed")
		writeError(w, http.StatusInternalServerError, "PUBLISH_FAILED", "internal error", nil)
	}
}

// finishPublish records metrics, logs and mirrors a successful broadcast to
// the monitor hub.
func (d *Deps) finishPublish(r *http.Request, sessionID, userID string, res usecase.PublishResult) {
	d.Metrics.CommandsPublished.WithLabelValues(string(res.Command.Type)).Inc()
	if res.Dropped > 0 {
		d.Metrics.FramesDropped.Add(float64(res.Dropped))
		d.Logger.Warn().
			Str("session", sessionID).
			Int("dropped", res.Dropped).
			Str("type", string(res.Command.Type)).
			Msg("frames dropped for slow clients")
	}
	if n, err := d.Svc.SessionCount(r.Context()); err == nil {
		d.Metrics.ActiveSessions.Set(float64(n))
	}
	d.Logger.Debug().
		Str("session", sessionID).
		Str("user", userID).
		Str("type", string(res.Command.Type)).
		Int("delivered", res.Delivered).
		Msg("command broadcast")
	d.Monitor.Broadcast(CommandEvent{SessionID: sessionID, UserID: userID, Command: res.Command})
}
