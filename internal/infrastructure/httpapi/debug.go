package httpapi

import (
	"net/http"
)

// handleDebug serves GET /pdf/debug: a read-only snapshot of the registry for
// ops and debugging. Never used by application logic.
func (d *Deps) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET", nil)
		return
	}
	report, err := d.Svc.Debug(r.Context())
	if err != nil {
		d.Logger.Error().Err(err).Msg("debug snapshot failed")
		writeError(w, http.StatusInternalServerError, "DEBUG_FAILED", "internal error", nil)
		return
	}
	d.Metrics.ActiveSessions.Set(float64(report.TotalSessions))
	writeJSON(w, http.StatusOK, report)
}
