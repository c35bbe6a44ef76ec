package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pdfsync/internal/infrastructure/config"
	obs "pdfsync/internal/infrastructure/observability"
	"pdfsync/internal/usecase"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Svc     *usecase.SyncService
	Monitor *MonitorHub
}

func NewRouterWithDeps(d *Deps) http.Handler {
	return withCORS(d.Cfg, buildBaseMux(d))
}

// buildBaseMux constructs the mux with all routes, without wrappers.
func buildBaseMux(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/pdf/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":    "pdfsync",
			"version": obs.Version,
			"commit":  obs.Commit,
			"time":    time.Now().UTC(),
		})
	})

	// Command producers
	limit := newPublishLimiter(d.Cfg)
	mux.HandleFunc("/pdf/page/", limit(d.handlePageChange))
	mux.HandleFunc("/pdf/zoom/x", limit(d.handleZoomX))
	mux.HandleFunc("/pdf/zoom/y", limit(d.handleZoomY))

	// Push channel + introspection
	mux.HandleFunc("/pdf/events", d.handleEvents)
	mux.HandleFunc("/pdf/debug", d.handleDebug)

	// Ops mirror of all published commands
	mux.HandleFunc("/pdf/monitor/ws", d.Monitor.HandleWS)

	return mux
}

func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-session-id, x-user-id")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// newPublishLimiter returns a middleware applying a shared token bucket to the
// command producers. Disabled when the configured rate is zero or negative.
func newPublishLimiter(cfg config.Config) func(http.HandlerFunc) http.HandlerFunc {
	if cfg.PublishRate <= 0 {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.PublishRate), cfg.PublishBurst)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many publish requests", nil)
				return
			}
			next(w, r)
		}
	}
}
