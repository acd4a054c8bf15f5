package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/eopgo/internal/auth"
	"github.com/star/eopgo/internal/eop"
	"github.com/star/eopgo/internal/health"
	"github.com/star/eopgo/internal/httputil"
	"github.com/star/eopgo/internal/metrics"
)

// Config holds server behavior settings beyond the listen address.
type Config struct {
	// TrustProxy enables X-Forwarded-For/X-Real-IP handling in request
	// logs. Only set behind a trusted reverse proxy.
	TrustProxy bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server serving Earth orientation data
// from the given provider.
func NewServer(addr string, logger *slog.Logger, cfg Config, authCfg auth.Config, provider *eop.Provider) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(provider))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/eop", eopHandler(logger, provider))
	mux.HandleFunc("GET /api/v1/status", statusHandler(provider))

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// eopResponse is the JSON shape of a single-epoch query.
type eopResponse struct {
	MJD float64 `json:"mjd"`
	eop.Parameters
}

func eopHandler(logger *slog.Logger, provider *eop.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mjdStr := r.URL.Query().Get("mjd")
		if mjdStr == "" {
			writeError(w, http.StatusBadRequest, "missing required query parameter: mjd")
			return
		}
		mjd, err := strconv.ParseFloat(mjdStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "mjd must be a number")
			return
		}

		params, err := provider.EOP(mjd)
		if err != nil {
			var oor *eop.OutOfRangeError
			switch {
			case errors.Is(err, eop.ErrNotInitialized):
				writeError(w, http.StatusServiceUnavailable, err.Error())
			case errors.As(err, &oor):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			default:
				logger.Error("eop query failed", "mjd", mjd, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, eopResponse{MJD: mjd, Parameters: params})
	}
}

// statusResponse is the JSON shape of the provider introspection endpoint.
type statusResponse struct {
	Initialized      bool    `json:"initialized"`
	Source           string  `json:"source,omitempty"`
	Records          int     `json:"records"`
	MJDMin           float64 `json:"mjd_min"`
	MJDMax           float64 `json:"mjd_max"`
	LastLODMJD       float64 `json:"last_lod_mjd"`
	LastCelestialMJD float64 `json:"last_dxdy_mjd"`
	Extrapolate      string  `json:"extrapolate,omitempty"`
	Interpolate      bool    `json:"interpolate"`
}

func statusHandler(provider *eop.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{Initialized: provider.Initialized()}
		if resp.Initialized {
			resp.Source = provider.Source().String()
			resp.Records = provider.Len()
			resp.MJDMin = provider.MJDMin()
			resp.MJDMax = provider.MJDMax()
			resp.LastLODMJD = provider.LastLODMJD()
			resp.LastCelestialMJD = provider.LastCelestialMJD()
			resp.Extrapolate = provider.Extrapolate().String()
			resp.Interpolate = provider.Interpolate()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
