package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tablebook/internal/config"
	"tablebook/internal/database"
	"tablebook/internal/export"
	"tablebook/internal/metrics"
	"tablebook/internal/rules"
	"tablebook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the REST surface consumed by the dashboard client.
type HTTPServer struct {
	cfg          config.ServerConfig
	reservations *service.ReservationService
	tables       *service.TableService
	exporter     *export.Exporter
	server       *http.Server
	auth         *HTTPAuth
	logger       *zerolog.Logger
}

func NewHTTPServer(
	cfg config.ServerConfig,
	apiCfg config.APIConfig,
	reservations *service.ReservationService,
	tables *service.TableService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:          cfg,
		reservations: reservations,
		tables:       tables,
		exporter:     exporter,
		logger:       logger,
	}
	srv.auth = NewHTTPAuth(apiCfg)

	mux.HandleFunc("/reservations", srv.handleReservations)
	mux.HandleFunc("/reservations/", srv.handleReservationPath)
	mux.HandleFunc("/tables", srv.handleTables)
	mux.HandleFunc("/tables/", srv.handleTablePath)
	mux.HandleFunc("/healthz", srv.handleHealthz)

	handler := srv.loggingMiddleware(corsMiddleware(cfg.CORSOrigins, srv.auth.Wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathSegments splits the request path below a prefix: "/tables/3/seat"
// with prefix "/tables/" yields ["3", "seat"].
func pathSegments(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// respondServiceError translates errors from the service layer: rule
// violations become 400, missing ids 404 with the caller's message, and
// anything else logs as a 500.
func (s *HTTPServer) respondServiceError(w http.ResponseWriter, err error, notFound map[error]string) {
	var violation *rules.Violation
	if errors.As(err, &violation) {
		writeError(w, http.StatusBadRequest, violation.Message)
		return
	}

	for sentinel, message := range notFound {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusNotFound, message)
			return
		}
	}

	switch {
	case errors.Is(err, database.ErrTableOccupied):
		writeError(w, http.StatusBadRequest, "table is currently occupied.")
	case errors.Is(err, database.ErrReservationSeated):
		writeError(w, http.StatusBadRequest, "Already seated")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(endpointLabel(r.URL.Path), fmt.Sprintf("%d", recorder.status))
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// endpointLabel collapses ids out of the path to keep metric cardinality
// bounded.
func endpointLabel(path string) string {
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "/"
	}
	return "/" + parts[0]
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (len(allowed) == 0 || allowed[origin] || allowed["*"]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Key, X-Request-Id")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, statusCode int, payload any) {
	writeJSON(w, statusCode, map[string]any{"data": payload})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"status": statusCode, "message": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
