// Package server exposes the daemon's HTTP and gRPC surfaces and moves files
// between the inbox, the processing queue and the outbox.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/pipeline"
)

// MaxUploadBytes bounds the body accepted by POST /v1/extract.
const MaxUploadBytes = 32 << 20

// BytesProcessor runs an in-memory document through extraction.
type BytesProcessor interface {
	ProcessBytes(ctx context.Context, data []byte, filename string, method constants.Method) (pipeline.Outcome, error)
}

// ReadyFunc reports whether the daemon's dependencies are usable.
type ReadyFunc func(ctx context.Context) error

type HTTPConfig struct {
	Metrics   http.Handler
	Processor BytesProcessor // nil disables /v1/extract
	Ready     ReadyFunc
	Timeout   time.Duration
}

// NewRouter mounts /metrics, /healthz, /readyz and /v1/extract.
func NewRouter(cfg HTTPConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(req.Context()); err != nil {
				logger.Warn("http.readyz.failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Processor != nil {
		r.With(middleware.Timeout(cfg.Timeout)).Post("/v1/extract", extractHandler(cfg.Processor, logger))
	}
	return r
}

// extractHandler takes the raw document as the body; ?filename= carries the
// extension and ?method= the extraction method.
func extractHandler(proc BytesProcessor, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		name := filepath.Base(req.URL.Query().Get("filename"))
		if name == "." || name == "/" {
			name = ""
		}
		method := constants.Method(req.URL.Query().Get("method"))
		if method == "" {
			method = constants.MethodAuto
		}
		if err := common.NewValidator().
			Field("filename", name, common.Required).
			Field("method", string(method), common.OneOf(
				string(constants.MethodAuto), string(constants.MethodRegex), string(constants.MethodLLM))).
			Error(); err != nil {
			writeError(w, err)
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxUploadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "body too large"})
				return
			}
			writeError(w, common.NewAppError(common.CodeInvalidInput, "read body: "+err.Error(), common.ErrInvalidInput))
			return
		}

		out, err := proc.ProcessBytes(req.Context(), data, name, method)
		if err != nil {
			logger.Warn("http.extract.failed", "file", name, "kind", common.ErrorKind(err), "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, NewResult(name, out, nil))
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"kind": common.ErrorKind(err), "error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrUnsupportedInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNoTextExtracted), errors.Is(err, common.ErrNoProductsFound),
		errors.Is(err, common.ErrSchemaViolation), errors.Is(err, common.ErrRelationshipViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
