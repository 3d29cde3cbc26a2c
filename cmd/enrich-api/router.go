package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/partly/enrichment-engine/internal/config"
	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// Enricher runs the pipeline for one MPN.
type Enricher interface {
	Enrich(ctx context.Context, mpn, manufacturer string) (*domain.FinalResult, error)
}

// enrichRequest is the POST /v1/enrich body.
type enrichRequest struct {
	MPN          string `json:"mpn"`
	Manufacturer string `json:"manufacturer"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// NewRouter builds the API routes around one pipeline service.
func NewRouter(logger *observability.Logger, svc Enricher, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.WriteTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"enrichment-engine"}`))
	})

	r.Post("/v1/enrich", handleEnrich(logger, svc))

	return r
}

// requestID assigns every request a uuid and echoes it on the response.
// An inbound X-Request-ID is kept so callers can trace their own ids.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			req.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, req)
	})
}

func handleEnrich(logger *observability.Logger, svc Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		log := logger.WithStage("api")

		var body enrichRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "request body must be JSON", id)
			return
		}
		if body.MPN == "" {
			writeError(w, http.StatusBadRequest, "mpn is required", id)
			return
		}

		final, err := svc.Enrich(req.Context(), body.MPN, body.Manufacturer)
		if err != nil {
			log.Error().Str("request_id", id).Str("mpn", body.MPN).Err(err).Msg("enrichment failed")
			writeError(w, statusFor(err), err.Error(), id)
			return
		}

		log.Info().
			Str("request_id", id).
			Str("mpn", body.MPN).
			Bool("usable", final.Usable).
			Float64("confidence", final.Confidence).
			Msg("enrichment served")

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(final); err != nil {
			log.Error().Str("request_id", id).Err(err).Msg("response encode failed")
		}
	}
}

// statusFor maps the error taxonomy onto HTTP statuses. Validation is the
// caller's fault; upstream transport failures are a bad gateway.
func statusFor(err error) int {
	var derr *domain.DomainError
	if !errors.As(err, &derr) {
		return http.StatusInternalServerError
	}
	switch derr.Type {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeAPI, domain.ErrorTypeDiscovery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message, RequestID: requestID})
}
