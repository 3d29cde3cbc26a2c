package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partly/enrichment-engine/internal/config"
	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

type fakeEnricher struct {
	err   error
	final *domain.FinalResult
}

func (f *fakeEnricher) Enrich(_ context.Context, mpn, manufacturer string) (*domain.FinalResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.final
	out.MPN = mpn
	out.Manufacturer = manufacturer
	return &out, nil
}

func newTestRouter(svc Enricher) http.Handler {
	cfg := config.ServerConfig{WriteTimeout: 30 * time.Second}
	return NewRouter(observability.Nop(), svc, cfg)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeEnricher{final: &domain.FinalResult{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestEnrichEndpoint(t *testing.T) {
	router := newTestRouter(&fakeEnricher{final: &domain.FinalResult{
		Usable:     true,
		Confidence: 0.81,
	}})

	body := strings.NewReader(`{"mpn":"M1-1120-3","manufacturer":"SurgePure"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/enrich", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var got domain.FinalResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "M1-1120-3", got.MPN)
	assert.Equal(t, "SurgePure", got.Manufacturer)
	assert.True(t, got.Usable)
	assert.InDelta(t, 0.81, got.Confidence, 1e-9)
}

func TestEnrichEndpointKeepsCallerRequestID(t *testing.T) {
	router := newTestRouter(&fakeEnricher{final: &domain.FinalResult{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/enrich",
		strings.NewReader(`{"mpn":"M1-1120-3"}`))
	req.Header.Set(requestIDHeader, "caller-id-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "caller-id-7", rec.Header().Get(requestIDHeader))
}

func TestEnrichEndpointRejectsMissingMPN(t *testing.T) {
	router := newTestRouter(&fakeEnricher{final: &domain.FinalResult{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/enrich",
		strings.NewReader(`{"manufacturer":"SurgePure"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mpn is required")
}

func TestEnrichEndpointRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&fakeEnricher{final: &domain.FinalResult{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/enrich",
		strings.NewReader(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ValidationError("bad mpn", nil)))
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.APIError("search backend 500", nil)))
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.DiscoveryError("no backend", nil)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.IOError("disk", nil)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(context.DeadlineExceeded))
}

func TestEnrichEndpointMapsPipelineErrors(t *testing.T) {
	router := newTestRouter(&fakeEnricher{err: domain.APIError("search backend unavailable", nil)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/enrich",
		strings.NewReader(`{"mpn":"M1-1120-3"}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "search backend unavailable")
}
