// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/data-mint-research/autotag2/internal/domain"
	"github.com/data-mint-research/autotag2/internal/models"
	"github.com/data-mint-research/autotag2/internal/services/batch"
)

type noopClassifier struct{}

func (noopClassifier) Analyze(context.Context, string) models.ClassificationResult {
	return models.ClassificationResult{}
}

func (noopClassifier) CountPeople(context.Context, string) models.PersonCategory {
	return models.PersonNone
}

type noopWriter struct{}

func (noopWriter) WriteTags(_ context.Context, imagePath string, _ []string, _ models.TagMode, _ models.SaveMode) (string, error) {
	return imagePath, nil
}

func newTestServer(cfg *domain.Config) *Server {
	svc := batch.NewService(batch.Config{DefaultTagMode: models.TagModeAppend}, noopClassifier{}, noopClassifier{}, noopWriter{})
	return NewServer(&Dependencies{Config: cfg, BatchService: svc})
}

func TestHandler_Healthz(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHandler_StatusRoute(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status models.JobStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.PhaseIdle, status.Phase)
}

func TestHandler_BaseURLMountsSubfolder(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{BaseURL: "/autotag/"})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/autotag/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UnknownRoute(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CORSHeaders(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{})

	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_PprofDisabledByDefault(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PprofEnabled(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{PprofEnabled: true})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	server := newTestServer(&domain.Config{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process/folder", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
