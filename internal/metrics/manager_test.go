// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/data-mint-research/autotag2/internal/models"
	"github.com/data-mint-research/autotag2/internal/services/batch"
)

func TestManager_GetRegistry(t *testing.T) {
	manager := NewManager(batch.NewTracker())

	registry := manager.GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestManager_MetricsCanBeScraped(t *testing.T) {
	manager := NewManager(batch.NewTracker())

	metricCount := testutil.CollectAndCount(manager.GetRegistry())
	assert.Greater(t, metricCount, 0, "Should be able to collect metrics")
}

func TestManager_HandlerServesJobMetrics(t *testing.T) {
	tracker := batch.NewTracker()
	tracker.Start("/photos", models.SaveModeReplace)
	tracker.SetPhase(models.PhaseProcessing, "processing")
	tracker.SetTotal(10)
	tracker.MarkProcessed(true)
	tracker.MarkProcessed(true)
	tracker.MarkProcessed(false)

	manager := NewManager(tracker)

	rec := httptest.NewRecorder()
	manager.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "autotag_job_active 1")
	assert.Contains(t, body, "autotag_job_files_total 10")
	assert.Contains(t, body, "autotag_job_files_processed 3")
	assert.Contains(t, body, "autotag_job_files_successful 2")
	assert.Contains(t, body, "autotag_job_files_failed 1")
	assert.Contains(t, body, "autotag_job_progress_percent 30")

	// runtime collectors are registered too
	assert.True(t, strings.Contains(body, "go_goroutines"), "go runtime metrics should be exposed")
}

func TestJobCollector_IdleTracker(t *testing.T) {
	manager := NewManager(batch.NewTracker())

	rec := httptest.NewRecorder()
	manager.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "autotag_job_active 0")
	assert.Contains(t, body, "autotag_job_files_total 0")
}
