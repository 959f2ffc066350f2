// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/data-mint-research/autotag2/internal/services/batch"
)

// JobCollector exposes the current batch job state as gauges. Values are
// read from a tracker snapshot at scrape time, so scrapes never block the
// job itself.
type JobCollector struct {
	tracker *batch.Tracker

	jobActiveDesc      *prometheus.Desc
	filesTotalDesc     *prometheus.Desc
	filesProcessedDesc *prometheus.Desc
	filesSuccessDesc   *prometheus.Desc
	filesFailedDesc    *prometheus.Desc
	etaSecondsDesc     *prometheus.Desc
	progressDesc       *prometheus.Desc
}

func NewJobCollector(tracker *batch.Tracker) *JobCollector {
	return &JobCollector{
		tracker: tracker,

		jobActiveDesc: prometheus.NewDesc(
			"autotag_job_active",
			"Whether a batch job is currently running (1=active, 0=idle)",
			nil,
			nil,
		),
		filesTotalDesc: prometheus.NewDesc(
			"autotag_job_files_total",
			"Total number of files discovered by the current or last batch job",
			nil,
			nil,
		),
		filesProcessedDesc: prometheus.NewDesc(
			"autotag_job_files_processed",
			"Number of files processed so far by the current or last batch job",
			nil,
			nil,
		),
		filesSuccessDesc: prometheus.NewDesc(
			"autotag_job_files_successful",
			"Number of files tagged successfully by the current or last batch job",
			nil,
			nil,
		),
		filesFailedDesc: prometheus.NewDesc(
			"autotag_job_files_failed",
			"Number of files that failed processing in the current or last batch job",
			nil,
			nil,
		),
		etaSecondsDesc: prometheus.NewDesc(
			"autotag_job_eta_seconds",
			"Estimated seconds remaining for the current batch job",
			nil,
			nil,
		),
		progressDesc: prometheus.NewDesc(
			"autotag_job_progress_percent",
			"Completion percentage of the current or last batch job",
			nil,
			nil,
		),
	}
}

func (c *JobCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobActiveDesc
	ch <- c.filesTotalDesc
	ch <- c.filesProcessedDesc
	ch <- c.filesSuccessDesc
	ch <- c.filesFailedDesc
	ch <- c.etaSecondsDesc
	ch <- c.progressDesc
}

func (c *JobCollector) Collect(ch chan<- prometheus.Metric) {
	status := c.tracker.Snapshot()

	active := 0.0
	if status.Active {
		active = 1.0
	}

	ch <- prometheus.MustNewConstMetric(c.jobActiveDesc, prometheus.GaugeValue, active)
	ch <- prometheus.MustNewConstMetric(c.filesTotalDesc, prometheus.GaugeValue, float64(status.TotalFiles))
	ch <- prometheus.MustNewConstMetric(c.filesProcessedDesc, prometheus.GaugeValue, float64(status.ProcessedFiles))
	ch <- prometheus.MustNewConstMetric(c.filesSuccessDesc, prometheus.GaugeValue, float64(status.SuccessfulFiles))
	ch <- prometheus.MustNewConstMetric(c.filesFailedDesc, prometheus.GaugeValue, float64(status.FailedFiles))
	ch <- prometheus.MustNewConstMetric(c.etaSecondsDesc, prometheus.GaugeValue, status.EtaSeconds)
	ch <- prometheus.MustNewConstMetric(c.progressDesc, prometheus.GaugeValue, status.ProgressPercent)
}
