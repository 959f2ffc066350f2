// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import "time"

// TagMode defines how new tags combine with tags already present in the
// image metadata.
type TagMode string

const (
	// TagModeAppend adds tags to the existing tag list.
	TagModeAppend TagMode = "append"
	// TagModeOverwrite replaces the existing tag list.
	TagModeOverwrite TagMode = "overwrite"
)

// Valid reports whether m is a known tag mode.
func (m TagMode) Valid() bool {
	return m == TagModeAppend || m == TagModeOverwrite
}

// SaveMode defines whether tagging mutates the original file or a suffixed
// sibling copy.
type SaveMode string

const (
	// SaveModeReplace writes tags into the original file in place.
	SaveModeReplace SaveMode = "replace"
	// SaveModeSuffix copies the file to <stem>_tagged<ext> and tags the copy.
	SaveModeSuffix SaveMode = "suffix"
)

// Valid reports whether m is a known save mode.
func (m SaveMode) Valid() bool {
	return m == SaveModeReplace || m == SaveModeSuffix
}

// Phase is the coarse lifecycle state of a batch job.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseScanning   Phase = "scanning"
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

// PersonCategory is the coarse person-count category produced by the person
// detector. An empty value means the detector produced no category at all;
// PersonNone is a real category and still yields a people tag.
type PersonCategory string

const (
	PersonNone  PersonCategory = "none"
	PersonSolo  PersonCategory = "solo"
	PersonGroup PersonCategory = "group"
)

// Aspect names produced by the scene classifier.
const (
	AspectScene    = "scene"
	AspectRoomType = "roomtype"
	AspectClothing = "clothing"
)

// AspectScore is one labeled aspect with its confidence in [0,1].
type AspectScore struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult maps aspect names (scene, roomtype, clothing) to the
// winning label. Any subset of aspects may be absent; an empty map is the
// degraded "classifier unavailable" result.
type ClassificationResult map[string]AspectScore

// ProcessingOutcome describes what happened to one image.
type ProcessingOutcome struct {
	Success bool          `json:"success"`
	Tags    []string      `json:"tags,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"-"`
}

// StatusMessage is one entry in the job's message or error history.
type StatusMessage struct {
	Time    float64 `json:"time"`
	File    string  `json:"file"`
	Message string  `json:"message"`
}

// ImageTiming names the fastest or slowest image of a run.
type ImageTiming struct {
	File string  `json:"file"`
	Time float64 `json:"time"`
}

// JobStats holds rolling per-file timing statistics.
type JobStats struct {
	AvgTimePerImage float64     `json:"avg_time_per_image"`
	FastestImage    ImageTiming `json:"fastest_image"`
	SlowestImage    ImageTiming `json:"slowest_image"`
}

// JobStatus is a point-in-time snapshot of the current (or most recent)
// batch job. Field names follow the wire format polled by clients.
type JobStatus struct {
	Active           bool            `json:"active"`
	Phase            Phase           `json:"phase"`
	CurrentPath      string          `json:"current_path"`
	TotalFiles       int             `json:"total_files"`
	ProcessedFiles   int             `json:"processed_files"`
	SuccessfulFiles  int             `json:"successful_files"`
	FailedFiles      int             `json:"failed_files"`
	StartTime        float64         `json:"start_time"`
	CurrentFile      string          `json:"current_file"`
	EtaSeconds       float64         `json:"eta_seconds"`
	EtaFormatted     string          `json:"eta_formatted"`
	RuntimeFormatted string          `json:"runtime_formatted"`
	ProgressPercent  float64         `json:"progress_percent"`
	SaveMode         SaveMode        `json:"save_mode"`
	OutputFiles      []string        `json:"output_files"`
	RecentStatus     []StatusMessage `json:"recent_status"`
	Errors           []StatusMessage `json:"errors"`
	Stats            JobStats        `json:"stats"`
}
