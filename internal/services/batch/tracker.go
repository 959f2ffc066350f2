// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/data-mint-research/autotag2/internal/models"
)

// recentStatusCap bounds the rolling message history; the oldest entry is
// dropped when the ring is full. Errors are kept unbounded.
const recentStatusCap = 10

// Tracker is the per-process job status record. There is exactly one,
// owned by the batch Service; it is mutated only by the active batch worker
// and read by pollers as immutable snapshots. Every access goes through one
// mutex, held only for the field mutation or the snapshot copy.
type Tracker struct {
	mu sync.Mutex

	phase       models.Phase
	currentPath string
	saveMode    models.SaveMode

	totalFiles      int
	processedFiles  int
	successfulFiles int
	failedFiles     int

	currentFile string
	startTime   time.Time
	etaSeconds  float64

	outputFiles  []string
	recentStatus []models.StatusMessage
	errors       []models.StatusMessage

	timedFiles    int
	totalDuration time.Duration
	fastest       models.ImageTiming
	slowest       models.ImageTiming
}

// NewTracker creates a Tracker with idle defaults.
func NewTracker() *Tracker {
	return &Tracker{
		phase:    models.PhaseIdle,
		saveMode: models.SaveModeReplace,
	}
}

// Start resets every field for a new job.
func (t *Tracker) Start(path string, saveMode models.SaveMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.phase = models.PhaseIdle
	t.currentPath = path
	t.saveMode = saveMode
	t.totalFiles = 0
	t.processedFiles = 0
	t.successfulFiles = 0
	t.failedFiles = 0
	t.currentFile = ""
	t.startTime = time.Now()
	t.etaSeconds = 0
	t.outputFiles = nil
	t.recentStatus = nil
	t.errors = nil
	t.timedFiles = 0
	t.totalDuration = 0
	t.fastest = models.ImageTiming{}
	t.slowest = models.ImageTiming{}
}

// SetPhase transitions the job to phase. A non-empty message is appended to
// the rolling status history.
func (t *Tracker) SetPhase(phase models.Phase, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.phase = phase
	if phase == models.PhaseComplete || phase == models.PhaseError {
		t.currentFile = ""
	}
	if message != "" {
		t.appendRecentLocked(models.StatusMessage{
			Time:    unixSeconds(time.Now()),
			Message: message,
		})
	}
}

// SetTotal fixes the file count discovered by the scan. It is set once, at
// the end of the scanning phase.
func (t *Tracker) SetTotal(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalFiles = total
}

// SetCurrent records the file the worker is about to process.
func (t *Tracker) SetCurrent(index, total int, filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalFiles = total
	t.currentFile = filename
	if index > 0 && total > 0 {
		t.appendRecentLocked(models.StatusMessage{
			Time:    unixSeconds(time.Now()),
			File:    filename,
			Message: fmt.Sprintf("processing %d/%d", index, total),
		})
	}
}

// MarkProcessed counts one finished file. The processed counter always
// equals successful+failed at every observable point because all three are
// updated under the same lock acquisition.
func (t *Tracker) MarkProcessed(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processedFiles++
	if success {
		t.successfulFiles++
	} else {
		t.failedFiles++
	}
}

// AddOutput records a path that was actually written.
func (t *Tracker) AddOutput(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outputFiles = append(t.outputFiles, path)
}

// AppendMessage appends to the rolling status history (capacity 10, oldest
// dropped).
func (t *Tracker) AppendMessage(file, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendRecentLocked(models.StatusMessage{
		Time:    unixSeconds(time.Now()),
		File:    file,
		Message: text,
	})
}

// AppendError appends to the unbounded error history.
func (t *Tracker) AppendError(file, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, models.StatusMessage{
		Time:    unixSeconds(time.Now()),
		File:    file,
		Message: text,
	})
}

// RecordTiming folds one file's duration into the rolling stats and
// recomputes the ETA as running-average * remaining files.
func (t *Tracker) RecordTiming(file string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.timedFiles++
	t.totalDuration += duration

	secs := duration.Seconds()
	if t.fastest.File == "" || secs < t.fastest.Time {
		t.fastest = models.ImageTiming{File: file, Time: secs}
	}
	if t.slowest.File == "" || secs > t.slowest.Time {
		t.slowest = models.ImageTiming{File: file, Time: secs}
	}

	avg := t.totalDuration.Seconds() / float64(t.timedFiles)
	remaining := t.totalFiles - t.processedFiles
	if remaining < 0 {
		remaining = 0
	}
	t.etaSeconds = avg * float64(remaining)
}

// Snapshot returns an immutable copy of the job status. Derived fields
// (progress percent, formatted ETA and runtime) are computed at read time
// from the raw numeric fields and never stored.
func (t *Tracker) Snapshot() models.JobStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := models.JobStatus{
		Active:          t.phase == models.PhaseScanning || t.phase == models.PhaseProcessing,
		Phase:           t.phase,
		CurrentPath:     t.currentPath,
		TotalFiles:      t.totalFiles,
		ProcessedFiles:  t.processedFiles,
		SuccessfulFiles: t.successfulFiles,
		FailedFiles:     t.failedFiles,
		CurrentFile:     t.currentFile,
		EtaSeconds:      t.etaSeconds,
		SaveMode:        t.saveMode,
		OutputFiles:     append([]string(nil), t.outputFiles...),
		RecentStatus:    append([]models.StatusMessage(nil), t.recentStatus...),
		Errors:          append([]models.StatusMessage(nil), t.errors...),
		Stats: models.JobStats{
			FastestImage: t.fastest,
			SlowestImage: t.slowest,
		},
	}

	if !t.startTime.IsZero() {
		s.StartTime = unixSeconds(t.startTime)
		s.RuntimeFormatted = formatSeconds(time.Since(t.startTime).Seconds())
	}
	if t.timedFiles > 0 {
		s.Stats.AvgTimePerImage = t.totalDuration.Seconds() / float64(t.timedFiles)
	}
	if t.totalFiles > 0 {
		s.ProgressPercent = float64(t.processedFiles) / float64(t.totalFiles) * 100
	}
	s.EtaFormatted = formatSeconds(t.etaSeconds)

	if s.OutputFiles == nil {
		s.OutputFiles = []string{}
	}
	if s.RecentStatus == nil {
		s.RecentStatus = []models.StatusMessage{}
	}
	if s.Errors == nil {
		s.Errors = []models.StatusMessage{}
	}

	return s
}

func (t *Tracker) appendRecentLocked(msg models.StatusMessage) {
	t.recentStatus = append(t.recentStatus, msg)
	if len(t.recentStatus) > recentStatusCap {
		t.recentStatus = t.recentStatus[len(t.recentStatus)-recentStatusCap:]
	}
}

func unixSeconds(ts time.Time) float64 {
	return float64(ts.UnixNano()) / float64(time.Second)
}

// formatSeconds renders a duration in the short human form used by the
// status endpoint, e.g. "45s", "2m 5s", "1h 3m".
func formatSeconds(secs float64) string {
	if secs < 0 {
		secs = 0
	}
	total := int(secs + 0.5)

	switch {
	case total < 60:
		return fmt.Sprintf("%ds", total)
	case total < 3600:
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	default:
		return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
	}
}
