// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package batch drives the image tagging pipeline: synchronously for one
// uploaded image, or as a single background worker over a whole folder with
// pollable progress.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/data-mint-research/autotag2/internal/classifier"
	"github.com/data-mint-research/autotag2/internal/images"
	"github.com/data-mint-research/autotag2/internal/models"
	"github.com/data-mint-research/autotag2/internal/tagging"
)

// MetadataWriter persists a tag list into a file and returns the path that
// carries the tags. On failure the original path is returned with the error.
type MetadataWriter interface {
	WriteTags(ctx context.Context, imagePath string, tags []string, tagMode models.TagMode, saveMode models.SaveMode) (string, error)
}

// Config holds orchestrator configuration.
type Config struct {
	// DefaultTagMode is used for batch runs and for requests that omit a
	// tag mode.
	DefaultTagMode models.TagMode
}

// Service sequences validation, classification, tag synthesis and metadata
// writing. It owns the process-wide job Tracker and runs at most one
// background batch worker; starting a second batch while one is active
// overwrites the shared status in place (documented limitation, not
// prevented).
type Service struct {
	cfg     Config
	tracker *Tracker
	clf     classifier.Classifier
	counter classifier.PeopleCounter
	writer  MetadataWriter

	// The classifiers hold model weights resident in memory and must not
	// be invoked concurrently; this serializes the single-image path and
	// the batch worker.
	clfSem *semaphore.Weighted
}

// NewService creates the orchestrator with its collaborators injected.
func NewService(cfg Config, clf classifier.Classifier, counter classifier.PeopleCounter, writer MetadataWriter) *Service {
	if !cfg.DefaultTagMode.Valid() {
		cfg.DefaultTagMode = models.TagModeAppend
	}

	return &Service{
		cfg:     cfg,
		tracker: NewTracker(),
		clf:     clf,
		counter: counter,
		writer:  writer,
		clfSem:  semaphore.NewWeighted(1),
	}
}

// Tracker exposes the job status record for the HTTP layer and metrics.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// DefaultTagMode returns the configured fallback tag mode.
func (s *Service) DefaultTagMode() models.TagMode {
	return s.cfg.DefaultTagMode
}

// ImageResult is the outcome of a successful single-image run.
type ImageResult struct {
	Tags       []string
	OutputPath string
	Elapsed    time.Duration
}

// ProcessImage runs the classification and write pipeline for one image
// path, synchronously in the caller's context. The caller is expected to
// have validated the image bytes already.
func (s *Service) ProcessImage(ctx context.Context, imagePath string, tagMode models.TagMode, saveMode models.SaveMode) (*ImageResult, error) {
	start := time.Now()

	if err := s.clfSem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire classifiers: %w", err)
	}
	result := s.clf.Analyze(ctx, imagePath)
	people := s.counter.CountPeople(ctx, imagePath)
	s.clfSem.Release(1)

	tags := tagging.Synthesize(result, people)

	outputPath, err := s.writer.WriteTags(ctx, imagePath, tags, tagMode, saveMode)
	if err != nil {
		return nil, fmt.Errorf("write tags: %w", err)
	}

	return &ImageResult{
		Tags:       tags,
		OutputPath: outputPath,
		Elapsed:    time.Since(start),
	}, nil
}

// StartBatch validates the folder and launches the background batch worker.
// The returned error only reports whether the job was started; per-file
// failures are absorbed into the job status.
func (s *Service) StartBatch(folder string, recursive bool, saveMode models.SaveMode) error {
	info, err := os.Stat(folder)
	if err != nil {
		// capitalized: the text is wire format, surfaced verbatim by the API
		return fmt.Errorf("Folder not found: %s", folder)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", folder)
	}
	if !saveMode.Valid() {
		saveMode = models.SaveModeReplace
	}

	// Background parent so the run survives the HTTP request that started it.
	go s.executeBatch(context.Background(), folder, recursive, saveMode)
	return nil
}

// executeBatch runs one batch job to a terminal phase. Per-file failures
// never abort the loop; only an orchestrator-level fault (scan error, panic
// in the control loop) flips the phase to error and halts early, leaving
// partial results queryable.
func (s *Service) executeBatch(ctx context.Context, folder string, recursive bool, saveMode models.SaveMode) {
	l := log.With().Str("folder", folder).Bool("recursive", recursive).Logger()

	defer func() {
		if r := recover(); r != nil {
			l.Error().Any("panic", r).Msg("batch: aborted by unexpected error")
			s.tracker.SetPhase(models.PhaseError, fmt.Sprintf("batch aborted: %v", r))
		}
	}()

	s.tracker.Start(folder, saveMode)
	s.tracker.SetPhase(models.PhaseScanning, "scanning "+folder)
	l.Info().Msg("batch: scanning folder")

	files, err := FindImages(folder, recursive)
	if err != nil {
		l.Error().Err(err).Msg("batch: scan failed")
		s.tracker.SetPhase(models.PhaseError, fmt.Sprintf("scan failed: %v", err))
		return
	}

	s.tracker.SetTotal(len(files))
	if len(files) == 0 {
		l.Warn().Msg("batch: no images found")
		s.tracker.SetPhase(models.PhaseComplete, "no images found")
		return
	}

	s.tracker.SetPhase(models.PhaseProcessing, fmt.Sprintf("processing %d images", len(files)))
	l.Info().Int("files", len(files)).Msg("batch: processing")

	for i, file := range files {
		base := filepath.Base(file)
		s.tracker.SetCurrent(i+1, len(files), base)

		start := time.Now()
		result, err := s.processFile(ctx, file, saveMode)
		elapsed := time.Since(start)

		if err != nil {
			s.tracker.MarkProcessed(false)
			s.tracker.AppendError(base, err.Error())
			s.tracker.AppendMessage(base, fmt.Sprintf("failed after %.2fs: %v", elapsed.Seconds(), err))
			l.Warn().Err(err).Str("file", base).Msg("batch: file failed")
		} else {
			s.tracker.MarkProcessed(true)
			s.tracker.AddOutput(result.OutputPath)
			s.tracker.AppendMessage(base, fmt.Sprintf("tagged with %d tags in %.2fs", len(result.Tags), elapsed.Seconds()))
		}

		s.tracker.RecordTiming(base, elapsed)
	}

	snap := s.tracker.Snapshot()
	s.tracker.SetPhase(models.PhaseComplete, fmt.Sprintf("completed: %d/%d successful", snap.SuccessfulFiles, snap.TotalFiles))
	l.Info().
		Int("successful", snap.SuccessfulFiles).
		Int("failed", snap.FailedFiles).
		Msg("batch: completed")
}

// processFile handles one file inside the batch loop: validation,
// classification, synthesis and write. All errors are returned to the loop
// and absorbed there.
func (s *Service) processFile(ctx context.Context, file string, saveMode models.SaveMode) (*ImageResult, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := images.Validate(data, file); err != nil {
		return nil, err
	}

	return s.ProcessImage(ctx, file, s.cfg.DefaultTagMode, saveMode)
}
