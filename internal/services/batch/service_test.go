// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/data-mint-research/autotag2/internal/models"
)

type stubClassifier struct {
	mu     sync.Mutex
	result models.ClassificationResult
	people models.PersonCategory
	calls  []string
}

func (s *stubClassifier) Analyze(_ context.Context, imagePath string) models.ClassificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, imagePath)
	return s.result
}

func (s *stubClassifier) CountPeople(_ context.Context, _ string) models.PersonCategory {
	return s.people
}

type stubWriter struct {
	mu      sync.Mutex
	failFor map[string]error
	written [][]string
}

func (w *stubWriter) WriteTags(_ context.Context, imagePath string, tags []string, _ models.TagMode, saveMode models.SaveMode) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err, ok := w.failFor[filepath.Base(imagePath)]; ok {
		return imagePath, err
	}
	w.written = append(w.written, tags)
	if saveMode == models.SaveModeSuffix {
		ext := filepath.Ext(imagePath)
		return imagePath[:len(imagePath)-len(ext)] + "_tagged" + ext, nil
	}
	return imagePath, nil
}

func newTestService(clf *stubClassifier, writer *stubWriter) *Service {
	return NewService(Config{DefaultTagMode: models.TagModeAppend}, clf, clf, writer)
}

func validPNG(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func waitForTerminalPhase(t *testing.T, tr *Tracker) models.JobStatus {
	t.Helper()

	require.Eventually(t, func() bool {
		phase := tr.Snapshot().Phase
		return phase == models.PhaseComplete || phase == models.PhaseError
	}, 5*time.Second, 5*time.Millisecond)
	return tr.Snapshot()
}

func TestProcessImage(t *testing.T) {
	t.Parallel()

	clf := &stubClassifier{
		result: models.ClassificationResult{
			models.AspectScene: {Label: "indoor", Confidence: 0.9},
		},
		people: models.PersonSolo,
	}
	writer := &stubWriter{}
	svc := newTestService(clf, writer)

	res, err := svc.ProcessImage(context.Background(), "/photos/a.jpg", models.TagModeAppend, models.SaveModeReplace)
	require.NoError(t, err)

	assert.Equal(t, []string{"scene/indoor", "people/solo"}, res.Tags)
	assert.Equal(t, "/photos/a.jpg", res.OutputPath)
	assert.GreaterOrEqual(t, res.Elapsed, time.Duration(0))
}

func TestProcessImage_NoClassificationsStillWrites(t *testing.T) {
	t.Parallel()

	// classifiers degraded to nothing and people absent: empty tag list
	clf := &stubClassifier{result: models.ClassificationResult{}, people: ""}
	writer := &stubWriter{}
	svc := newTestService(clf, writer)

	res, err := svc.ProcessImage(context.Background(), "/photos/a.jpg", models.TagModeAppend, models.SaveModeReplace)
	require.NoError(t, err)
	assert.Empty(t, res.Tags)
	assert.Equal(t, "/photos/a.jpg", res.OutputPath)
}

func TestProcessImage_WriterFailure(t *testing.T) {
	t.Parallel()

	clf := &stubClassifier{result: models.ClassificationResult{}, people: models.PersonNone}
	writer := &stubWriter{failFor: map[string]error{"a.jpg": errors.New("exiftool exited with code 1")}}
	svc := newTestService(clf, writer)

	_, err := svc.ProcessImage(context.Background(), "/photos/a.jpg", models.TagModeAppend, models.SaveModeReplace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write tags")
}

func TestStartBatch_FolderNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubClassifier{}, &stubWriter{})

	err := svc.StartBatch(filepath.Join(t.TempDir(), "missing"), false, models.SaveModeReplace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Folder not found")
}

func TestStartBatch_NotADirectory(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "f.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	svc := newTestService(&stubClassifier{}, &stubWriter{})
	err := svc.StartBatch(file, false, models.SaveModeReplace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestBatch_MixedFolder(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.jpg"), validPNG(t), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "b.txt"), []byte("not an image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "c.png"), []byte("corrupt png"), 0o644))

	clf := &stubClassifier{
		result: models.ClassificationResult{models.AspectScene: {Label: "indoor"}},
		people: models.PersonNone,
	}
	writer := &stubWriter{}
	svc := newTestService(clf, writer)

	require.NoError(t, svc.StartBatch(folder, false, models.SaveModeReplace))
	s := waitForTerminalPhase(t, svc.Tracker())

	assert.Equal(t, models.PhaseComplete, s.Phase)
	assert.False(t, s.Active)
	// b.txt is never scanned; c.png fails validation but does not abort the run
	assert.Equal(t, 2, s.TotalFiles)
	assert.Equal(t, 2, s.ProcessedFiles)
	assert.Equal(t, 1, s.SuccessfulFiles)
	assert.Equal(t, 1, s.FailedFiles)

	require.Len(t, s.Errors, 1)
	assert.Equal(t, "c.png", s.Errors[0].File)

	require.Len(t, s.OutputFiles, 1)
	assert.Equal(t, filepath.Join(folder, "a.jpg"), s.OutputFiles[0])
}

func TestBatch_EmptyFolderCompletes(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubClassifier{}, &stubWriter{})

	require.NoError(t, svc.StartBatch(t.TempDir(), true, models.SaveModeReplace))
	s := waitForTerminalPhase(t, svc.Tracker())

	assert.Equal(t, models.PhaseComplete, s.Phase)
	assert.Zero(t, s.TotalFiles)
	assert.Zero(t, s.ProcessedFiles)

	require.NotEmpty(t, s.RecentStatus)
	assert.Equal(t, "no images found", s.RecentStatus[len(s.RecentStatus)-1].Message)
}

func TestBatch_SuffixModeRecordsTaggedOutputs(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.png"), validPNG(t), 0o644))

	clf := &stubClassifier{
		result: models.ClassificationResult{models.AspectScene: {Label: "outdoor"}},
		people: models.PersonSolo,
	}
	svc := newTestService(clf, &stubWriter{})

	require.NoError(t, svc.StartBatch(folder, false, models.SaveModeSuffix))
	s := waitForTerminalPhase(t, svc.Tracker())

	assert.Equal(t, models.SaveModeSuffix, s.SaveMode)
	require.Len(t, s.OutputFiles, 1)
	assert.Equal(t, filepath.Join(folder, "a_tagged.png"), s.OutputFiles[0])
}

func TestBatch_RecursiveFindsNestedImages(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(folder, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.png"), validPNG(t), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "sub", "b.png"), validPNG(t), 0o644))

	clf := &stubClassifier{result: models.ClassificationResult{}, people: models.PersonNone}
	svc := newTestService(clf, &stubWriter{})

	require.NoError(t, svc.StartBatch(folder, true, models.SaveModeReplace))
	s := waitForTerminalPhase(t, svc.Tracker())

	assert.Equal(t, 2, s.TotalFiles)
	assert.Equal(t, 2, s.SuccessfulFiles)
}

func TestBatch_TerminalSummaryMessage(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.png"), validPNG(t), 0o644))

	clf := &stubClassifier{result: models.ClassificationResult{}, people: models.PersonNone}
	svc := newTestService(clf, &stubWriter{})

	require.NoError(t, svc.StartBatch(folder, false, models.SaveModeReplace))
	s := waitForTerminalPhase(t, svc.Tracker())

	require.NotEmpty(t, s.RecentStatus)
	assert.Equal(t, "completed: 1/1 successful", s.RecentStatus[len(s.RecentStatus)-1].Message)
}
