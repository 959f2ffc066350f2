// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package exiftool

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/data-mint-research/autotag2/internal/models"
	"github.com/data-mint-research/autotag2/pkg/fsutil"
)

// suffix appended to the file stem when SaveMode is suffix.
const taggedSuffix = "_tagged"

// Writer persists tag lists into image metadata via the exiftool binary.
type Writer struct {
	bin     string
	timeout time.Duration
}

// NewWriter creates a Writer invoking bin with the given per-invocation
// timeout. An empty bin falls back to "exiftool" on PATH; a non-positive
// timeout falls back to 30s.
func NewWriter(bin string, timeout time.Duration) *Writer {
	if bin == "" {
		bin = "exiftool"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Writer{bin: bin, timeout: timeout}
}

// WriteTags writes tags into imagePath's metadata and returns the path that
// actually carries the tags.
//
// An empty tag list succeeds trivially with the original path and no
// external call. Under SaveMode=suffix the source is first copied to
// <stem>_tagged<ext> and the copy is tagged. On any failure (copy error,
// non-zero exit, timeout, exec error) the ORIGINAL path is returned with the
// error; under suffix mode an already-created copy is deliberately left on
// disk in that case, matching the behavior clients of the original service
// depend on.
func (w *Writer) WriteTags(ctx context.Context, imagePath string, tags []string, tagMode models.TagMode, saveMode models.SaveMode) (string, error) {
	if len(tags) == 0 {
		log.Debug().Str("image", imagePath).Msg("exiftool: no tags to write")
		return imagePath, nil
	}

	target := imagePath
	if saveMode == models.SaveModeSuffix {
		target = SuffixPath(imagePath)
		if err := fsutil.CopyFile(imagePath, target); err != nil {
			return imagePath, fmt.Errorf("copy for suffix output: %w", err)
		}
	}

	args := BuildArgs(tags, tagMode, target)
	res := runCommand(ctx, w.bin, args, w.timeout)

	switch {
	case res.TimedOut:
		return imagePath, fmt.Errorf("exiftool timed out after %s", w.timeout)
	case res.Err != nil && !res.Started:
		return imagePath, fmt.Errorf("start exiftool: %w", res.Err)
	case res.Err != nil || res.ExitCode != 0:
		stderr := strings.TrimSpace(res.Stderr)
		if stderr == "" {
			stderr = "no output"
		}
		return imagePath, fmt.Errorf("exiftool exited with code %d: %s", res.ExitCode, stderr)
	}

	log.Debug().
		Str("target", target).
		Int("tags", len(tags)).
		Dur("duration", res.Duration).
		Msg("exiftool: tags written")
	return target, nil
}

// SuffixPath returns the sibling path used for SaveMode=suffix output.
func SuffixPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	stem := strings.TrimSuffix(imagePath, ext)
	return stem + taggedSuffix + ext
}
