// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package exiftool

import (
	"strings"

	"github.com/data-mint-research/autotag2/internal/models"
)

// tagsListField is the digiKam hierarchical tag field understood by photo
// management applications.
const tagsListField = "-XMP-digiKam:TagsList"

// BuildArgs builds the exiftool argument vector for one tag write: a single
// field assignment (replacing for overwrite, additive for append), the
// in-place overwrite flag, and the target path. exiftool is always invoked
// directly with this argv, never through a shell.
func BuildArgs(tags []string, mode models.TagMode, targetPath string) []string {
	op := "+="
	if mode == models.TagModeOverwrite {
		op = "="
	}

	return []string{
		tagsListField + op + strings.Join(tags, ","),
		"-overwrite_original",
		targetPath,
	}
}
