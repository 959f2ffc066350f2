// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package classifier defines the capability interfaces for the external AI
// models and an HTTP client for the inference sidecar that hosts them.
package classifier

import (
	"context"

	"github.com/data-mint-research/autotag2/internal/models"
)

// Classifier labels scene, room type and clothing aspects of an image.
//
// Implementations must degrade gracefully: on any internal failure they
// return an empty (or partial) result and never an error, so a broken model
// shows up as missing tags rather than a failed file.
type Classifier interface {
	Analyze(ctx context.Context, imagePath string) models.ClassificationResult
}

// PeopleCounter categorizes the number of people visible in an image.
//
// Same degradation contract as Classifier: any failure yields PersonNone.
type PeopleCounter interface {
	CountPeople(ctx context.Context, imagePath string) models.PersonCategory
}
