// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tagging turns classifier output into ordered keyword tags.
package tagging

import (
	"github.com/data-mint-research/autotag2/internal/models"
)

// aspectOrder fixes the emission order of classifier aspects. The output
// order is part of the contract; downstream golden tests depend on it.
var aspectOrder = []string{
	models.AspectScene,
	models.AspectRoomType,
	models.AspectClothing,
}

// Synthesize produces "category/value" tags from a classification result and
// a person-count category. Aspects absent from the result are omitted; the
// people tag is emitted whenever the counter produced a category, including
// "none". Confidence values are carried by the classifier but intentionally
// not thresholded here.
func Synthesize(result models.ClassificationResult, people models.PersonCategory) []string {
	tags := make([]string, 0, len(aspectOrder)+1)

	for _, aspect := range aspectOrder {
		if score, ok := result[aspect]; ok && score.Label != "" {
			tags = append(tags, aspect+"/"+score.Label)
		}
	}

	if people != "" {
		tags = append(tags, "people/"+string(people))
	}

	return tags
}
