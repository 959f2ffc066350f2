// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/data-mint-research/autotag2/internal/models"
)

func TestDefaultTagMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mode string
		want models.TagMode
	}{
		{name: "append", mode: "append", want: models.TagModeAppend},
		{name: "overwrite", mode: "overwrite", want: models.TagModeOverwrite},
		{name: "empty falls back to append", mode: "", want: models.TagModeAppend},
		{name: "garbage falls back to append", mode: "merge", want: models.TagModeAppend},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{Tagging: TaggingConfig{Mode: tt.mode}}
			assert.Equal(t, tt.want, cfg.DefaultTagMode())
		})
	}
}

func TestExiftoolTimeout(t *testing.T) {
	t.Parallel()

	cfg := &Config{Tagging: TaggingConfig{ExiftoolTimeoutSeconds: 10}}
	assert.Equal(t, 10*time.Second, cfg.ExiftoolTimeout())

	cfg = &Config{}
	assert.Equal(t, 30*time.Second, cfg.ExiftoolTimeout())

	cfg = &Config{Tagging: TaggingConfig{ExiftoolTimeoutSeconds: -5}}
	assert.Equal(t, 30*time.Second, cfg.ExiftoolTimeout())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := &Config{Port: 8000}
	require.NoError(t, valid.Validate())

	badPort := &Config{Port: 0}
	require.Error(t, badPort.Validate())

	badPortHigh := &Config{Port: 70000}
	require.Error(t, badPortHigh.Validate())

	badMode := &Config{Port: 8000, Tagging: TaggingConfig{Mode: "merge"}}
	err := badMode.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tagging.mode")
}
