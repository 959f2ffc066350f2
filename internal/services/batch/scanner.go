// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/data-mint-research/autotag2/internal/images"
)

// FindImages enumerates image files under root, filtered by the shared
// extension allow-list. Non-recursive mode lists immediate directory entries
// only; recursive mode walks the full subtree. The returned paths are
// absolute, in filesystem traversal order; callers must not rely on a
// specific ordering.
func FindImages(root string, recursive bool) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve folder path: %w", err)
	}

	if recursive {
		return walkImages(root)
	}
	return listImages(root)
}

func listImages(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", root, err)
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if images.HasSupportedExtension(entry.Name()) {
			found = append(found, filepath.Join(root, entry.Name()))
		}
	}
	return found, nil
}

func walkImages(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return fmt.Errorf("walk entry %s: %w", path, walkErr)
		}
		if d.IsDir() {
			return nil
		}
		if images.HasSupportedExtension(d.Name()) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}
	return found, nil
}
