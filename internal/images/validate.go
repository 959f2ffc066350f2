// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package images validates uploaded image payloads before they enter the
// tagging pipeline.
package images

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	// Register decoders for every supported format. Decoding is the
	// validation: a truncated or corrupt payload must fail here, not later
	// inside exiftool or the classifiers.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// supportedExtensions is the image extension allow-list shared by the
// validator and the folder scanner.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tiff": {},
	".tif":  {},
	".webp": {},
}

// supportedFormats maps the format names reported by image.Decode.
var supportedFormats = map[string]struct{}{
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"bmp":  {},
	"tiff": {},
	"webp": {},
}

// HasSupportedExtension reports whether the filename carries an extension
// from the allow-list. The comparison is case-insensitive.
func HasSupportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := supportedExtensions[ext]
	return ok
}

// Validate checks that data is a fully decodable image in a supported
// format. The filename extension is checked first; an unsupported or missing
// extension fails without attempting a decode. The returned error carries a
// human-readable reason suitable for an API response.
func Validate(data []byte, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file %q has no extension", filename)
	}
	if _, ok := supportedExtensions[ext]; !ok {
		return fmt.Errorf("unsupported image format %q", ext)
	}

	if len(data) == 0 {
		return fmt.Errorf("file %q is empty", filename)
	}

	// Full decode, not just a header parse, so truncated payloads with an
	// intact header still fail validation.
	format, err := decode(data)
	if err != nil {
		return fmt.Errorf("invalid or corrupt image data: %v", err)
	}
	if _, ok := supportedFormats[format]; !ok {
		return fmt.Errorf("decoded format %q is not supported", format)
	}

	return nil
}

// decode runs the actual image decode, converting any decoder panic into an
// error so nothing escapes the validation boundary.
func decode(data []byte) (format string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	_, format, err = image.Decode(bytes.NewReader(data))
	return format, err
}
