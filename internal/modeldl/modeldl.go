// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package modeldl fetches the classifier model weights the sidecar needs.
// Each model lives in its own subdirectory under the models root and is
// verified against a pinned SHA-256 after download.
package modeldl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/data-mint-research/autotag2/internal/buildinfo"
)

type Model struct {
	Name     string
	Filename string
	URL      string
	Size     int64
	SHA256   string
}

// Catalog lists every model weight the classifier sidecar loads.
var Catalog = []Model{
	{
		Name:     "clip",
		Filename: "clip_vit_b32.pth",
		URL:      "https://github.com/openai/CLIP/releases/download/v1.0/clip_vit_b32.pth",
		Size:     354355280,
		SHA256:   "a4ccb0c288dd8c53e8ef99417d08e3731ecf29c9e39297a45f37c56e5366ca6e",
	},
	{
		Name:     "yolov8",
		Filename: "yolov8n.pt",
		URL:      "https://github.com/ultralytics/assets/releases/download/v0.0.0/yolov8n.pt",
		Size:     6246000,
		SHA256:   "6dbb68b8a5d19992f5a5e3b99d1ba466893dcf618bd5e8c0fe551705eb1f6315",
	},
	{
		Name:     "facenet",
		Filename: "facenet_model.pth",
		URL:      "https://github.com/timesler/facenet-pytorch/releases/download/v2.5.2/20180402-114759-vggface2.pt",
		Size:     89456789,
		SHA256:   "5e4c2578ffeff9e1dde7d0d10e025c4319b13e4d058577cf430c8df5cf613c45",
	},
}

// Path returns where a model's weight file lives under the models root.
func (m Model) Path(modelsDir string) string {
	return filepath.Join(modelsDir, m.Name, m.Filename)
}

// Downloader fetches and verifies model weights.
type Downloader struct {
	client *http.Client
}

func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{},
	}
}

// DownloadAll ensures every catalog model exists under modelsDir with a
// valid checksum. Models that already verify are skipped. A failure on one
// model does not stop the others; the first error is returned after all
// models have been attempted.
func (d *Downloader) DownloadAll(ctx context.Context, modelsDir string) error {
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return errors.Wrap(err, "could not create models directory")
	}

	var firstErr error
	for _, model := range Catalog {
		if err := d.Download(ctx, model, modelsDir); err != nil {
			log.Error().Err(err).Str("model", model.Name).Msg("Model download failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Download fetches a single model unless a verified copy already exists.
func (d *Downloader) Download(ctx context.Context, model Model, modelsDir string) error {
	dest := model.Path(modelsDir)

	if fi, err := os.Stat(dest); err == nil && fi.Size() == model.Size {
		if err := verifyChecksum(dest, model.SHA256); err == nil {
			log.Info().Str("model", model.Name).Msg("Model already exists and is valid")
			return nil
		}
		log.Warn().Str("model", model.Name).Msg("Existing model is invalid, re-downloading")
		if err := os.Remove(dest); err != nil {
			return errors.Wrapf(err, "could not remove invalid model %s", dest)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(err, "could not create model directory")
	}

	if err := d.fetch(ctx, model, dest); err != nil {
		// leave no partial file behind
		os.Remove(dest)
		return err
	}

	if err := verifyChecksum(dest, model.SHA256); err != nil {
		os.Remove(dest)
		return errors.Wrapf(err, "verification failed for model %s", model.Name)
	}

	log.Info().Str("model", model.Name).Msg("Model downloaded and verified")
	return nil
}

func (d *Downloader) fetch(ctx context.Context, model Model, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, model.URL, nil)
	if err != nil {
		return errors.Wrap(err, "could not build download request")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "could not download %s", model.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d downloading %s", resp.StatusCode, model.URL)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = model.Size
	}

	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", dest)
	}
	defer f.Close()

	bar := progressbar.DefaultBytes(total, model.Filename)
	if _, err := io.Copy(io.MultiWriter(f, bar), resp.Body); err != nil {
		return errors.Wrapf(err, "download of %s interrupted", model.Name)
	}

	return nil
}

func verifyChecksum(path string, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "could not open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrapf(err, "could not hash %s", path)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}

	return nil
}
