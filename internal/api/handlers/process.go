// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/data-mint-research/autotag2/internal/images"
	"github.com/data-mint-research/autotag2/internal/models"
	"github.com/data-mint-research/autotag2/internal/services/batch"
)

// maxUploadBytes bounds in-memory multipart parsing.
const maxUploadBytes = 64 << 20

// ProcessHandler handles the image and folder processing endpoints.
type ProcessHandler struct {
	service *batch.Service
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(service *batch.Service) *ProcessHandler {
	return &ProcessHandler{service: service}
}

// ImageResponse is the single-image success payload.
type ImageResponse struct {
	Success        bool            `json:"success"`
	Filename       string          `json:"filename"`
	OutputPath     string          `json:"output_path"`
	Tags           []string        `json:"tags"`
	SaveMode       models.SaveMode `json:"save_mode"`
	ProcessingTime float64         `json:"processing_time"`
}

// ProcessImage handles POST /process/image: validate the multipart upload,
// run the tagging pipeline synchronously, and return the generated tags.
func (h *ProcessHandler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		RespondError(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	tagMode := models.TagMode(r.FormValue("tag_mode"))
	if tagMode == "" {
		tagMode = h.service.DefaultTagMode()
	}
	if !tagMode.Valid() {
		RespondError(w, http.StatusBadRequest, "Invalid tag_mode")
		return
	}

	saveMode := models.SaveMode(r.FormValue("save_mode"))
	if saveMode == "" {
		saveMode = models.SaveModeReplace
	}
	if !saveMode.Valid() {
		RespondError(w, http.StatusBadRequest, "Invalid save_mode")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	if err := images.Validate(data, header.Filename); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmp, err := os.CreateTemp("", "autotag_*"+filepath.Ext(header.Filename))
	if err != nil {
		log.Error().Err(err).Msg("process: failed to create temp file")
		RespondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", tmpPath).Msg("process: failed to delete temp file")
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.Error().Err(err).Msg("process: failed to write temp file")
		RespondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	tmp.Close()

	result, err := h.service.ProcessImage(r.Context(), tmpPath, tagMode, saveMode)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, ImageResponse{
		Success:        true,
		Filename:       header.Filename,
		OutputPath:     result.OutputPath,
		Tags:           result.Tags,
		SaveMode:       saveMode,
		ProcessingTime: result.Elapsed.Seconds(),
	})
}

// FolderRequest is the POST /process/folder body.
type FolderRequest struct {
	Path      string          `json:"path"`
	Recursive bool            `json:"recursive"`
	SaveMode  models.SaveMode `json:"save_mode"`
}

// FolderResponse acknowledges a started batch run.
type FolderResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	StatusEndpoint string `json:"status_endpoint"`
}

// ProcessFolder handles POST /process/folder: fire-and-forget start of a
// background batch over all images in the folder.
func (h *ProcessHandler) ProcessFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if req.Path == "" {
		RespondError(w, http.StatusBadRequest, "path is required")
		return
	}
	if req.SaveMode == "" {
		req.SaveMode = models.SaveModeReplace
	}
	if !req.SaveMode.Valid() {
		RespondError(w, http.StatusBadRequest, "Invalid save_mode")
		return
	}

	if err := h.service.StartBatch(req.Path, req.Recursive, req.SaveMode); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, FolderResponse{
		Success: true,
		Message: fmt.Sprintf("Started processing folder: %s (recursive: %t, save_mode: %s)",
			req.Path, req.Recursive, req.SaveMode),
		StatusEndpoint: "/status",
	})
}

// Status handles GET /status: a point-in-time snapshot of the current job.
func (h *ProcessHandler) Status(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.service.Tracker().Snapshot())
}
