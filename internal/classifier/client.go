// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/data-mint-research/autotag2/internal/models"
)

// Client talks to the inference sidecar that keeps the model weights
// resident. It implements both Classifier and PeopleCounter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a sidecar client. timeoutSeconds <= 0 falls back to 30s.
func NewClient(baseURL string, timeoutSeconds int) *Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}
	c.httpClient = &http.Client{Timeout: c.timeout}

	return c
}

type analyzeRequest struct {
	Path string `json:"path"`
}

type analyzeResponse struct {
	Aspects map[string]models.AspectScore `json:"aspects"`
}

type countPeopleResponse struct {
	Category models.PersonCategory `json:"category"`
}

// Analyze labels the image's scene, roomtype and clothing aspects. Any
// transport or decode failure degrades to an empty result.
func (c *Client) Analyze(ctx context.Context, imagePath string) models.ClassificationResult {
	var resp analyzeResponse
	if err := c.post(ctx, "/analyze", analyzeRequest{Path: imagePath}, &resp); err != nil {
		log.Warn().Err(err).Str("image", imagePath).Msg("classifier: analyze degraded to empty result")
		return models.ClassificationResult{}
	}

	result := make(models.ClassificationResult, len(resp.Aspects))
	for aspect, score := range resp.Aspects {
		switch aspect {
		case models.AspectScene, models.AspectRoomType, models.AspectClothing:
			result[aspect] = score
		default:
			// Unknown aspects from newer sidecar versions are dropped.
		}
	}
	return result
}

// CountPeople returns the person-count category for the image. Any failure
// or unknown category degrades to PersonNone.
func (c *Client) CountPeople(ctx context.Context, imagePath string) models.PersonCategory {
	var resp countPeopleResponse
	if err := c.post(ctx, "/count_people", analyzeRequest{Path: imagePath}, &resp); err != nil {
		log.Warn().Err(err).Str("image", imagePath).Msg("classifier: count_people degraded to none")
		return models.PersonNone
	}

	switch resp.Category {
	case models.PersonNone, models.PersonSolo, models.PersonGroup:
		return resp.Category
	default:
		log.Warn().Str("category", string(resp.Category)).Msg("classifier: unknown person category")
		return models.PersonNone
	}
}

func (c *Client) post(ctx context.Context, endpoint string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
