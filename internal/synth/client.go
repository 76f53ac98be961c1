// Package synth implements the HTTP client for the remote text-to-speech
// endpoint. One POST with a JSON body per request; the response body is the
// synthesized audio payload.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tdfn00b/tts-extra/internal/config"
)

// Common errors for synthesis requests.
var (
	// ErrEmptyText is returned when a request carries no text.
	ErrEmptyText = errors.New("cannot synthesize empty text")
	// ErrRequestFailed is returned when the endpoint answers with a
	// non-success status.
	ErrRequestFailed = errors.New("synthesis request failed")
)

// DefaultTimeout bounds a single synthesis request.
const DefaultTimeout = 120 * time.Second

// Request is the JSON body sent to the synthesis endpoint.
type Request struct {
	Text              string  `json:"text"`
	VoiceMode         string  `json:"voice_mode"`
	PredefinedVoiceID string  `json:"predefined_voice_id"`
	OutputFormat      string  `json:"output_format"`
	SplitText         bool    `json:"split_text"`
	ChunkSize         int     `json:"chunk_size"`
	Temperature       float64 `json:"temperature"`
	Exaggeration      float64 `json:"exaggeration"`
	CFGWeight         float64 `json:"cfg_weight"`
	Seed              int64   `json:"seed"`
	SpeedFactor       float64 `json:"speed_factor"`
	Language          string  `json:"language"`
}

// NewRequest builds the request body for a sanitized text and its resolved
// synthesis settings. The output format is always WAV.
func NewRequest(text string, syn config.Synthesis) Request {
	return Request{
		Text:              text,
		VoiceMode:         syn.VoiceMode,
		PredefinedVoiceID: syn.VoiceID,
		OutputFormat:      "wav",
		SplitText:         syn.SplitText,
		ChunkSize:         syn.ChunkSize,
		Temperature:       syn.Temperature,
		Exaggeration:      syn.Exaggeration,
		CFGWeight:         syn.CFGWeight,
		Seed:              syn.Seed,
		SpeedFactor:       syn.Speed,
		Language:          syn.Language,
	}
}

// StatusError reports a non-success HTTP status from the endpoint.
type StatusError struct {
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("synthesis request failed with status %d", e.Code)
}

// Unwrap returns ErrRequestFailed so callers can match with errors.Is.
func (e *StatusError) Unwrap() error {
	return ErrRequestFailed
}

// Client issues synthesis requests against a configured endpoint.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a synthesis client. A zero timeout selects
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Synthesize sends one synthesis request and returns the raw audio payload.
// The request is scoped to ctx; cancelling the context aborts the request.
// A single attempt is made per call, retries are the caller's concern.
func (c *Client) Synthesize(ctx context.Context, text string, syn config.Synthesis) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	body, err := json.Marshal(NewRequest(text, syn))
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, syn.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Tunnel intermediaries answer browser-looking requests with a warning
	// page instead of proxying; this header opts out.
	req.Header.Set("ngrok-skip-browser-warning", "true")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	log.Debug("Synthesis completed",
		"textLength", len(text),
		"audioBytes", len(audio),
		"duration", time.Since(start))

	return audio, nil
}
