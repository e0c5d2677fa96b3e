// Package fal is a client for the fal.ai queue API running the flux-lora
// text-to-image model.
//
// A generation is a three-step exchange:
//  1. Submit the prompt and LoRA reference, receiving a request id
//  2. Poll the request status at a fixed cadence until it is terminal
//  3. Fetch the result payload and normalize the first image URL
//
// No state is kept between calls. Every failure is a *GenerationError and
// is terminal for the call; callers decide whether to run the cycle again.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultQueueURL is the flux-lora queue endpoint. Status and result
	// URLs are derived from it.
	DefaultQueueURL = "https://queue.fal.run/fal-ai/flux-lora"

	// Model is reported back to callers of the direct generation path.
	Model = "fal-ai/flux-lora"

	// defaultTimeout bounds each individual HTTP exchange, not the whole job.
	defaultTimeout = 30 * time.Second
)

// ImageSize is the aspect requested from the model.
type ImageSize string

const (
	SizeSquare    ImageSize = "square"
	SizeLandscape ImageSize = "landscape"
	SizePortrait  ImageSize = "portrait"
)

// ParseImageSize maps user input to an ImageSize. Empty input is square.
func ParseImageSize(s string) (ImageSize, error) {
	switch ImageSize(strings.ToLower(strings.TrimSpace(s))) {
	case "", SizeSquare:
		return SizeSquare, nil
	case SizeLandscape:
		return SizeLandscape, nil
	case SizePortrait:
		return SizePortrait, nil
	}
	return "", fmt.Errorf("unsupported image size %q (want square, landscape or portrait)", s)
}

// Cadence is the poll interval and attempt ceiling for one job.
type Cadence struct {
	Interval    time.Duration
	MaxAttempts int
}

var (
	// InteractiveCadence gives up after three minutes.
	InteractiveCadence = Cadence{Interval: 2 * time.Second, MaxAttempts: 90}
	// LegacyCadence gives up after five minutes.
	LegacyCadence = Cadence{Interval: 5 * time.Second, MaxAttempts: 60}
)

// Ceiling is the longest Await can poll before timing out.
func (c Cadence) Ceiling() time.Duration {
	return c.Interval * time.Duration(c.MaxAttempts)
}

// Request is one generation submission. It is not modified after Submit.
type Request struct {
	Prompt    string
	LoRAURL   string
	APIKey    string
	ImageSize ImageSize
}

// Phase is the lifecycle position of a Job.
type Phase string

const (
	PhaseSubmitted Phase = "submitted"
	PhasePolling   Phase = "polling"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
	PhaseTimedOut  Phase = "timed_out"
)

// Job tracks a submitted request while it is awaited.
type Job struct {
	ID          string
	Phase       Phase
	PollAttempt int
}

// Result is the completed generation.
type Result struct {
	ImageURL     string
	RequestID    string
	Seed         *int64
	Width        *int
	Height       *int
	ContentType  string
	PollAttempts int
}

// Client talks to the fal queue API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cadence    Cadence
}

// NewClient creates a queue client. An empty baseURL uses DefaultQueueURL.
func NewClient(baseURL string, cadence Cadence) *Client {
	if baseURL == "" {
		baseURL = DefaultQueueURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cadence:    cadence,
	}
}

// Cadence returns the poll cadence this client was built with.
func (c *Client) Cadence() Cadence {
	return c.cadence
}

// --- API payloads ---

type loraRef struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

type submitBody struct {
	Prompt              string    `json:"prompt"`
	LoRAs               []loraRef `json:"loras"`
	ImageSize           ImageSize `json:"image_size"`
	NumImages           int       `json:"num_images"`
	EnableSafetyChecker bool      `json:"enable_safety_checker"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type image struct {
	URL         string `json:"url"`
	Width       *int   `json:"width,omitempty"`
	Height      *int   `json:"height,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type output struct {
	Images []image `json:"images"`
	Seed   *int64  `json:"seed,omitempty"`
}

// resultResponse accepts both the enveloped and the flat payload.
type resultResponse struct {
	Response *output `json:"response,omitempty"`
	output
}

// --- Operations ---

// Generate submits req and waits for its result at the client's cadence.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	job, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.Await(ctx, job, req.APIKey)
}

// Submit enqueues req and returns the job handle.
func (c *Client) Submit(ctx context.Context, req Request) (*Job, error) {
	if req.ImageSize == "" {
		req.ImageSize = SizeSquare
	}
	payload, err := json.Marshal(submitBody{
		Prompt:              req.Prompt,
		LoRAs:               []loraRef{{Path: req.LoRAURL, Scale: 1}},
		ImageSize:           req.ImageSize,
		NumImages:           1,
		EnableSafetyChecker: true,
	})
	if err != nil {
		return nil, &GenerationError{Kind: SubmissionFailed, Message: "encode submission", Err: err}
	}

	log.Debug().Str("imageSize", string(req.ImageSize)).Int("promptLength", len(req.Prompt)).Msg("Submitting fal generation")
	status, body, err := c.do(ctx, http.MethodPost, c.baseURL, req.APIKey, payload)
	if err != nil {
		return nil, &GenerationError{Kind: SubmissionFailed, Message: "Fal AI submission failed", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &GenerationError{Kind: SubmissionFailed, Message: "Fal AI submission failed", StatusCode: status, Body: truncate(string(body), 500)}
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, &GenerationError{Kind: SubmissionFailed, Message: "malformed submission response", Err: err}
	}
	if sr.RequestID == "" {
		return nil, &GenerationError{Kind: SubmissionFailed, Message: "No request_id returned from Fal AI"}
	}

	log.Info().Str("requestId", sr.RequestID).Msg("Fal generation submitted")
	return &Job{ID: sr.RequestID, Phase: PhaseSubmitted}, nil
}

// Await polls job until it reaches a terminal status, the attempt ceiling is
// hit, or ctx is done. A ctx deadline is reported as Timeout and a ctx
// cancellation as PollFailed.
func (c *Client) Await(ctx context.Context, job *Job, apiKey string) (*Result, error) {
	statusURL := c.StatusURL(job.ID)

	for attempt := 1; attempt <= c.cadence.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, c.contextError(job, ctx.Err())
		case <-time.After(c.cadence.Interval):
		}

		job.Phase = PhasePolling
		job.PollAttempt = attempt

		status, body, err := c.do(ctx, http.MethodGet, statusURL, apiKey, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, c.contextError(job, ctx.Err())
			}
			return nil, &GenerationError{Kind: PollFailed, RequestID: job.ID, Message: "Status check failed", Err: err}
		}
		if status < 200 || status >= 300 {
			return nil, &GenerationError{Kind: PollFailed, RequestID: job.ID, Message: "Status check failed", StatusCode: status, Body: truncate(string(body), 200)}
		}

		var sr statusResponse
		if err := json.Unmarshal(body, &sr); err != nil {
			return nil, &GenerationError{Kind: PollFailed, RequestID: job.ID, Message: "malformed status response", Err: err}
		}

		switch sr.Status {
		case "COMPLETED":
			result, err := c.fetchResult(ctx, job, apiKey)
			if err != nil {
				job.Phase = PhaseFailed
				return nil, err
			}
			job.Phase = PhaseCompleted
			result.PollAttempts = attempt
			log.Info().Str("requestId", job.ID).Int("pollAttempt", attempt).Msg("Fal generation completed")
			return result, nil
		case "FAILED":
			job.Phase = PhaseFailed
			return nil, &GenerationError{Kind: RemoteFailed, RequestID: job.ID, Message: "Image generation failed"}
		case "CANCELLED":
			job.Phase = PhaseCancelled
			return nil, &GenerationError{Kind: RemoteCancelled, RequestID: job.ID, Message: "Image generation cancelled"}
		default:
			log.Debug().Str("requestId", job.ID).Str("status", sr.Status).Int("attempt", attempt).Msg("Fal generation in progress")
		}
	}

	job.Phase = PhaseTimedOut
	return nil, &GenerationError{
		Kind:      Timeout,
		RequestID: job.ID,
		Message:   fmt.Sprintf("Image generation timed out after %d attempts (%s)", c.cadence.MaxAttempts, c.cadence.Ceiling()),
	}
}

// StatusURL is the queue endpoint reporting requestID's status.
func (c *Client) StatusURL(requestID string) string {
	return fmt.Sprintf("%s/requests/%s/status", c.baseURL, requestID)
}

func (c *Client) fetchResult(ctx context.Context, job *Job, apiKey string) (*Result, error) {
	resultURL := fmt.Sprintf("%s/requests/%s", c.baseURL, job.ID)
	status, body, err := c.do(ctx, http.MethodGet, resultURL, apiKey, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.contextError(job, ctx.Err())
		}
		return nil, &GenerationError{Kind: PollFailed, RequestID: job.ID, Message: "Result fetch failed", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &GenerationError{Kind: PollFailed, RequestID: job.ID, Message: "Result fetch failed", StatusCode: status, Body: truncate(string(body), 200)}
	}

	var rr resultResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, &GenerationError{Kind: PollFailed, RequestID: job.ID, Message: "malformed result response", Err: err}
	}
	out := rr.output
	if rr.Response != nil {
		out = *rr.Response
	}
	if len(out.Images) == 0 {
		return nil, &GenerationError{Kind: EmptyResult, RequestID: job.ID, Message: "No images in result"}
	}

	img := out.Images[0]
	imageURL := NormalizeImageURL(img.URL)
	if !IsAbsoluteHTTP(imageURL) {
		return nil, &GenerationError{Kind: EmptyResult, RequestID: job.ID, Message: fmt.Sprintf("result image URL is not absolute: %q", truncate(img.URL, 100))}
	}

	return &Result{
		ImageURL:    imageURL,
		RequestID:   job.ID,
		Seed:        out.Seed,
		Width:       img.Width,
		Height:      img.Height,
		ContentType: img.ContentType,
	}, nil
}

func (c *Client) contextError(job *Job, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		job.Phase = PhaseTimedOut
		return &GenerationError{Kind: Timeout, RequestID: job.ID, Message: "Image generation deadline exceeded", Err: err}
	}
	return &GenerationError{Kind: PollFailed, RequestID: job.ID, Message: "Image generation aborted", Err: err}
}

// --- Internal helpers ---

// do sends one authenticated request and reads the whole body.
func (c *Client) do(ctx context.Context, method, endpoint, apiKey string, payload []byte) (int, []byte, error) {
	startTime := time.Now()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Str("method", method).Dur("duration", duration).Err(err).Msg("Fal API response")
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Trace().Str("method", method).Int("statusCode", resp.StatusCode).Dur("duration", duration).Msg("Fal API response")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// truncate returns the first n runes of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
