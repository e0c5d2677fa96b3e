package poster

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/fal"
	"github.com/fpang/lora-autoposter/internal/metrics"
)

// ErrDirectUnavailable means the service was built without a legacy runner.
var ErrDirectUnavailable = errors.New("direct generation is not configured")

// DirectRequest is a caller-written prompt for the direct generation path.
type DirectRequest struct {
	Prompt    string
	LoRAURL   string
	APIKey    string
	ImageSize fal.ImageSize
	Async     bool
}

// DirectResult is either a queued job (Async) or a finished image.
type DirectResult struct {
	Async     bool
	RequestID string
	PollURL   string
	ImageURL  string
	Seed      *int64
	LoRAUsed  string
}

// GenerateDirect submits a caller prompt on the slower legacy cadence.
// Empty LoRAURL and APIKey fall back to the configured values. In async
// mode it returns as soon as the job is queued.
func (s *Service) GenerateDirect(ctx context.Context, req DirectRequest) (*DirectResult, error) {
	if s.legacy == nil {
		return nil, ErrDirectUnavailable
	}
	loraURL := orDefault(strings.TrimSpace(req.LoRAURL), s.settings.LoRAURL)
	apiKey := orDefault(strings.TrimSpace(req.APIKey), s.settings.FalAPIKey)

	log.Info().
		Str("lora", Preview(loraURL, 80)).
		Str("prompt", Preview(req.Prompt, 100)).
		Bool("async", req.Async).
		Msg("Direct generation requested")

	falReq := fal.Request{Prompt: req.Prompt, LoRAURL: loraURL, APIKey: apiKey, ImageSize: req.ImageSize}
	job, err := s.legacy.Submit(ctx, falReq)
	if err != nil {
		return nil, err
	}
	metrics.New(metrics.Namespace).
		Dimension("Trigger", "direct").
		Count(metrics.GenerationSubmitted).
		Property("requestId", job.ID).
		Flush()
	if req.Async {
		return &DirectResult{
			Async:     true,
			RequestID: job.ID,
			PollURL:   s.legacy.StatusURL(job.ID),
			LoRAUsed:  loraURL,
		}, nil
	}

	res, err := s.legacy.Await(ctx, job, apiKey)
	if err != nil {
		return nil, err
	}
	return &DirectResult{
		RequestID: res.RequestID,
		ImageURL:  res.ImageURL,
		Seed:      res.Seed,
		LoRAUsed:  loraURL,
	}, nil
}
