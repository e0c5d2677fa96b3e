// Package poster sequences scene building, captioning, image generation, and
// publishing into the preview, confirm, and full-cycle operations.
package poster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/caption"
	"github.com/fpang/lora-autoposter/internal/fal"
	"github.com/fpang/lora-autoposter/internal/instagram"
	"github.com/fpang/lora-autoposter/internal/metrics"
	"github.com/fpang/lora-autoposter/internal/prompt"
)

// DefaultPreviewTimeout bounds the whole preview call chain.
const DefaultPreviewTimeout = 6 * time.Minute

// ErrInvalidImageURL means a cycle ended up without an absolute http(s) image.
var ErrInvalidImageURL = errors.New("Invalid image URL")

// Generator runs one image generation. *fal.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req fal.Request) (*fal.Result, error)
}

// JobRunner exposes the submit and await halves separately.
// *fal.Client satisfies it.
type JobRunner interface {
	Submit(ctx context.Context, req fal.Request) (*fal.Job, error)
	Await(ctx context.Context, job *fal.Job, apiKey string) (*fal.Result, error)
	StatusURL(requestID string) string
}

// Publisher publishes one image. *instagram.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, req instagram.Request) (*instagram.Result, error)
}

// SceneBuilder builds a prompt from options. *prompt.Builder satisfies it.
type SceneBuilder interface {
	Build(opts prompt.Options) prompt.Scene
}

// Settings are the values the service passes to its collaborators.
type Settings struct {
	FalAPIKey          string
	LoRAURL            string
	InstagramUserID    string
	ConnectedAccountID string
	PreviewTimeout     time.Duration
	ImageSize          fal.ImageSize
}

// Service runs poster operations. It holds no per-call state and is safe
// for concurrent use.
type Service struct {
	generator Generator
	legacy    JobRunner
	publisher Publisher
	scenes    SceneBuilder
	captions  caption.Writer
	settings  Settings
}

// NewService wires the collaborators. legacy may be nil when the direct
// generation path is not served.
func NewService(settings Settings, generator Generator, legacy JobRunner, publisher Publisher, scenes SceneBuilder, captions caption.Writer) *Service {
	if settings.PreviewTimeout <= 0 {
		settings.PreviewTimeout = DefaultPreviewTimeout
	}
	if settings.ImageSize == "" {
		settings.ImageSize = fal.SizeSquare
	}
	return &Service{
		generator: generator,
		legacy:    legacy,
		publisher: publisher,
		scenes:    scenes,
		captions:  captions,
		settings:  settings,
	}
}

// PreviewResult is a generated image awaiting human review.
type PreviewResult struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
	Theme    string `json:"theme"`
	ShotType string `json:"shot_type"`
}

// Preview generates a fully random scene and caption without publishing.
// The whole call is bounded by the preview timeout as well as the
// generator's own poll ceiling.
func (s *Service) Preview(ctx context.Context) (*PreviewResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.PreviewTimeout)
	defer cancel()

	scene := s.scenes.Build(prompt.Options{})
	c, err := s.captions.Write(ctx, scene.Theme, scene.ShotType)
	if err != nil {
		return nil, fmt.Errorf("write caption: %w", err)
	}

	res, err := s.generate(ctx, scene.Prompt, "preview")
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("theme", scene.Theme).
		Str("shotType", scene.ShotType).
		Str("requestId", res.RequestID).
		Msg("Preview generated")
	return &PreviewResult{
		ImageURL: res.ImageURL,
		Caption:  c.Text,
		Theme:    scene.Theme,
		ShotType: scene.ShotType,
	}, nil
}

// PublishPreview publishes an already reviewed image with its caption.
func (s *Service) PublishPreview(ctx context.Context, imageURL, captionText string) (*instagram.Result, error) {
	return s.publish(ctx, imageURL, captionText, "preview")
}

// CycleInput carries the optional overrides for one cycle.
type CycleInput struct {
	// Trigger labels the caller in logs and metrics ("publish", "cron", "cli").
	Trigger string
	// Options pins scene fields; empty fields are random.
	Options prompt.Options
	// Caption replaces the generated caption when non-empty.
	Caption string
	// ImageURL skips generation when it is an absolute http(s) URL. A value
	// that starts with "http" but does not parse as one fails the cycle.
	ImageURL string
}

// RunCycle generates (unless an image is supplied) and publishes one post.
// The report is always returned. A non-nil error means a phase failed with
// an error rather than a remote rejection; the report still carries
// whatever phase detail exists.
func (s *Service) RunCycle(ctx context.Context, in CycleInput) (*CycleReport, error) {
	start := time.Now()
	report := &CycleReport{RunID: uuid.NewString()}
	logger := log.With().Str("runId", report.RunID).Str("trigger", in.Trigger).Logger()

	err := s.runCycle(ctx, in, report)
	report.Success = err == nil && report.Instagram != nil && report.Instagram.Status == InstagramPublished

	rec := metrics.New(metrics.Namespace).Dimension("Trigger", orUnknown(in.Trigger)).Property("runId", report.RunID)
	if report.Success {
		rec.Count(metrics.CycleSucceeded)
		logger.Info().Dur("duration", time.Since(start)).Msg("Cycle published")
	} else {
		rec.Count(metrics.CycleFailed)
		logger.Error().Err(err).Str("error", report.Error).Dur("duration", time.Since(start)).Msg("Cycle failed")
	}
	rec.Duration("CycleLatencyMs", time.Since(start)).Flush()

	return report, err
}

func (s *Service) runCycle(ctx context.Context, in CycleInput, report *CycleReport) error {
	scene := s.scenes.Build(in.Options)

	captionText := strings.TrimSpace(in.Caption)
	if captionText == "" {
		c, err := s.captions.Write(ctx, scene.Theme, scene.ShotType)
		if err != nil {
			report.Error = err.Error()
			return fmt.Errorf("write caption: %w", err)
		}
		captionText = c.Text
	}
	log.Debug().
		Str("theme", scene.Theme).
		Str("shotType", scene.ShotType).
		Str("caption", Preview(captionText, 60)).
		Msg("Cycle scene ready")

	imageURL := strings.TrimSpace(in.ImageURL)
	switch {
	case strings.HasPrefix(imageURL, "http") && !fal.IsAbsoluteHTTP(imageURL):
		report.Error = ErrInvalidImageURL.Error()
		report.Instagram = skippedInstagram(ErrInvalidImageURL.Error())
		return ErrInvalidImageURL
	case fal.IsAbsoluteHTTP(imageURL):
		report.Generation = &GenerationReport{
			Status:    GenerationSkipped,
			ImageURL:  imageURL,
			ThemeUsed: scene.Theme,
			ShotType:  scene.ShotType,
		}
		log.Info().Msg("Using provided image URL, generation skipped")
	default:
		res, err := s.generate(ctx, scene.Prompt, orUnknown(in.Trigger))
		if err != nil {
			report.Error = err.Error()
			return err
		}
		imageURL = res.ImageURL
		report.Generation = generatedReport(res, scene.Prompt, scene.Theme, scene.ShotType)
	}

	if !fal.IsAbsoluteHTTP(imageURL) {
		report.Error = ErrInvalidImageURL.Error()
		report.Instagram = skippedInstagram("No image URL")
		return ErrInvalidImageURL
	}

	result, err := s.publish(ctx, imageURL, captionText, orUnknown(in.Trigger))
	if err != nil {
		report.Error = err.Error()
		return err
	}
	report.Instagram = NewInstagramReport(result)
	if !result.Success {
		report.Error = orDefault(result.Error, "Instagram post failed")
		report.CaptionUsed = Preview(captionText, captionFailureLength)
		return nil
	}
	report.CaptionUsed = Preview(captionText, captionPreviewLength)
	return nil
}

func (s *Service) generate(ctx context.Context, promptText, trigger string) (*fal.Result, error) {
	start := time.Now()
	res, err := s.generator.Generate(ctx, fal.Request{
		Prompt:    promptText,
		LoRAURL:   s.settings.LoRAURL,
		APIKey:    s.settings.FalAPIKey,
		ImageSize: s.settings.ImageSize,
	})

	rec := metrics.New(metrics.Namespace).
		Dimension("Trigger", trigger).
		Duration(metrics.GenerationLatencyMs, time.Since(start))
	if err != nil {
		kind, _ := fal.KindOf(err)
		rec.Count(metrics.GenerationFailed).Property("kind", string(kind)).Flush()
		return nil, err
	}
	rec.Count(metrics.GenerationSucceeded).
		Metric(metrics.GenerationPolls, float64(res.PollAttempts), metrics.UnitCount).
		Property("requestId", res.RequestID).
		Flush()
	return res, nil
}

func (s *Service) publish(ctx context.Context, imageURL, captionText, trigger string) (*instagram.Result, error) {
	start := time.Now()
	req := instagram.NewRequest(imageURL, captionText, s.settings.InstagramUserID, s.settings.ConnectedAccountID)
	result, err := s.publisher.Publish(ctx, req)

	rec := metrics.New(metrics.Namespace).
		Dimension("Trigger", trigger).
		Duration(metrics.PublishLatencyMs, time.Since(start))
	switch {
	case err != nil:
		rec.Count(metrics.PublishFailed).Property("error", err.Error()).Flush()
		return nil, err
	case !result.Success:
		rec.Count(metrics.PublishFailed).
			Metric(metrics.PublishAttempts, float64(result.Attempts), metrics.UnitCount).
			Property("error", result.Error).
			Flush()
		log.Warn().Str("error", result.Error).Str("mediaId", result.MediaID).Msg("Instagram publish failed")
	default:
		rec.Count(metrics.PublishSucceeded).
			Metric(metrics.PublishAttempts, float64(result.Attempts), metrics.UnitCount).
			Property("mediaId", result.MediaID).
			Flush()
		log.Info().Str("mediaId", result.MediaID).Str("permalink", result.Permalink).Msg("Instagram published")
	}
	return result, nil
}

func orUnknown(s string) string {
	return orDefault(s, "unknown")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
