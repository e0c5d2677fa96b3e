package poster

import (
	"unicode/utf8"

	"github.com/fpang/lora-autoposter/internal/fal"
	"github.com/fpang/lora-autoposter/internal/instagram"
)

// Generation statuses reported alongside the remote queue statuses.
const (
	GenerationCompleted = "completed"
	GenerationSkipped   = "skipped"
)

// Instagram statuses.
const (
	InstagramPublished = "published"
	InstagramFailed    = "failed"
	InstagramSkipped   = "skipped"
)

const (
	promptPreviewLength  = 120
	captionPreviewLength = 200
	// Failed cycles echo a shorter caption.
	captionFailureLength = 100
)

// GenerationReport describes the image phase of a cycle.
type GenerationReport struct {
	Status        string `json:"status"`
	RequestID     string `json:"request_id,omitempty"`
	Seed          *int64 `json:"seed,omitempty"`
	ImageURL      string `json:"image_url"`
	ImageWidth    *int   `json:"image_width,omitempty"`
	ImageHeight   *int   `json:"image_height,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	PromptPreview string `json:"prompt_preview,omitempty"`
	ThemeUsed     string `json:"theme_used"`
	ShotType      string `json:"shot_type"`
}

// InstagramReport describes the publish phase. Absent values encode as null.
type InstagramReport struct {
	Status    string  `json:"status"`
	Permalink *string `json:"permalink"`
	MediaID   *string `json:"media_id"`
	Error     *string `json:"error"`
}

// NewInstagramReport converts a publish result.
func NewInstagramReport(r *instagram.Result) *InstagramReport {
	status := InstagramFailed
	if r.Success {
		status = InstagramPublished
	}
	return &InstagramReport{
		Status:    status,
		Permalink: optional(r.Permalink),
		MediaID:   optional(r.MediaID),
		Error:     optional(r.Error),
	}
}

func skippedInstagram(reason string) *InstagramReport {
	return &InstagramReport{Status: InstagramSkipped, Error: optional(reason)}
}

func generatedReport(res *fal.Result, prompt, theme, shotType string) *GenerationReport {
	return &GenerationReport{
		Status:        GenerationCompleted,
		RequestID:     res.RequestID,
		Seed:          res.Seed,
		ImageURL:      res.ImageURL,
		ImageWidth:    res.Width,
		ImageHeight:   res.Height,
		ContentType:   res.ContentType,
		PromptPreview: Preview(prompt, promptPreviewLength),
		ThemeUsed:     theme,
		ShotType:      shotType,
	}
}

// CycleReport is the combined outcome of one generate-and-publish cycle.
type CycleReport struct {
	RunID       string            `json:"run_id"`
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	Generation  *GenerationReport `json:"generation"`
	Instagram   *InstagramReport  `json:"instagram"`
	CaptionUsed string            `json:"caption_used,omitempty"`
}

// Preview returns the first n characters of s, with "..." appended when
// anything was cut.
func Preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
