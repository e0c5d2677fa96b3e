// Package imagecheck probes a remote image before it is handed to the
// publishing platform: reachable, a supported format, and an aspect ratio
// Instagram accepts for feed photos.
package imagecheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// Feed photo aspect ratio bounds (width / height).
const (
	MinAspectRatio = 4.0 / 5.0
	MaxAspectRatio = 1.91
)

const (
	defaultTimeout = 20 * time.Second
	headerBytes    = 256 * 1024
	// MaxImageBytes caps full downloads.
	MaxImageBytes = 8 * 1024 * 1024
)

var (
	// ErrUnsupportedFormat means the bytes are not JPEG, PNG, or WebP.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrAspectRatio means the image would be rejected for its shape.
	ErrAspectRatio = errors.New("aspect ratio outside 4:5 to 1.91:1")
)

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Info describes a decoded image header.
type Info struct {
	ContentType string
	Width       int
	Height      int
}

// AspectRatio is width / height.
func (i Info) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}

// Inspect sniffs the content type of data and decodes its dimensions.
func Inspect(data []byte) (*Info, error) {
	contentType := http.DetectContentType(data)
	if !supportedTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", contentType, err)
	}
	return &Info{ContentType: contentType, Width: cfg.Width, Height: cfg.Height}, nil
}

// Validate checks info against the feed aspect ratio bounds.
func Validate(info *Info) error {
	ratio := info.AspectRatio()
	// Small tolerance so 1080x1350 style sizes with rounding still pass.
	if ratio < MinAspectRatio-0.005 || ratio > MaxAspectRatio+0.005 {
		return fmt.Errorf("%w: %dx%d", ErrAspectRatio, info.Width, info.Height)
	}
	return nil
}

// Checker fetches images over HTTP.
type Checker struct {
	httpClient *http.Client
}

// NewChecker creates a Checker with a bounded timeout.
func NewChecker() *Checker {
	return &Checker{httpClient: &http.Client{Timeout: defaultTimeout}}
}

// Check fetches the head of imageURL and validates it.
func (c *Checker) Check(ctx context.Context, imageURL string) error {
	data, err := c.get(ctx, imageURL, headerBytes)
	if err != nil {
		return err
	}
	info, err := Inspect(data)
	if err != nil {
		return err
	}
	if err := Validate(info); err != nil {
		return err
	}
	log.Debug().
		Str("url", imageURL).
		Str("contentType", info.ContentType).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("Image preflight passed")
	return nil
}

// Fetch downloads the whole image, up to MaxImageBytes, and inspects it.
func (c *Checker) Fetch(ctx context.Context, imageURL string) ([]byte, *Info, error) {
	data, err := c.get(ctx, imageURL, MaxImageBytes+1)
	if err != nil {
		return nil, nil, err
	}
	if len(data) > MaxImageBytes {
		return nil, nil, fmt.Errorf("image larger than %d bytes", MaxImageBytes)
	}
	info, err := Inspect(data)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

func (c *Checker) get(ctx context.Context, imageURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
