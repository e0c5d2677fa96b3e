// Package config builds the process configuration once at startup from the
// environment, an optional .env file, and SSM Parameter Store. Nothing else
// in the module reads environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultLoRAURL is the trained character LoRA.
const DefaultLoRAURL = "https://v3b.fal.media/files/b/0a900b43/al92Go_LjKAQZXGu3Osoa_pytorch_lora_weights.safetensors"

const (
	defaultStackAPIURL    = "https://api.stack-auth.com"
	defaultPreviewTimeout = 6 * time.Minute
	defaultListenAddr     = ":8080"
	defaultTattooChance   = 0.3
)

var (
	// ErrMissingFal means no fal.ai key is configured.
	ErrMissingFal = errors.New("FAL_API_KEY not set")
	// ErrMissingComposio means the gateway key or entity is not configured.
	ErrMissingComposio = errors.New("COMPOSIO_API_KEY and COMPOSIO_ENTITY_ID required")
)

// Caption strategies.
const (
	CaptionTable  = "table"
	CaptionGemini = "gemini"
)

// Config is the complete runtime configuration.
type Config struct {
	FalAPIKey   string
	FalQueueURL string
	LoRAURL     string

	ComposioAPIKey             string
	ComposioEntityID           string
	ComposioConnectedAccountID string
	ComposioBaseURL            string
	InstagramUserID            string

	CronSecret string

	StackProjectID       string
	StackSecretServerKey string
	StackAPIURL          string

	CaptionStrategy string
	CaptionTones    []string
	GeminiAPIKey    string
	GeminiModel     string

	TattooStyle  string
	TattooChance float64

	MirrorBucket   string
	ImagePreflight bool

	PreviewTimeout     time.Duration
	PublishRatePerHour int
	CORSOrigins        []string
	ListenAddr         string
	Schedule           string

	SSMPrefix string
}

// Load reads .env from the working directory when present, then the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }
	orDefault := func(key, def string) string {
		if v := get(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		FalAPIKey:   get("FAL_API_KEY"),
		FalQueueURL: get("FAL_QUEUE_URL"),
		LoRAURL:     orDefault("LORA_URL", DefaultLoRAURL),

		ComposioAPIKey:             get("COMPOSIO_API_KEY"),
		ComposioEntityID:           get("COMPOSIO_ENTITY_ID"),
		ComposioConnectedAccountID: get("COMPOSIO_CONNECTED_ACCOUNT_ID"),
		ComposioBaseURL:            get("COMPOSIO_BASE_URL"),
		InstagramUserID:            get("INSTAGRAM_IG_USER_ID"),

		CronSecret: get("CRON_SECRET"),

		StackProjectID:       get("STACK_PROJECT_ID"),
		StackSecretServerKey: get("STACK_SECRET_SERVER_KEY"),
		StackAPIURL:          orDefault("STACK_API_URL", defaultStackAPIURL),

		CaptionStrategy: strings.ToLower(orDefault("CAPTION_STRATEGY", CaptionTable)),
		CaptionTones:    splitList(get("CAPTION_TONES")),
		GeminiAPIKey:    get("GEMINI_API_KEY"),
		GeminiModel:     get("GEMINI_MODEL"),

		TattooStyle: get("TATTOO_STYLE"),

		MirrorBucket: get("MIRROR_BUCKET"),

		CORSOrigins: splitList(get("CORS_ORIGINS")),
		ListenAddr:  orDefault("LISTEN_ADDR", defaultListenAddr),
		Schedule:    get("POST_SCHEDULE"),

		SSMPrefix: strings.TrimRight(orDefault("SSM_PARAM_PREFIX", defaultSSMPrefix), "/"),
	}

	var err error
	if cfg.TattooChance, err = parseFloat(get("TATTOO_CHANCE"), defaultTattooChance); err != nil {
		return nil, fmt.Errorf("TATTOO_CHANCE: %w", err)
	}
	if cfg.TattooChance < 0 || cfg.TattooChance > 1 {
		return nil, fmt.Errorf("TATTOO_CHANCE must be between 0 and 1, got %v", cfg.TattooChance)
	}
	if cfg.ImagePreflight, err = parseBool(get("IMAGE_PREFLIGHT"), false); err != nil {
		return nil, fmt.Errorf("IMAGE_PREFLIGHT: %w", err)
	}
	if cfg.PreviewTimeout, err = parseDuration(get("PREVIEW_TIMEOUT"), defaultPreviewTimeout); err != nil {
		return nil, fmt.Errorf("PREVIEW_TIMEOUT: %w", err)
	}
	if cfg.PublishRatePerHour, err = parseInt(get("PUBLISH_RATE_PER_HOUR"), 0); err != nil {
		return nil, fmt.Errorf("PUBLISH_RATE_PER_HOUR: %w", err)
	}

	switch cfg.CaptionStrategy {
	case CaptionTable, CaptionGemini:
	default:
		return nil, fmt.Errorf("CAPTION_STRATEGY must be %q or %q, got %q", CaptionTable, CaptionGemini, cfg.CaptionStrategy)
	}

	return cfg, nil
}

// RequireFal reports ErrMissingFal when generation is not configured.
func (c *Config) RequireFal() error {
	if c.FalAPIKey == "" {
		return ErrMissingFal
	}
	return nil
}

// RequireComposio reports ErrMissingComposio when publishing is not configured.
func (c *Config) RequireComposio() error {
	if c.ComposioAPIKey == "" || c.ComposioEntityID == "" {
		return ErrMissingComposio
	}
	return nil
}

// SessionAuthConfigured reports whether Stack Auth can verify sessions.
func (c *Config) SessionAuthConfigured() bool {
	return c.StackProjectID != "" && c.StackSecretServerKey != ""
}

// UseGeminiCaptions reports whether the Gemini caption writer is enabled
// and has a key.
func (c *Config) UseGeminiCaptions() bool {
	return c.CaptionStrategy == CaptionGemini && c.GeminiAPIKey != ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFloat(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func parseBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
