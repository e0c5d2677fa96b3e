package caption

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/lora-autoposter/internal/jsonutil"
	"github.com/fpang/lora-autoposter/internal/pick"
)

// DefaultModel is used when no GEMINI_MODEL is configured.
const DefaultModel = "gemini-2.5-flash"

const (
	geminiTemperature = float32(0.9)
	geminiTimeout     = 45 * time.Second
)

const systemPrompt = `You write Instagram captions for a young founder's lifestyle account.
Voice: short, punchy, positive. Mix founder energy with dry wit or a reflective line.
Every caption has:
- a one-line hook in the requested tone
- one business brainstorm or idea prompt that invites the reader to think
- one engagement line (question or call to action) for the comments
Never mention AI, image generation, or that the photo is synthetic.
Reply with JSON only: {"hook": "...", "brainstorm": "...", "engagement": "...", "hashtags": ["tag", ...]}
Hashtags are lowercase words without the # sign, at most 30.`

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiReply struct {
	Hook       string   `json:"hook"`
	Brainstorm string   `json:"brainstorm"`
	Engagement string   `json:"engagement"`
	Hashtags   []string `json:"hashtags"`
}

// GeminiWriter asks Gemini for caption text and falls back to a
// TableWriter on any failure.
type GeminiWriter struct {
	models   contentGenerator
	model    string
	fallback *TableWriter
	src      pick.Source
}

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiWriter wraps client. An empty model uses DefaultModel.
func NewGeminiWriter(client *genai.Client, model string, fallback *TableWriter) *GeminiWriter {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiWriter{models: client.Models, model: model, fallback: fallback, src: fallback.src}
}

// Write returns a Gemini caption, or the fallback writer's caption when the
// call or its JSON fails.
func (w *GeminiWriter) Write(ctx context.Context, theme, shotType string) (*Caption, error) {
	c, err := w.generate(ctx, theme, shotType)
	if err != nil {
		log.Warn().Err(err).Str("model", w.model).Msg("Gemini caption failed, using table caption")
		return w.fallback.Write(ctx, theme, shotType)
	}
	return c, nil
}

func (w *GeminiWriter) generate(ctx context.Context, theme, shotType string) (*Caption, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	tone := pick.One(w.src, w.fallback.tones)
	userPrompt := fmt.Sprintf("Tone: %s\nScene: %s\nShot: %s\nTopic category: %s", tone.Name, theme, shotType, Category(theme))

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Temperature:      genai.Ptr(geminiTemperature),
		ResponseMIMEType: "application/json",
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: userPrompt}}}}

	startTime := time.Now()
	resp, err := w.models.GenerateContent(ctx, w.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate caption: %w", err)
	}
	log.Debug().Dur("duration", time.Since(startTime)).Str("tone", tone.Name).Msg("Gemini caption generated")

	reply, err := jsonutil.ParseJSON[geminiReply](resp.Text())
	if err != nil {
		return nil, fmt.Errorf("parse caption reply: %w", err)
	}
	if strings.TrimSpace(reply.Hook) == "" || strings.TrimSpace(reply.Engagement) == "" {
		return nil, fmt.Errorf("caption reply is missing hook or engagement")
	}

	tags := dedupe(cleanTags(reply.Hashtags))
	if len(tags) == 0 {
		tags = w.fallback.Hashtags(Category(theme), MaxHashtags)
	}
	if len(tags) > MaxHashtags {
		tags = tags[:MaxHashtags]
	}

	return &Caption{
		Text: Assemble(strings.TrimSpace(reply.Hook), strings.TrimSpace(reply.Brainstorm), strings.TrimSpace(reply.Engagement), tags),
		Tags: tags,
		Tone: tone.Name,
	}, nil
}

func cleanTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		t = strings.ReplaceAll(t, " ", "")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
