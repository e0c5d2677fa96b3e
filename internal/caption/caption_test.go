package caption

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"google.golang.org/genai"
)

type fixedSource struct{ v int }

func (f fixedSource) IntN(n int) int { return f.v % n }

func TestCategory(t *testing.T) {
	tests := []struct {
		theme string
		want  string
	}{
		{"working from a modern coffee shop with laptop", "coffee"},
		{"at a co-working space", "coffee"},
		{"at the gym, mid-workout, natural lighting", "gym"},
		{"out for a morning run in the city", "gym"},
		{"by a lake or waterfront", "beach"},
		{"at a weekend brunch spot", "food"},
		{"in a hotel lobby, travel vibes", "travel"},
		{"having coffee on a balcony", "coffee"},
		{"in a city park on a bench", "outdoor"},
		{"at a casual team meeting in an office", "work"},
		{"at a bookstore browsing", "default"},
		{"Back at Work late", "work"},
	}
	for _, tt := range tests {
		if got := Category(tt.theme); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.theme, got, tt.want)
		}
	}
}

func TestTableWriterLayout(t *testing.T) {
	w := NewTableWriter(fixedSource{v: 0}, Sarcastic)
	c, err := w.Write(context.Background(), "at the gym, mid-workout, natural lighting", "portrait")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(c.Text, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), c.Text)
	}
	if lines[0] != Sarcastic.Hooks[0] {
		t.Errorf("hook = %q", lines[0])
	}
	if lines[1] != brainstorms[0] {
		t.Errorf("brainstorm = %q", lines[1])
	}
	if lines[2] != "" || lines[4] != "" {
		t.Errorf("expected blank separator lines")
	}
	if lines[3] != engagement[0] {
		t.Errorf("engagement = %q", lines[3])
	}
	if !strings.HasPrefix(lines[5], "#") {
		t.Errorf("expected hashtag line, got %q", lines[5])
	}
	if c.Tone != "sarcastic" {
		t.Errorf("tone = %q", c.Tone)
	}
}

func TestHashtagsDistinctAndBounded(t *testing.T) {
	w := NewTableWriter(nil)
	for category := range tagsByCategory {
		tags := w.Hashtags(category, 100)
		if len(tags) > MaxHashtags {
			t.Errorf("%s: %d tags exceeds limit", category, len(tags))
		}
		seen := map[string]bool{}
		for _, tag := range tags {
			if seen[tag] {
				t.Errorf("%s: duplicate tag %q", category, tag)
			}
			seen[tag] = true
		}
		for _, e := range evergreenTags {
			if len(tags) < MaxHashtags && !seen[e] {
				t.Errorf("%s: evergreen tag %q missing", category, e)
			}
		}
	}
	if got := w.Hashtags("unknown", 5); len(got) != 5 {
		t.Errorf("expected 5 tags for unknown category, got %d", len(got))
	}
}

func TestAssembleTruncates(t *testing.T) {
	long := strings.Repeat("ü", 3000)
	text := Assemble(long, "b", "c", []string{"#one", "two", " "})
	if utf8.RuneCountInString(text) != MaxLength {
		t.Errorf("expected %d characters, got %d", MaxLength, utf8.RuneCountInString(text))
	}

	short := Assemble("hook", "idea", "cta", []string{"#one", "two", " "})
	if !strings.HasSuffix(short, "#one #two") {
		t.Errorf("unexpected tag line: %q", short)
	}
}

func TestTonesByName(t *testing.T) {
	tones := TonesByName([]string{"Inspiring", "nope", " philosophical "})
	if len(tones) != 2 || tones[0].Name != "inspiring" || tones[1].Name != "philosophical" {
		t.Errorf("unexpected tones: %+v", tones)
	}
	if len(TonesByName(nil)) != 0 {
		t.Error("expected no tones for nil input")
	}
}

type fakeModels struct {
	text string
	err  error
}

func (f fakeModels) GenerateContent(_ context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}}}},
	}, nil
}

func newTestGeminiWriter(models contentGenerator) *GeminiWriter {
	fallback := NewTableWriter(fixedSource{v: 0})
	return &GeminiWriter{models: models, model: DefaultModel, fallback: fallback, src: fallback.src}
}

func TestGeminiWriterUsesReply(t *testing.T) {
	reply := "```json\n{\"hook\":\"Ship it.\",\"brainstorm\":\"What would you cut?\",\"engagement\":\"Tell me below.\",\"hashtags\":[\"#Founder\",\"build in public\",\"founder\"]}\n```"
	w := newTestGeminiWriter(fakeModels{text: reply})

	c, err := w.Write(context.Background(), "at a co-working space", "portrait")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Ship it.\nWhat would you cut?\n\nTell me below.\n\n#founder #buildinpublic"
	if c.Text != want {
		t.Errorf("caption = %q, want %q", c.Text, want)
	}
}

func TestGeminiWriterFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		models fakeModels
	}{
		{name: "api error", models: fakeModels{err: errors.New("quota exceeded")}},
		{name: "not json", models: fakeModels{text: "Sure! Here is a caption."}},
		{name: "missing hook", models: fakeModels{text: `{"engagement":"x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestGeminiWriter(tt.models)
			c, err := w.Write(context.Background(), "at the gym", "portrait")
			if err != nil {
				t.Fatalf("fallback must not fail: %v", err)
			}
			if !strings.HasPrefix(c.Text, DefaultTones[0].Hooks[0]) {
				t.Errorf("expected table caption, got %q", c.Text)
			}
		})
	}
}
