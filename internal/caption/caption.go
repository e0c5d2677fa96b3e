// Package caption writes Instagram captions for generated scenes: an opening
// hook, a business brainstorm, an engagement line, and up to 30 hashtags.
package caption

import (
	"context"
	"regexp"
	"strings"

	"github.com/fpang/lora-autoposter/internal/pick"
)

const (
	// MaxLength is Instagram's caption limit in characters.
	MaxLength = 2200
	// MaxHashtags is Instagram's hashtag limit per post.
	MaxHashtags = 30
)

// Caption is a finished caption and the hashtags it ends with.
type Caption struct {
	Text string
	Tags []string
	Tone string
}

// Writer produces a caption for a scene theme and shot type.
type Writer interface {
	Write(ctx context.Context, theme, shotType string) (*Caption, error)
}

var categoryRules = []struct {
	category string
	pattern  *regexp.Regexp
}{
	{"coffee", regexp.MustCompile(`\b(coffee|cafe|co-working)\b`)},
	{"gym", regexp.MustCompile(`\b(gym|workout|run)\b`)},
	{"beach", regexp.MustCompile(`\b(beach|waterfront|lake)\b`)},
	{"food", regexp.MustCompile(`\b(restaurant|brunch|lunch)\b`)},
	{"travel", regexp.MustCompile(`\b(airport|train|travel|hotel)\b`)},
	{"outdoor", regexp.MustCompile(`\b(park|outdoor|balcony)\b`)},
	{"work", regexp.MustCompile(`\b(office|meeting|work)\b`)},
}

// Category maps a scene theme to a hashtag pool. First match wins.
func Category(theme string) string {
	t := strings.ToLower(theme)
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(t) {
			return rule.category
		}
	}
	return "default"
}

// TableWriter builds captions from fixed phrase tables.
type TableWriter struct {
	src   pick.Source
	tones []Tone
}

// NewTableWriter returns a writer drawing hooks from tones, or DefaultTones
// when none are given.
func NewTableWriter(src pick.Source, tones ...Tone) *TableWriter {
	if src == nil {
		src = pick.Crypto
	}
	if len(tones) == 0 {
		tones = DefaultTones
	}
	return &TableWriter{src: src, tones: tones}
}

// TonesByName returns the built-in tones named in names, ignoring unknown
// names. An empty result means every tone.
func TonesByName(names []string) []Tone {
	var out []Tone
	for _, name := range names {
		for _, tone := range DefaultTones {
			if strings.EqualFold(strings.TrimSpace(name), tone.Name) {
				out = append(out, tone)
			}
		}
	}
	return out
}

// Write never fails.
func (w *TableWriter) Write(_ context.Context, theme, _ string) (*Caption, error) {
	tone := pick.One(w.src, w.tones)
	hook := pick.One(w.src, tone.Hooks)
	brainstorm := pick.One(w.src, brainstorms)
	cta := pick.One(w.src, engagement)
	tags := w.Hashtags(Category(theme), MaxHashtags)

	return &Caption{
		Text: Assemble(hook, brainstorm, cta, tags),
		Tags: tags,
		Tone: tone.Name,
	}, nil
}

// Hashtags returns up to count distinct tags from the evergreen pool and
// the category pool, shuffled.
func (w *TableWriter) Hashtags(category string, count int) []string {
	pool, ok := tagsByCategory[category]
	if !ok {
		pool = tagsByCategory["default"]
	}
	combined := dedupe(append(append([]string{}, evergreenTags...), pool...))
	shuffled := pick.Shuffle(w.src, combined)
	if count > MaxHashtags {
		count = MaxHashtags
	}
	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled
}

// Assemble lays a caption out as hook and brainstorm, a blank line, the
// engagement line, a blank line, then the hashtags. The result is cut to
// MaxLength characters.
func Assemble(hook, brainstorm, cta string, tags []string) string {
	hashtags := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			hashtags = append(hashtags, "#"+tag)
		}
	}
	text := strings.Join([]string{hook, brainstorm, "", cta, "", strings.Join(hashtags, " ")}, "\n")
	return Truncate(text, MaxLength)
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
