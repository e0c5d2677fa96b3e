// Package prompt assembles photography prompts for the lifestyle LoRA
// character: a man in his mid-30s with salt-and-pepper hair (more black than
// grey) and a single tattoo on his left forearm.
package prompt

import (
	"fmt"
	"strings"

	"github.com/fpang/lora-autoposter/internal/pick"
)

// DefaultTattooChance is the share of prompts that call out the tattoo.
const DefaultTattooChance = 0.3

// Scene is a built prompt with the labels used for captioning and reports.
type Scene struct {
	Prompt   string `json:"prompt"`
	Theme    string `json:"theme"`
	ShotType string `json:"shot_type"`
}

// TattooStyle describes how the forearm tattoo is written into a prompt.
type TattooStyle struct {
	Name         string
	Description  string
	FocusPhrases []string
}

var (
	// MaoriTattoo is the character's current tattoo.
	MaoriTattoo = TattooStyle{
		Name:        "maori",
		Description: "Only his left forearm shows a detailed Maori-style ta moko tattoo with bold curved tribal linework, in sharp detail; no other visible tattoos.",
		FocusPhrases: []string{
			"Left forearm shows the Maori-style tattoo in detail; composition includes hands and forearms.",
			"Sleeves rolled to mid-forearm, the Maori tribal tattoo visible and well-lit.",
			"Upper body and forearms in frame, koru spirals and linework of the tattoo sharp.",
		},
	}

	// GenericTattoo keeps the tattoo unspecified.
	GenericTattoo = TattooStyle{
		Name:        "generic",
		Description: "Only his left forearm shows detailed, artistic tattoo work in sharp detail; no other visible tattoos.",
		FocusPhrases: []string{
			"Left forearm shows detailed tattoo work; composition includes hands and forearms.",
			"Sleeves rolled to mid-forearm, tattoo visible and well-lit.",
			"Upper body and forearms in frame, tattoo detail sharp.",
		},
	}
)

// TattooStyleByName resolves a configured style. Unknown names fall back to
// MaoriTattoo.
func TattooStyleByName(name string) TattooStyle {
	if strings.EqualFold(strings.TrimSpace(name), GenericTattoo.Name) {
		return GenericTattoo
	}
	return MaoriTattoo
}

// Builder produces prompts. The zero value is not usable; call NewBuilder.
type Builder struct {
	src          pick.Source
	tattoo       TattooStyle
	tattooChance float64
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSource replaces the random source.
func WithSource(src pick.Source) BuilderOption {
	return func(b *Builder) { b.src = src }
}

// WithTattoo sets the tattoo style and how often it is emphasized.
func WithTattoo(style TattooStyle, chance float64) BuilderOption {
	return func(b *Builder) {
		b.tattoo = style
		b.tattooChance = chance
	}
}

// NewBuilder returns a Builder using crypto randomness, the Maori tattoo,
// and DefaultTattooChance.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		src:          pick.Crypto,
		tattoo:       MaoriTattoo,
		tattooChance: DefaultTattooChance,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Random builds a fully random scene.
func (b *Builder) Random() Scene {
	return b.Build(Options{})
}

// Build builds a scene from opts, choosing randomly for every empty field.
func (b *Builder) Build(opts Options) Scene {
	opts = opts.Trimmed()

	theme := b.orPick(opts.Occasion, Occasions)
	shotType := pick.One(b.src, ShotTypes)
	composition := pick.One(b.src, compositions)
	angle := pick.One(b.src, cameraAngles)
	lens := pick.One(b.src, lenses)
	clothing := b.orPick(opts.Clothing, Clothing)
	pose := b.orPick(opts.Mood, PosesAndMoods)
	tattooFocus := pick.Chance(b.src, b.tattooChance)

	parts := []string{
		"A professional photograph capturing a distinguished gentleman in his mid-30s,",
		theme + ",",
		pose + ",",
	}
	if opts.Expression != "" && opts.Expression != pose {
		parts = append(parts, "expression "+opts.Expression+",")
	}
	parts = append(parts,
		"well-groomed salt-and-pepper hair with more black than grey, styled with subtle volume, exuding sophistication and approachability.",
		"He wears "+clothing+".",
	)
	if opts.Surrounding != "" {
		parts = append(parts, "Setting: "+opts.Surrounding+".")
	}
	if opts.Vibe != "" {
		parts = append(parts, fmt.Sprintf("Overall vibe is %s.", opts.Vibe))
	}
	if opts.PostIdea != "" {
		parts = append(parts, "The image tells this story: "+strings.TrimRight(opts.PostIdea, ".")+".")
	}

	if tattooFocus {
		parts = append(parts, b.tattoo.Description, pick.One(b.src, b.tattoo.FocusPhrases))
	}

	lighting := ", flattering and natural"
	if tattooFocus {
		lighting = ", emphasizing tattoo details and facial features"
	}
	parts = append(parts,
		shotType+".",
		composition+",",
		angle+".",
		"Natural lighting creates gentle highlights and shadows"+lighting+".",
		"Shot with a professional "+lens+", candid authentic moment.",
		"Cinematic color grading with warm, professional tones.",
		"Photorealistic quality, 8K resolution, high-end photography aesthetic.",
	)

	return Scene{
		Prompt:   strings.Join(parts, " "),
		Theme:    theme,
		ShotType: shotType,
	}
}

func (b *Builder) orPick(value string, table []string) string {
	if value != "" {
		return value
	}
	return pick.One(b.src, table)
}
