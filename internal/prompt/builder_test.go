package prompt

import (
	"strings"
	"testing"
)

// fixedSource always returns v modulo n.
type fixedSource struct{ v int }

func (f fixedSource) IntN(n int) int { return f.v % n }

func TestBuildHonorsPinnedOptions(t *testing.T) {
	b := NewBuilder(WithSource(fixedSource{v: 999_999}))
	opts := Options{
		PostIdea:    "  shipping a side project before midnight. ",
		Occasion:    "driving a car, city or highway",
		Vibe:        "laid-back",
		Mood:        "calm, contemplative, relaxed posture",
		Clothing:    "charcoal henley",
		Expression:  "quiet half smile",
		Surrounding: "urban street",
	}
	scene := b.Build(opts)

	if scene.Theme != "driving a car, city or highway" {
		t.Errorf("theme = %q", scene.Theme)
	}
	for _, want := range []string{
		"driving a car, city or highway,",
		"calm, contemplative, relaxed posture,",
		"expression quiet half smile,",
		"He wears charcoal henley.",
		"Setting: urban street.",
		"Overall vibe is laid-back.",
		"The image tells this story: shipping a side project before midnight.",
	} {
		if !strings.Contains(scene.Prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, scene.Prompt)
		}
	}
	if scene.ShotType == "" {
		t.Error("shot type must be chosen")
	}
}

func TestBuildTattooEmphasis(t *testing.T) {
	// IntN(1_000_000) == 0 always passes a 0.3 chance; 999_999 never does.
	with := NewBuilder(WithSource(fixedSource{v: 0})).Random()
	if !strings.Contains(with.Prompt, "Maori-style") || !strings.Contains(with.Prompt, "emphasizing tattoo details") {
		t.Errorf("expected Maori tattoo emphasis:\n%s", with.Prompt)
	}

	without := NewBuilder(WithSource(fixedSource{v: 999_999})).Random()
	if strings.Contains(without.Prompt, "tattoo") {
		t.Errorf("expected no tattoo emphasis:\n%s", without.Prompt)
	}
	if !strings.Contains(without.Prompt, "flattering and natural") {
		t.Errorf("expected default lighting:\n%s", without.Prompt)
	}
}

func TestGenericTattooStyle(t *testing.T) {
	scene := NewBuilder(WithSource(fixedSource{v: 0}), WithTattoo(TattooStyleByName("generic"), 1)).Random()
	if strings.Contains(scene.Prompt, "Maori") {
		t.Errorf("generic style must not mention Maori:\n%s", scene.Prompt)
	}
	if !strings.Contains(scene.Prompt, "artistic tattoo work") {
		t.Errorf("expected generic tattoo description:\n%s", scene.Prompt)
	}
}

func TestTattooStyleByNameDefaultsToMaori(t *testing.T) {
	for _, name := range []string{"", "maori", "unknown"} {
		if TattooStyleByName(name).Name != "maori" {
			t.Errorf("TattooStyleByName(%q) is not maori", name)
		}
	}
}

func TestRandomDrawsFromTables(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < 50; i++ {
		scene := b.Random()
		if !contains(Occasions, scene.Theme) {
			t.Fatalf("theme %q not in Occasions", scene.Theme)
		}
		if !contains(ShotTypes, scene.ShotType) {
			t.Fatalf("shot type %q not in ShotTypes", scene.ShotType)
		}
		if !strings.HasPrefix(scene.Prompt, "A professional photograph") {
			t.Fatalf("unexpected prompt start: %s", scene.Prompt)
		}
	}
}

func TestPresets(t *testing.T) {
	gym, ok := Preset(" Gym ")
	if !ok || gym.Occasion != "at the gym, mid-workout, natural lighting" {
		t.Errorf("unexpected Gym preset: %+v, %v", gym, ok)
	}
	random, ok := Preset("Random")
	if !ok || !random.IsZero() {
		t.Errorf("Random preset must pin nothing: %+v", random)
	}
	if _, ok := Preset("Skydiving"); ok {
		t.Error("unknown preset must not resolve")
	}
	if len(PresetNames()) != len(Presets) {
		t.Errorf("PresetNames length mismatch")
	}
	for name, p := range Presets {
		if p.Clothing != "" && !contains(Clothing, p.Clothing) {
			t.Errorf("preset %q clothing %q not in Clothing", name, p.Clothing)
		}
		if p.Occasion != "" && !contains(Occasions, p.Occasion) {
			t.Errorf("preset %q occasion %q not in Occasions", name, p.Occasion)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestApplyOverrides(t *testing.T) {
	base, _ := Preset("Gym")
	idea := "  first PR of the year "
	empty := ""
	got := base.Apply(Overrides{PostIdea: &idea, Occasion: &empty})
	if got.PostIdea != "first PR of the year" {
		t.Errorf("PostIdea = %q", got.PostIdea)
	}
	if got.Occasion != "" {
		t.Errorf("an explicit empty override must clear the preset, got %q", got.Occasion)
	}
	if got.Clothing != base.Clothing {
		t.Errorf("nil override must keep the preset value, got %q", got.Clothing)
	}
}
