package prompt

import (
	"sort"
	"strings"
)

// Options pins parts of the scene. Empty fields are chosen at random.
type Options struct {
	PostIdea    string `json:"postIdea,omitempty"`
	Occasion    string `json:"occasion,omitempty"`
	Vibe        string `json:"vibe,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Clothing    string `json:"clothing,omitempty"`
	Expression  string `json:"expression,omitempty"`
	Surrounding string `json:"surrounding,omitempty"`
}

// IsZero reports whether no field is pinned.
func (o Options) IsZero() bool {
	return o == Options{}
}

// Trimmed returns o with whitespace trimmed from every field.
func (o Options) Trimmed() Options {
	return Options{
		PostIdea:    strings.TrimSpace(o.PostIdea),
		Occasion:    strings.TrimSpace(o.Occasion),
		Vibe:        strings.TrimSpace(o.Vibe),
		Mood:        strings.TrimSpace(o.Mood),
		Clothing:    strings.TrimSpace(o.Clothing),
		Expression:  strings.TrimSpace(o.Expression),
		Surrounding: strings.TrimSpace(o.Surrounding),
	}
}

// Overrides are per-field values supplied by a caller. A non-nil field
// replaces the base value, even when it is empty.
type Overrides struct {
	PostIdea    *string `json:"postIdea"`
	Occasion    *string `json:"occasion"`
	Vibe        *string `json:"vibe"`
	Mood        *string `json:"mood"`
	Clothing    *string `json:"clothing"`
	Expression  *string `json:"expression"`
	Surrounding *string `json:"surrounding"`
}

// Apply returns o with every non-nil override applied.
func (o Options) Apply(ov Overrides) Options {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&o.PostIdea, ov.PostIdea)
	set(&o.Occasion, ov.Occasion)
	set(&o.Vibe, ov.Vibe)
	set(&o.Mood, ov.Mood)
	set(&o.Clothing, ov.Clothing)
	set(&o.Expression, ov.Expression)
	set(&o.Surrounding, ov.Surrounding)
	return o
}

// Presets are named starting points for the publish form. "Random" pins
// nothing.
var Presets = map[string]Options{
	"Work mode": {
		Occasion:    "coding at a laptop in a modern office",
		Vibe:        "focused",
		Mood:        "focused, thoughtful expression",
		Clothing:    "fitted black t-shirt, short sleeves",
		Expression:  "focused, thoughtful expression",
		Surrounding: "modern office",
	},
	"Coffee shop": {
		Occasion:    "working from a modern coffee shop with laptop",
		Vibe:        "casual",
		Mood:        "relaxed, confident smile, approachable",
		Clothing:    "grey hoodie, casual",
		Expression:  "relaxed, confident smile, approachable",
		Surrounding: "coffee shop or cafe",
	},
	"Travel": {
		Occasion:    "traveling at an airport or train station",
		Vibe:        "adventurous",
		Mood:        "walking casually, authentic moment",
		Clothing:    "navy casual shirt, sleeves rolled to mid-forearm",
		Expression:  "calm, contemplative, relaxed posture",
		Surrounding: "travel or airport",
	},
	"Meeting": {
		Occasion:    "in a business meeting room, presenting or discussing",
		Vibe:        "professional",
		Mood:        "engaged, talking or listening",
		Clothing:    "navy casual shirt, sleeves rolled to mid-forearm",
		Expression:  "engaged, talking or listening",
		Surrounding: "indoor office or cafe",
	},
	"Gym": {
		Occasion:    "at the gym, mid-workout, natural lighting",
		Vibe:        "energetic",
		Mood:        "mid-stride or mid-motion, dynamic",
		Clothing:    "fitted black t-shirt, short sleeves",
		Expression:  "mid-stride or mid-motion, dynamic",
		Surrounding: "gym or fitness",
	},
	"Driving": {
		Occasion:    "driving a car, city or highway",
		Vibe:        "laid-back",
		Mood:        "calm, contemplative, relaxed posture",
		Clothing:    "charcoal henley",
		Expression:  "calm, contemplative, relaxed posture",
		Surrounding: "urban street",
	},
	"Beach / chill": {
		Occasion:    "relaxing on a sunny beach",
		Vibe:        "laid-back",
		Mood:        "sitting back at ease, casual",
		Clothing:    "plain dark tee and jeans, short sleeves",
		Expression:  "sitting back at ease, casual",
		Surrounding: "outdoor nature or park",
	},
	"Random": {},
}

// Preset looks up a preset by name. Unknown names return false.
func Preset(name string) (Options, bool) {
	o, ok := Presets[strings.TrimSpace(name)]
	return o, ok
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
