// Package astro is the boundary to the astrology engine.
//
// The engine itself is an external collaborator: given a resolved chart and
// the chart configuration it returns an Astrolabe (twelve palaces with their
// star placements) and, for a reference instant, a Horoscope overlay.
// FixtureEngine serves precomputed astrolabes from YAML.
package astro

import (
	"fmt"
	"strings"
)

// Mutagens are the four transformation tags in canonical order.
var Mutagens = []string{"禄", "权", "科", "忌"}

// Star is one star placed in a palace.
type Star struct {
	Name       string `yaml:"name"`
	Brightness string `yaml:"brightness,omitempty"`
	Mutagen    string `yaml:"mutagen,omitempty"`
}

// Label renders the star as name(brightness·化mutagen), omitting empty tags,
// or just the name when it has neither.
func (s Star) Label() string {
	var tags []string
	if s.Brightness != "" {
		tags = append(tags, s.Brightness)
	}
	if s.Mutagen != "" {
		tags = append(tags, "化"+s.Mutagen)
	}
	if len(tags) == 0 {
		return s.Name
	}
	return s.Name + "(" + strings.Join(tags, "·") + ")"
}

// Palace is one of the twelve sectors of a chart.
type Palace struct {
	Index            int    `yaml:"index"`
	Name             string `yaml:"name"`
	HeavenlyStem     string `yaml:"heavenlyStem"`
	EarthlyBranch    string `yaml:"earthlyBranch"`
	IsBodyPalace     bool   `yaml:"isBodyPalace"`
	IsOriginalPalace bool   `yaml:"isOriginalPalace"`
	MajorStars       []Star `yaml:"majorStars"`
	MinorStars       []Star `yaml:"minorStars"`
	AdjectiveStars   []Star `yaml:"adjectiveStars"`

	// MutagedPalaces names, in 禄权科忌 order, the palace that receives each
	// transformation from this palace's stem. An empty entry means none.
	MutagedPalaces []string `yaml:"mutagedPalaces"`
}

// IsEmpty reports whether the palace holds no major star.
func (p *Palace) IsEmpty() bool {
	return len(p.MajorStars) == 0
}

// Stars returns major, minor then adjective stars, each in placement order.
func (p *Palace) Stars() []Star {
	out := make([]Star, 0, len(p.MajorStars)+len(p.MinorStars)+len(p.AdjectiveStars))
	out = append(out, p.MajorStars...)
	out = append(out, p.MinorStars...)
	return append(out, p.AdjectiveStars...)
}

// Astrolabe is the full natal chart produced by the engine.
type Astrolabe struct {
	SolarDate         string   `yaml:"solarDate"`
	LunarDate         string   `yaml:"lunarDate"`
	ChineseDate       string   `yaml:"chineseDate"`
	Time              string   `yaml:"time"`
	TimeRange         string   `yaml:"timeRange"`
	Sign              string   `yaml:"sign"`
	Zodiac            string   `yaml:"zodiac"`
	Soul              string   `yaml:"soul"`
	Body              string   `yaml:"body"`
	SoulPalaceBranch  string   `yaml:"earthlyBranchOfSoulPalace"`
	BodyPalaceBranch  string   `yaml:"earthlyBranchOfBodyPalace"`
	FiveElementsClass string   `yaml:"fiveElementsClass"`
	Palaces           []Palace `yaml:"palaces"`
}

// Palace returns the palace with the given name, or nil.
func (a *Astrolabe) Palace(name string) *Palace {
	for i := range a.Palaces {
		if a.Palaces[i].Name == name {
			return &a.Palaces[i]
		}
	}
	return nil
}

// PalaceAt returns the palace at position index (taken mod 12), or nil.
func (a *Astrolabe) PalaceAt(index int) *Palace {
	index = ((index % 12) + 12) % 12
	for i := range a.Palaces {
		if a.Palaces[i].Index == index {
			return &a.Palaces[i]
		}
	}
	return nil
}

// BodyPalace returns the palace flagged as the body palace, or nil.
func (a *Astrolabe) BodyPalace() *Palace {
	for i := range a.Palaces {
		if a.Palaces[i].IsBodyPalace {
			return &a.Palaces[i]
		}
	}
	return nil
}

// Surrounded is a target palace with its opposite, wealth and career
// counterparts. Any member may be nil.
type Surrounded struct {
	Target   *Palace
	Opposite *Palace
	Wealth   *Palace
	Career   *Palace
}

// Surrounded resolves the tri-square of the named palace: opposite at +6,
// career at +4 and wealth at +8 positions. An unknown name resolves to an
// all-nil result.
func (a *Astrolabe) Surrounded(name string) Surrounded {
	target := a.Palace(name)
	if target == nil {
		return Surrounded{}
	}
	return Surrounded{
		Target:   target,
		Opposite: a.PalaceAt(target.Index + 6),
		Wealth:   a.PalaceAt(target.Index + 8),
		Career:   a.PalaceAt(target.Index + 4),
	}
}

// Validate checks that the astrolabe has twelve palaces at distinct
// positions 0-11 with distinct names.
func (a *Astrolabe) Validate() error {
	if len(a.Palaces) != 12 {
		return fmt.Errorf("astrolabe has %d palaces, want 12", len(a.Palaces))
	}
	seenIdx := map[int]bool{}
	seenName := map[string]bool{}
	for _, p := range a.Palaces {
		if p.Index < 0 || p.Index > 11 {
			return fmt.Errorf("palace %q index %d out of range", p.Name, p.Index)
		}
		if seenIdx[p.Index] {
			return fmt.Errorf("duplicate palace index %d", p.Index)
		}
		if seenName[p.Name] {
			return fmt.Errorf("duplicate palace name %q", p.Name)
		}
		if n := len(p.MutagedPalaces); n != 0 && n != len(Mutagens) {
			return fmt.Errorf("palace %q has %d mutaged palaces, want %d", p.Name, n, len(Mutagens))
		}
		seenIdx[p.Index] = true
		seenName[p.Name] = true
	}
	return nil
}

// HoroscopeItem is one cycle of the horoscope overlay.
type HoroscopeItem struct {
	Index         int      `yaml:"index"`
	Name          string   `yaml:"name"`
	HeavenlyStem  string   `yaml:"heavenlyStem"`
	EarthlyBranch string   `yaml:"earthlyBranch"`
	PalaceNames   []string `yaml:"palaceNames"`
	Mutagen       []string `yaml:"mutagen"`
}

// Horoscope maps the chart onto a reference date at three granularities.
type Horoscope struct {
	SolarDate string        `yaml:"solarDate"`
	LunarDate string        `yaml:"lunarDate"`
	Decadal   HoroscopeItem `yaml:"decadal"`
	Yearly    HoroscopeItem `yaml:"yearly"`
	Daily     HoroscopeItem `yaml:"daily"`
}
