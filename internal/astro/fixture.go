package astro

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/settings"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// ErrNoFixture is returned when no fixture matches the requested chart.
var ErrNoFixture = errors.New("no astrolabe fixture for chart")

// Match selects the charts a fixture answers for. Algorithm is optional;
// when set the chart configuration must use it.
type Match struct {
	CalendarType chart.CalendarType `yaml:"calendarType"`
	Year         int                `yaml:"year"`
	Month        int                `yaml:"month"`
	Day          int                `yaml:"day"`
	TimeIndex    int                `yaml:"timeIndex"`
	Gender       chart.Gender       `yaml:"gender"`
	Algorithm    settings.Algorithm `yaml:"algorithm,omitempty"`
}

func (m Match) matches(c chart.Chart, cfg settings.Settings) bool {
	b := c.Birth
	if m.Algorithm != "" && m.Algorithm != cfg.Algorithm {
		return false
	}
	return m.CalendarType == b.CalendarType &&
		m.Year == b.Year && m.Month == b.Month && m.Day == b.Day &&
		m.TimeIndex == b.TimeIndex() && m.Gender == b.Gender
}

// Fixture is one precomputed chart.
type Fixture struct {
	Match     Match     `yaml:"match"`
	Astrolabe Astrolabe `yaml:"astrolabe"`
	Horoscope Horoscope `yaml:"horoscope"`
}

type fixtureFile struct {
	Charts []Fixture `yaml:"charts"`
}

// FixtureEngine serves astrolabes from precomputed fixtures.
//
// Horoscope returns the fixture's overlay with its solar date set to the
// reference instant in Location.
type FixtureEngine struct {
	fixtures []Fixture
	Location *time.Location
}

// ParseFixtures decodes a fixture document and validates every astrolabe.
func ParseFixtures(data []byte) (*FixtureEngine, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i := range f.Charts {
		if err := f.Charts[i].Astrolabe.Validate(); err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
	}
	return &FixtureEngine{fixtures: f.Charts}, nil
}

// LoadFixtures reads a fixture file from disk.
func LoadFixtures(path string) (*FixtureEngine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// DefaultFixtures returns the engine over the built-in fixtures.
func DefaultFixtures() *FixtureEngine {
	e, err := ParseFixtures(defaultFixtures)
	if err != nil {
		panic(err)
	}
	return e
}

// Len reports how many fixtures are loaded.
func (e *FixtureEngine) Len() int { return len(e.fixtures) }

// Astrolabe returns a copy of the first fixture matching c and cfg.
func (e *FixtureEngine) Astrolabe(ctx context.Context, c chart.Chart, cfg settings.Settings) (*Astrolabe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range e.fixtures {
		if e.fixtures[i].Match.matches(c, cfg) {
			a := cloneAstrolabe(e.fixtures[i].Astrolabe)
			return &a, nil
		}
	}
	b := c.Birth
	return nil, fmt.Errorf("%w: %s %04d-%02d-%02d hour %d %s",
		ErrNoFixture, b.CalendarType, b.Year, b.Month, b.Day, b.Hour, b.Gender)
}

// Horoscope returns the overlay stored with the fixture that produced a,
// dated at. The lunar date is kept only when at falls on the fixture's day.
func (e *FixtureEngine) Horoscope(ctx context.Context, a *Astrolabe, at time.Time) (*Horoscope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range e.fixtures {
		f := &e.fixtures[i]
		if f.Astrolabe.SolarDate == a.SolarDate && f.Astrolabe.Time == a.Time && f.Astrolabe.ChineseDate == a.ChineseDate {
			loc := e.Location
			if loc == nil {
				loc = time.Local
			}
			h := f.Horoscope
			// The fixture's lunar date only describes the fixture's own day.
			if day := at.In(loc).Format("2006-1-2"); day != h.SolarDate {
				h.SolarDate = day
				h.LunarDate = ""
			}
			h.Decadal = cloneItem(h.Decadal)
			h.Yearly = cloneItem(h.Yearly)
			h.Daily = cloneItem(h.Daily)
			return &h, nil
		}
	}
	return nil, fmt.Errorf("%w: horoscope for %s", ErrNoFixture, a.SolarDate)
}

func cloneAstrolabe(a Astrolabe) Astrolabe {
	palaces := make([]Palace, len(a.Palaces))
	for i, p := range a.Palaces {
		p.MajorStars = append([]Star(nil), p.MajorStars...)
		p.MinorStars = append([]Star(nil), p.MinorStars...)
		p.AdjectiveStars = append([]Star(nil), p.AdjectiveStars...)
		p.MutagedPalaces = append([]string(nil), p.MutagedPalaces...)
		palaces[i] = p
	}
	a.Palaces = palaces
	return a
}

func cloneItem(it HoroscopeItem) HoroscopeItem {
	it.PalaceNames = append([]string(nil), it.PalaceNames...)
	it.Mutagen = append([]string(nil), it.Mutagen...)
	return it
}
