package payload

import (
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/roach88/ziwei/internal/astro"
	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/settings"
)

// Input is the astrology state of one chart at one reference instant.
type Input struct {
	// Name is the chart display name.
	Name      string
	Gender    chart.Gender
	Astrolabe *astro.Astrolabe
	// Horoscope may be nil; the horoscope block then renders as null.
	Horoscope *astro.Horoscope
}

// ErrNoAstrolabe is returned by Build when the input carries no astrolabe.
var ErrNoAstrolabe = errors.New("payload: astrolabe required")

// Build compiles in into a Document for the targets in sel. cfg is the
// configuration the astrolabe was computed under and is recorded in the
// basic info block.
func Build(in Input, sel Selection, cfg settings.Settings) (*Document, error) {
	a := in.Astrolabe
	if a == nil {
		return nil, ErrNoAstrolabe
	}

	targets := sel.Targets()
	stemMutagens := orderedmap.New[string, *MutagedPlaces]()
	details := orderedmap.New[string, *TargetDetail]()
	for _, name := range targets {
		p := a.Palace(name)
		stemMutagens.Set(name, mutagedPlaces(p))
		details.Set(name, &TargetDetail{
			Palace:         summarize(p),
			PalaceMutagens: mutagedPlaces(p),
			Surrounded:     surrounded(a, name),
		})
	}

	overview := make([]*PalaceSummary, 0, len(a.Palaces))
	for i := range a.Palaces {
		overview = append(overview, summarize(&a.Palaces[i]))
	}

	return &Document{
		BasicInfo: BasicInfo{
			Name:                    in.Name,
			Gender:                  in.Gender.Label(),
			SolarDate:               a.SolarDate,
			LunarDate:               a.LunarDate,
			ChineseDate:             a.ChineseDate,
			Time:                    a.Time,
			TimeRange:               a.TimeRange,
			Zodiac:                  a.Zodiac,
			Sign:                    a.Sign,
			Soul:                    a.Soul,
			Body:                    a.Body,
			SoulPalaceEarthlyBranch: a.SoulPalaceBranch,
			BodyPalaceEarthlyBranch: a.BodyPalaceBranch,
			Config:                  cfg,
		},
		Personality: Personality{
			Soul:      summarize(a.Palace("命宫")),
			Body:      summarize(a.BodyPalace()),
			Fortune:   summarize(a.Palace("福德")),
			Migration: summarize(a.Palace("迁移")),
		},
		LifeTriSquare:      surrounded(a, LifePalace),
		BirthYearMutagens:  birthYearMutagens(a),
		PalaceStemMutagens: stemMutagens,
		Targets: TargetBlock{
			Fixed:   sel.Fixed(),
			Extra:   sel.Extras(),
			Details: details,
		},
		Horoscope: horoscope(in.Horoscope),
		Overview:  overview,
	}, nil
}

func summarize(p *astro.Palace) *PalaceSummary {
	if p == nil {
		return nil
	}
	mutagens := newMutagenMap()
	for _, s := range p.Stars() {
		mutagens.addUnique(s.Mutagen, s.Name)
	}
	return &PalaceSummary{
		Name:             p.Name,
		Index:            p.Index,
		HeavenlyStem:     p.HeavenlyStem,
		EarthlyBranch:    p.EarthlyBranch,
		IsBodyPalace:     p.IsBodyPalace,
		IsOriginalPalace: p.IsOriginalPalace,
		IsEmpty:          p.IsEmpty(),
		MajorStars:       labels(p.MajorStars),
		MinorStars:       labels(p.MinorStars),
		AdjectiveStars:   labels(p.AdjectiveStars),
		Mutagens:         mutagens,
	}
}

func labels(stars []astro.Star) []string {
	out := make([]string, len(stars))
	for i, s := range stars {
		out[i] = s.Label()
	}
	return out
}

func mutagedPlaces(p *astro.Palace) *MutagedPlaces {
	if p == nil {
		return nil
	}
	at := func(i int) *string {
		if i >= len(p.MutagedPalaces) || p.MutagedPalaces[i] == "" {
			return nil
		}
		name := p.MutagedPalaces[i]
		return &name
	}
	return &MutagedPlaces{Lu: at(0), Quan: at(1), Ke: at(2), Ji: at(3)}
}

func surrounded(a *astro.Astrolabe, name string) SurroundedSummary {
	s := a.Surrounded(name)
	return SurroundedSummary{
		Target:   summarize(s.Target),
		Opposite: summarize(s.Opposite),
		Wealth:   summarize(s.Wealth),
		Career:   summarize(s.Career),
	}
}

// birthYearMutagens collects <palace>-<star> labels chart-wide in palace
// then star encounter order.
func birthYearMutagens(a *astro.Astrolabe) MutagenMap {
	m := newMutagenMap()
	for i := range a.Palaces {
		p := &a.Palaces[i]
		for _, s := range p.Stars() {
			m.addUnique(s.Mutagen, p.Name+"-"+s.Name)
		}
	}
	return m
}

func horoscope(h *astro.Horoscope) *HoroscopeBlock {
	if h == nil {
		return nil
	}
	return &HoroscopeBlock{
		SolarDate: h.SolarDate,
		LunarDate: h.LunarDate,
		Decadal:   horoscopeItem(h.Decadal),
		Yearly:    horoscopeItem(h.Yearly),
		Daily:     horoscopeItem(h.Daily),
	}
}

func horoscopeItem(it astro.HoroscopeItem) HoroscopeSummary {
	return HoroscopeSummary{
		Index:         it.Index,
		Name:          it.Name,
		HeavenlyStem:  it.HeavenlyStem,
		EarthlyBranch: it.EarthlyBranch,
		PalaceNames:   nonNil(it.PalaceNames),
		Mutagen:       nonNil(it.Mutagen),
	}
}

func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
