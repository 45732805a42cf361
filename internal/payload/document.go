package payload

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/roach88/ziwei/internal/settings"
)

// Document is the structured analysis document. Field order is the key
// order of the rendered JSON.
type Document struct {
	BasicInfo          BasicInfo                                      `json:"基础信息"`
	Personality        Personality                                    `json:"命身与性格参考"`
	LifeTriSquare      SurroundedSummary                              `json:"命宫三方四正"`
	BirthYearMutagens  MutagenMap                                     `json:"生年四化"`
	PalaceStemMutagens *orderedmap.OrderedMap[string, *MutagedPlaces] `json:"宫干四化"`
	Targets            TargetBlock                                    `json:"目标宫位"`
	Horoscope          *HoroscopeBlock                                `json:"运限"`
	Overview           []*PalaceSummary                               `json:"十二宫总览"`
}

// BasicInfo is the chart header together with the configuration the
// astrolabe was computed with.
type BasicInfo struct {
	Name                    string            `json:"name"`
	Gender                  string            `json:"gender"`
	SolarDate               string            `json:"solarDate"`
	LunarDate               string            `json:"lunarDate"`
	ChineseDate             string            `json:"chineseDate"`
	Time                    string            `json:"time"`
	TimeRange               string            `json:"timeRange"`
	Zodiac                  string            `json:"zodiac"`
	Sign                    string            `json:"sign"`
	Soul                    string            `json:"soul"`
	Body                    string            `json:"body"`
	SoulPalaceEarthlyBranch string            `json:"soulPalaceEarthlyBranch"`
	BodyPalaceEarthlyBranch string            `json:"bodyPalaceEarthlyBranch"`
	Config                  settings.Settings `json:"config"`
}

// Personality holds the palaces read for character: life, body, fortune and
// migration. A palace the chart lacks is nil.
type Personality struct {
	Soul      *PalaceSummary `json:"命宫"`
	Body      *PalaceSummary `json:"身宫"`
	Fortune   *PalaceSummary `json:"福德宫"`
	Migration *PalaceSummary `json:"迁移宫"`
}

// MutagenMap maps each transformation to star names or labels.
// Every list is non-nil so it renders as [] when empty.
type MutagenMap struct {
	Lu   []string `json:"禄"`
	Quan []string `json:"权"`
	Ke   []string `json:"科"`
	Ji   []string `json:"忌"`
}

func newMutagenMap() MutagenMap {
	return MutagenMap{Lu: []string{}, Quan: []string{}, Ke: []string{}, Ji: []string{}}
}

func (m *MutagenMap) list(mutagen string) *[]string {
	switch mutagen {
	case "禄":
		return &m.Lu
	case "权":
		return &m.Quan
	case "科":
		return &m.Ke
	case "忌":
		return &m.Ji
	}
	return nil
}

// addUnique appends label under mutagen unless already present.
// Unknown mutagens are ignored.
func (m *MutagenMap) addUnique(mutagen, label string) {
	l := m.list(mutagen)
	if l == nil {
		return
	}
	for _, existing := range *l {
		if existing == label {
			return
		}
	}
	*l = append(*l, label)
}

// MutagedPlaces names the palace receiving each transformation from a
// palace's stem; nil renders as null.
type MutagedPlaces struct {
	Lu   *string `json:"禄"`
	Quan *string `json:"权"`
	Ke   *string `json:"科"`
	Ji   *string `json:"忌"`
}

// PalaceSummary describes one palace. Star lists hold labels of the form
// name(brightness·化mutagen).
type PalaceSummary struct {
	Name             string     `json:"name"`
	Index            int        `json:"index"`
	HeavenlyStem     string     `json:"heavenlyStem"`
	EarthlyBranch    string     `json:"earthlyBranch"`
	IsBodyPalace     bool       `json:"isBodyPalace"`
	IsOriginalPalace bool       `json:"isOriginalPalace"`
	IsEmpty          bool       `json:"isEmpty"`
	MajorStars       []string   `json:"majorStars"`
	MinorStars       []string   `json:"minorStars"`
	AdjectiveStars   []string   `json:"adjectiveStars"`
	Mutagens         MutagenMap `json:"mutagens"`
}

// SurroundedSummary is a palace with its opposite, wealth and career
// palaces, at offsets 6, 8 and 4.
type SurroundedSummary struct {
	Target   *PalaceSummary `json:"target"`
	Opposite *PalaceSummary `json:"opposite"`
	Wealth   *PalaceSummary `json:"wealth"`
	Career   *PalaceSummary `json:"career"`
}

// TargetBlock lists the fixed and toggled target palaces and details each
// one in selection order.
type TargetBlock struct {
	Fixed   []string                                      `json:"固定"`
	Extra   []string                                      `json:"补充"`
	Details *orderedmap.OrderedMap[string, *TargetDetail] `json:"详情"`
}

// TargetDetail is the analysis of one target palace.
type TargetDetail struct {
	Palace         *PalaceSummary    `json:"palace"`
	PalaceMutagens *MutagedPlaces    `json:"palaceMutagens"`
	Surrounded     SurroundedSummary `json:"surrounded"`
}

// HoroscopeBlock is the horoscope at the reference instant.
type HoroscopeBlock struct {
	SolarDate string           `json:"solarDate"`
	LunarDate string           `json:"lunarDate"`
	Decadal   HoroscopeSummary `json:"decadal"`
	Yearly    HoroscopeSummary `json:"yearly"`
	Daily     HoroscopeSummary `json:"daily"`
}

// HoroscopeSummary is one horoscope scope (decadal, yearly or daily).
type HoroscopeSummary struct {
	Index         int      `json:"index"`
	Name          string   `json:"name"`
	HeavenlyStem  string   `json:"heavenlyStem"`
	EarthlyBranch string   `json:"earthlyBranch"`
	PalaceNames   []string `json:"palaceNames"`
	Mutagen       []string `json:"mutagen"`
}
