// Package settings holds the chart configuration: display switches and the
// calendar conventions the astrology engine applies.
//
// A persisted configuration is merged over Default field by field. Each
// present field is checked against an embedded CUE schema; a field that
// fails keeps its default and is reported, the rest still merge.
package settings

import (
	"encoding/json"
	"fmt"
	"sort"
)

// StorageKey is the durable key holding the configuration.
const StorageKey = "zwds-settings"

type YearDivide string

const (
	YearDivideNormal YearDivide = "normal"
	YearDivideExact  YearDivide = "exact"
)

type HoroscopeDivide string

const (
	HoroscopeDivideNormal HoroscopeDivide = "normal"
	HoroscopeDivideExact  HoroscopeDivide = "exact"
)

type AgeDivide string

const (
	AgeDivideNormal   AgeDivide = "normal"
	AgeDivideBirthday AgeDivide = "birthday"
)

type DayDivide string

const (
	DayDivideCurrent DayDivide = "current"
	DayDivideForward DayDivide = "forward"
)

type Algorithm string

const (
	AlgorithmDefault   Algorithm = "default"
	AlgorithmZhongzhou Algorithm = "zhongzhou"
)

// Settings is the chart configuration value object.
type Settings struct {
	HideTransitStars bool            `json:"hideTransitStars" yaml:"hideTransitStars"`
	HideHoroscope    bool            `json:"hideHoroscope" yaml:"hideHoroscope"`
	HideBirthTime    bool            `json:"hideBirthTime" yaml:"hideBirthTime"`
	YearDivide       YearDivide      `json:"yearDivide" yaml:"yearDivide"`
	HoroscopeDivide  HoroscopeDivide `json:"horoscopeDivide" yaml:"horoscopeDivide"`
	AgeDivide        AgeDivide       `json:"ageDivide" yaml:"ageDivide"`
	DayDivide        DayDivide       `json:"dayDivide" yaml:"dayDivide"`
	Algorithm        Algorithm       `json:"algorithm" yaml:"algorithm"`
}

// Default returns the configuration used when nothing is persisted.
func Default() Settings {
	return Settings{
		YearDivide:      YearDivideNormal,
		HoroscopeDivide: HoroscopeDivideExact,
		AgeDivide:       AgeDivideNormal,
		DayDivide:       DayDivideCurrent,
		Algorithm:       AlgorithmDefault,
	}
}

// Fields lists the configuration field names in declaration order.
func Fields() []string {
	return []string{
		"hideTransitStars", "hideHoroscope", "hideBirthTime",
		"yearDivide", "horoscopeDivide", "ageDivide", "dayDivide", "algorithm",
	}
}

// fieldPtr returns a pointer to the struct field named by its JSON name.
func (s *Settings) fieldPtr(name string) any {
	switch name {
	case "hideTransitStars":
		return &s.HideTransitStars
	case "hideHoroscope":
		return &s.HideHoroscope
	case "hideBirthTime":
		return &s.HideBirthTime
	case "yearDivide":
		return &s.YearDivide
	case "horoscopeDivide":
		return &s.HoroscopeDivide
	case "ageDivide":
		return &s.AgeDivide
	case "dayDivide":
		return &s.DayDivide
	case "algorithm":
		return &s.Algorithm
	}
	return nil
}

// MergeResult reports what Merge did with each persisted field.
type MergeResult struct {
	Settings Settings
	// Rejected maps a field name to the reason its value was refused.
	Rejected map[string]string
	// Unknown lists persisted keys that are not configuration fields.
	Unknown []string
}

// Merge overlays the persisted JSON object data onto Default.
// Fields absent from data keep their defaults. A value that is not a JSON
// object yields Default and an error.
func Merge(data []byte) (MergeResult, error) {
	return defaultValidator.Merge(Default(), data)
}

// Set returns s with one field replaced. value is parsed as a boolean for
// the hide* switches and taken literally otherwise.
func Set(s Settings, field, value string) (Settings, error) {
	if s.fieldPtr(field) == nil {
		return s, fmt.Errorf("unknown setting %q (known: %v)", field, Fields())
	}
	var raw json.RawMessage
	if _, isBool := s.fieldPtr(field).(*bool); isBool {
		raw = json.RawMessage(value)
	} else {
		quoted, err := json.Marshal(value)
		if err != nil {
			return s, err
		}
		raw = quoted
	}
	if err := defaultValidator.apply(&s, field, raw); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks every field of s against the schema.
func (s Settings) Validate() error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	res, err := defaultValidator.Merge(Default(), data)
	if err != nil {
		return err
	}
	if len(res.Rejected) > 0 {
		names := make([]string, 0, len(res.Rejected))
		for k := range res.Rejected {
			names = append(names, k)
		}
		sort.Strings(names)
		return fmt.Errorf("invalid settings: %s: %s", names[0], res.Rejected[names[0]])
	}
	return nil
}
