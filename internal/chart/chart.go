package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/ziwei/internal/canon"
)

// SolarDateLayout formats the derived solar instant: UTC with millisecond
// precision.
const SolarDateLayout = "2006-01-02T15:04:05.000Z"

const (
	unnamedChart = "未命名"
	recordSuffix = "-命盘"
)

// ErrLunarUnsupported is returned when a lunar birth date must be resolved
// but no LunarConverter is configured.
var ErrLunarUnsupported = errors.New("lunar calendar conversion not configured")

// Chart is the birth data together with its derived solar instant.
type Chart struct {
	Birth     BirthInput
	SolarDate string
}

// DisplayName is the chart's name, or 未命名 when the name is empty.
func (c Chart) DisplayName() string {
	if c.Birth.Name == "" {
		return unnamedChart
	}
	return c.Birth.Name
}

// RecordName is the display name given to a record saved from this chart.
// An unnamed chart is saved as 未命名-命盘.
func (c Chart) RecordName() string {
	return c.DisplayName() + recordSuffix
}

// SolarTime parses SolarDate.
func (c Chart) SolarTime() (time.Time, error) {
	return time.Parse(SolarDateLayout, c.SolarDate)
}

// identity is the canonical form hashed by Key. Every field compared by
// SameChart appears here and nothing else does.
func (c Chart) identity() canon.Object {
	b := c.Birth
	return canon.NewObject(
		canon.P("name", canon.String(b.Name)),
		canon.P("gender", canon.String(string(b.Gender))),
		canon.P("calendarType", canon.String(string(b.CalendarType))),
		canon.P("year", canon.Int(b.Year)),
		canon.P("month", canon.Int(b.Month)),
		canon.P("day", canon.Int(b.Day)),
		canon.P("hour", canon.Int(b.Hour)),
		canon.P("leapMonthFix", canon.Bool(b.LeapMonthFix)),
		canon.P("solarDate", canon.String(c.SolarDate)),
	)
}

// Key returns the content-addressed identity key of the chart.
// Key(a) == Key(b) exactly when a and b denote the same natal chart.
func (c Chart) Key() string {
	return canon.MustKey(canon.DomainChart, c.identity())
}

// SameChart reports whether rec was saved from a chart equivalent to c:
// every raw birth field and the derived solar instant string must match.
// Names are compared literally; an empty name only matches an empty name.
func SameChart(rec Record, c Chart) bool {
	return rec.Chart.Birth == c.Birth && rec.Chart.SolarDate == c.SolarDate
}

// LunarConverter converts a lunar calendar date to its solar date.
type LunarConverter interface {
	ToSolar(year, month, day int, leap bool) (y, m, d int, err error)
}

// Resolver turns a BirthInput into a Chart.
//
// The solar instant is the birth date at the birth hour in Location
// (time.Local when nil), expressed in UTC.
type Resolver struct {
	Location *time.Location
	Lunar    LunarConverter
}

// Resolve validates and normalizes b and derives its solar instant.
func (r Resolver) Resolve(b BirthInput) (Chart, error) {
	b = b.Normalized()
	if err := b.Validate(); err != nil {
		return Chart{}, err
	}

	y, m, d := b.Year, b.Month, b.Day
	if b.CalendarType == Lunar {
		if r.Lunar == nil {
			return Chart{}, ErrLunarUnsupported
		}
		var err error
		y, m, d, err = r.Lunar.ToSolar(b.Year, b.Month, b.Day, b.LeapMonthFix)
		if err != nil {
			return Chart{}, fmt.Errorf("convert lunar %04d-%02d-%02d: %w", b.Year, b.Month, b.Day, err)
		}
	}

	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	instant := time.Date(y, time.Month(m), d, b.Hour, 0, 0, 0, loc)
	return Chart{Birth: b, SolarDate: instant.UTC().Format(SolarDateLayout)}, nil
}
