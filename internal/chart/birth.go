package chart

import (
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Gender of the chart subject.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Label returns the Chinese label used in analysis documents.
func (g Gender) Label() string {
	if g == Male {
		return "男"
	}
	return "女"
}

// CalendarType selects how year/month/day are interpreted.
type CalendarType string

const (
	Solar CalendarType = "solar"
	Lunar CalendarType = "lunar"
)

// BirthInput is the raw birth data entered by the user.
// It is a comparable value; equality is field-wise.
type BirthInput struct {
	Name         string
	Gender       Gender
	CalendarType CalendarType
	Year         int
	Month        int
	Day          int
	Hour         int
	LeapMonthFix bool
}

// Normalized returns a copy with the name in Unicode NFC form, so that
// visually identical names compare equal.
func (b BirthInput) Normalized() BirthInput {
	b.Name = norm.NFC.String(b.Name)
	return b
}

// Validate checks field ranges. A solar date must exist on the calendar.
func (b BirthInput) Validate() error {
	switch b.Gender {
	case Male, Female:
	default:
		return fmt.Errorf("invalid gender %q", b.Gender)
	}
	switch b.CalendarType {
	case Solar, Lunar:
	default:
		return fmt.Errorf("invalid calendar type %q", b.CalendarType)
	}
	if b.Year < 1 || b.Year > 9999 {
		return fmt.Errorf("year %d out of range", b.Year)
	}
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("month %d out of range", b.Month)
	}
	if b.Day < 1 || b.Day > 31 {
		return fmt.Errorf("day %d out of range", b.Day)
	}
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("hour %d out of range", b.Hour)
	}
	if b.CalendarType == Solar {
		d := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
		if d.Day() != b.Day {
			return fmt.Errorf("no such solar date %04d-%02d-%02d", b.Year, b.Month, b.Day)
		}
	}
	return nil
}

// TimeIndex maps the birth hour to the twelve-branch hour index used by the
// astrology engine. 23:00 and 00:00 both fall in the first (子) branch.
func (b BirthInput) TimeIndex() int {
	if b.Hour >= 23 || b.Hour < 1 {
		return 0
	}
	return (b.Hour + 1) / 2
}
