package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Interpretation is generated analysis text attached to a record.
type Interpretation struct {
	Content    string
	ProducedAt time.Time
}

// Record is a persisted chart.
//
// ID and CreatedAt are fixed at creation. The only field mutated afterwards
// is Interpretation.
type Record struct {
	ID             string
	Name           string
	CreatedAt      time.Time
	Chart          Chart
	Interpretation *Interpretation
}

// NewRecord creates a record for c named after the chart.
func NewRecord(id string, c Chart, at time.Time) Record {
	return Record{
		ID:        id,
		Name:      c.RecordName(),
		CreatedAt: at.Truncate(time.Millisecond),
		Chart:     c,
	}
}

// WithInterpretation returns a copy of r carrying the given interpretation.
func (r Record) WithInterpretation(content string, at time.Time) Record {
	r.Interpretation = &Interpretation{Content: content, ProducedAt: at.Truncate(time.Millisecond)}
	return r
}

// Clone returns a copy that shares no mutable state with r.
func (r Record) Clone() Record {
	if r.Interpretation != nil {
		interp := *r.Interpretation
		r.Interpretation = &interp
	}
	return r
}

// HasInterpretation reports whether non-empty content is attached.
func (r Record) HasInterpretation() bool {
	return r.Interpretation != nil && r.Interpretation.Content != ""
}

type wireRecord struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	SavedAt        int64               `json:"savedAt"`
	Interpretation *wireInterpretation `json:"interpretation,omitempty"`
	Data           wireData            `json:"data"`
}

type wireInterpretation struct {
	Content string `json:"content"`
	SavedAt int64  `json:"savedAt"`
}

type wireData struct {
	SolarDate string  `json:"solarDate"`
	Gender    Gender  `json:"gender"`
	Name      string  `json:"name"`
	Raw       wireRaw `json:"raw"`
}

type wireRaw struct {
	Name    string       `json:"name"`
	Gender  Gender       `json:"gender"`
	Type    CalendarType `json:"type"`
	Year    stringInt    `json:"year"`
	Month   stringInt    `json:"month"`
	Day     stringInt    `json:"day"`
	Hour    numberInt    `json:"hour"`
	FixLeap bool         `json:"fixLeap"`
}

// MarshalJSON encodes r in the durable record shape.
func (r Record) MarshalJSON() ([]byte, error) {
	b := r.Chart.Birth
	w := wireRecord{
		ID:      r.ID,
		Name:    r.Name,
		SavedAt: r.CreatedAt.UnixMilli(),
		Data: wireData{
			SolarDate: r.Chart.SolarDate,
			Gender:    b.Gender,
			Name:      r.Chart.DisplayName(),
			Raw: wireRaw{
				Name:    b.Name,
				Gender:  b.Gender,
				Type:    b.CalendarType,
				Year:    stringInt(b.Year),
				Month:   stringInt(b.Month),
				Day:     stringInt(b.Day),
				Hour:    numberInt(b.Hour),
				FixLeap: b.LeapMonthFix,
			},
		},
	}
	if r.Interpretation != nil {
		w.Interpretation = &wireInterpretation{
			Content: r.Interpretation.Content,
			SavedAt: r.Interpretation.ProducedAt.UnixMilli(),
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the durable record shape. Raw year, month, day and
// hour are accepted as strings or numbers.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return fmt.Errorf("chart record: missing id")
	}

	rec := Record{
		ID:        w.ID,
		Name:      w.Name,
		CreatedAt: time.UnixMilli(w.SavedAt).UTC(),
		Chart: Chart{
			Birth: BirthInput{
				Name:         w.Data.Raw.Name,
				Gender:       w.Data.Raw.Gender,
				CalendarType: w.Data.Raw.Type,
				Year:         int(w.Data.Raw.Year),
				Month:        int(w.Data.Raw.Month),
				Day:          int(w.Data.Raw.Day),
				Hour:         int(w.Data.Raw.Hour),
				LeapMonthFix: w.Data.Raw.FixLeap,
			}.Normalized(),
			SolarDate: w.Data.SolarDate,
		},
	}
	if rec.Chart.Birth.Gender == "" {
		rec.Chart.Birth.Gender = w.Data.Gender
	}
	if w.Interpretation != nil {
		rec.Interpretation = &Interpretation{
			Content:    w.Interpretation.Content,
			ProducedAt: time.UnixMilli(w.Interpretation.SavedAt).UTC(),
		}
	}
	*r = rec
	return nil
}

// EncodeList encodes records as a JSON array, preserving order.
func EncodeList(recs []Record) ([]byte, error) {
	if recs == nil {
		recs = []Record{}
	}
	return json.Marshal(recs)
}

// DecodeList decodes a JSON array of records. Empty input is an empty list.
func DecodeList(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode chart records: %w", err)
	}
	return recs, nil
}

// stringInt is written as a decimal string and read from a string or number.
type stringInt int

func (v stringInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(v)))
}

func (v *stringInt) UnmarshalJSON(data []byte) error {
	n, err := parseLooseInt(data)
	*v = stringInt(n)
	return err
}

// numberInt is written as a number and read from a string or number.
type numberInt int

func (v *numberInt) UnmarshalJSON(data []byte) error {
	n, err := parseLooseInt(data)
	*v = numberInt(n)
	return err
}

func parseLooseInt(data []byte) (int, error) {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("integer field: %w", err)
		}
		return i, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("integer field: %s", data)
	}
	if s == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("integer field: %w", err)
	}
	return i, nil
}
