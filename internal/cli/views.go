package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/ziwei/internal/chart"
)

// recordView is the CLI rendering of a saved chart.
type recordView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SavedAt        string `json:"saved_at"`
	SolarDate      string `json:"solar_date"`
	Gender         string `json:"gender"`
	Interpreted    bool   `json:"interpreted"`
	Interpretation string `json:"interpretation,omitempty"`
}

func newRecordView(rec chart.Record, full bool) recordView {
	v := recordView{
		ID:          rec.ID,
		Name:        rec.Name,
		SavedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
		SolarDate:   rec.Chart.SolarDate,
		Gender:      rec.Chart.Birth.Gender.Label(),
		Interpreted: rec.HasInterpretation(),
	}
	if full && rec.HasInterpretation() {
		v.Interpretation = rec.Interpretation.Content
	}
	return v
}

func (v recordView) String() string {
	mark := " "
	if v.Interpreted {
		mark = "*"
	}
	s := fmt.Sprintf("%s %s  %s  %s %s  %s", mark, v.ID, v.Name, v.Gender, v.SolarDate, v.SavedAt)
	if v.Interpretation != "" {
		s += "\n\n" + v.Interpretation
	}
	return s
}

// saveResult reports whether save inserted a record or found one.
type saveResult struct {
	recordView
	Created bool `json:"created"`
}

func (r saveResult) String() string {
	if r.Created {
		return r.recordView.String()
	}
	return r.recordView.String() + "\n(already saved)"
}

type recordList []recordView

func (l recordList) String() string {
	if len(l) == 0 {
		return "no saved charts"
	}
	lines := make([]string, len(l))
	for i, v := range l {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}
