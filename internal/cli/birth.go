package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ziwei/internal/chart"
)

// birthFlags are the flags describing one birth.
type birthFlags struct {
	name     string
	gender   string
	calendar string
	date     string
	hour     int
	fixLeap  bool
}

func (b *birthFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.name, "name", "", "person name")
	cmd.Flags().StringVar(&b.gender, "gender", string(chart.Male), "gender (male|female)")
	cmd.Flags().StringVar(&b.calendar, "calendar", string(chart.Solar), "calendar of --date (solar|lunar)")
	cmd.Flags().StringVar(&b.date, "date", "", "birth date as YYYY-M-D (required)")
	cmd.Flags().IntVar(&b.hour, "hour", 0, "birth hour 0-23")
	cmd.Flags().BoolVar(&b.fixLeap, "fix-leap", true, "split leap months at mid-month")
	_ = cmd.MarkFlagRequired("date")
}

func (b *birthFlags) input() (chart.BirthInput, error) {
	parts := strings.Split(strings.TrimSpace(b.date), "-")
	if len(parts) != 3 {
		return chart.BirthInput{}, fmt.Errorf("invalid --date %q: want YYYY-M-D", b.date)
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return chart.BirthInput{}, fmt.Errorf("invalid --date %q: %w", b.date, err)
		}
		ymd[i] = n
	}
	return chart.BirthInput{
		Name:         b.name,
		Gender:       chart.Gender(b.gender),
		CalendarType: chart.CalendarType(b.calendar),
		Year:         ymd[0],
		Month:        ymd[1],
		Day:          ymd[2],
		Hour:         b.hour,
		LeapMonthFix: b.fixLeap,
	}, nil
}

// resolve turns the flags into a chart.
func (b *birthFlags) resolve(a *app) (chart.Chart, error) {
	in, err := b.input()
	if err != nil {
		return chart.Chart{}, err
	}
	return a.resolver.Resolve(in)
}
