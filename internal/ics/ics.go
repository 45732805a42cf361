// Package ics exports saved charts as an iCalendar birthday feed.
//
// Each record becomes one all-day VEVENT on its solar birth date, repeating
// yearly. UIDs and DTSTAMPs derive from the record alone, so exporting the
// same records twice yields the same events.
package ics

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/roach88/ziwei/internal/chart"
)

const (
	prodID   = "-//ziwei//Chart Export//ZH"
	calName  = "紫微命盘"
	uidHost  = "ziwei"
	uidBytes = 16
	yearly   = "FREQ=YEARLY"
)

// stub is the feed written when there are no records; go-ical refuses to
// encode a calendar without components.
const stub = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + prodID + "\r\nEND:VCALENDAR\r\n"

// UID is the event UID for a record id.
func UID(recordID string) string {
	sum := sha256.Sum256([]byte(recordID))
	return hex.EncodeToString(sum[:uidBytes]) + "@" + uidHost
}

// Encode writes recs as a calendar to w. Birth dates are taken in loc.
func Encode(w io.Writer, recs []chart.Record, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	if len(recs) == 0 {
		_, err := io.WriteString(w, stub)
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText("X-WR-CALNAME", calName)

	for _, rec := range recs {
		ev, err := event(rec, loc)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func event(rec chart.Record, loc *time.Location) (*ical.Event, error) {
	born, err := rec.Chart.SolarTime()
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	born = born.In(loc)

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, UID(rec.ID))
	ev.Props.SetText(ical.PropSummary, rec.Name)
	ev.Props.SetText(ical.PropDescription, describe(rec, born))

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(rec.CreatedAt.UTC())
	ev.Props.Set(stamp)

	start := ical.NewProp(ical.PropDateTimeStart)
	start.SetDate(born)
	ev.Props.Set(start)

	// Set the rule verbatim; SetText would add VALUE=TEXT.
	rule := ical.NewProp(ical.PropRecurrenceRule)
	rule.Value = yearly
	ev.Props.Set(rule)

	return ev, nil
}

func describe(rec chart.Record, born time.Time) string {
	desc := fmt.Sprintf("%s %s", rec.Chart.Birth.Gender.Label(), born.Format("2006-01-02 15:04"))
	if rec.HasInterpretation() {
		desc += "\n已有解读"
	}
	return desc
}
