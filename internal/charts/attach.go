package charts

import (
	"context"
	"time"

	"github.com/roach88/ziwei/internal/chart"
)

// FindOrCreate returns the newest record equivalent to c, inserting a new
// one if none exists. created reports whether a record was inserted.
func (s *Store) FindOrCreate(ctx context.Context, c chart.Chart) (rec chart.Record, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if found, ok := s.findLocked(c); ok {
		return found.Clone(), false, nil
	}
	rec = chart.NewRecord(s.ids.Generate(), c, s.clock.Now())
	if err := s.insertLocked(ctx, rec); err != nil {
		return chart.Record{}, false, err
	}
	s.log.WithField("id", rec.ID).Info("chart record created")
	return rec, true, nil
}

// AttachInterpretation stores content as the interpretation of exactly one
// record and returns that record:
//
//  1. the record with activeID, if it is still stored;
//  2. else the newest record equivalent to c;
//  3. else a new record for c, inserted with the interpretation set.
//
// An existing interpretation is overwritten. The whole sequence runs under
// the store lock.
func (s *Store) AttachInterpretation(ctx context.Context, c chart.Chart, activeID, content string, at time.Time) (chart.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patch := func(rec *chart.Record) {
		*rec = rec.WithInterpretation(content, at)
	}

	if activeID != "" {
		rec, ok, err := s.updateLocked(ctx, activeID, patch)
		if err != nil {
			return chart.Record{}, err
		}
		if ok {
			return rec, nil
		}
	}

	if found, ok := s.findLocked(c); ok {
		rec, _, err := s.updateLocked(ctx, found.ID, patch)
		if err != nil {
			return chart.Record{}, err
		}
		return rec, nil
	}

	rec := chart.NewRecord(s.ids.Generate(), c, s.clock.Now()).WithInterpretation(content, at)
	if err := s.insertLocked(ctx, rec); err != nil {
		return chart.Record{}, err
	}
	s.log.WithField("id", rec.ID).Info("chart record created with interpretation")
	return rec.Clone(), nil
}
