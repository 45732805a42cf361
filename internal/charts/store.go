package charts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/store"
	"github.com/roach88/ziwei/internal/token"
)

// StorageKey is the durable key holding the record list.
const StorageKey = "zwds-saved-charts"

// ErrDuplicateID is returned by Insert when the id is already stored.
var ErrDuplicateID = errors.New("chart record id already exists")

// Store is the in-memory, durably mirrored chart collection.
//
// Thread-safety: all methods are safe for concurrent use; each runs under
// one mutex and sees every mutation that returned before it.
type Store struct {
	mu      sync.Mutex
	kv      store.KV
	log     logrus.FieldLogger
	ids     token.Generator
	clock   token.Clock
	records []chart.Record
	byKey   map[string][]string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithIDGenerator sets the generator for ids of records the store creates.
// Defaults to UUIDv7.
func WithIDGenerator(g token.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock sets the clock used to stamp records the store creates.
func WithClock(c token.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open loads the collection from kv. A missing key is an empty collection.
func Open(ctx context.Context, kv store.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:    kv,
		log:   logrus.StandardLogger(),
		ids:   token.UUIDv7Generator{},
		clock: token.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "charts")
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory view with the durable state. Another
// process writing the same storage is only observed through Reload.
func (s *Store) Reload(ctx context.Context) error {
	data, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("load charts: %w", err)
	}
	var recs []chart.Record
	if ok {
		recs, err = chart.DecodeList(data)
		if err != nil {
			return fmt.Errorf("load charts: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(recs)
	s.log.WithField("records", len(recs)).Debug("charts loaded")
	return nil
}

// List returns the records newest first. The slice is a copy.
func (s *Store) List() []chart.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chart.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (chart.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return chart.Record{}, false
	}
	return s.records[i].Clone(), true
}

// Insert prepends rec. An id that is already stored is rejected with
// ErrDuplicateID and nothing is written.
func (s *Store) Insert(ctx context.Context, rec chart.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ctx, rec)
}

// DeleteByID removes the record with the given id. Deleting an absent id is
// a no-op and returns nil without touching storage.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	next := make([]chart.Record, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	return s.commit(ctx, "charts.delete", next)
}

// FindByIdentity returns the newest record saved from a chart equivalent
// to c.
func (s *Store) FindByIdentity(c chart.Chart) (chart.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.findLocked(c)
	if !ok {
		return chart.Record{}, false
	}
	return rec.Clone(), true
}

// Mutator patches a record in place.
type Mutator func(rec *chart.Record)

// Update applies mutate to the record with the given id and reports whether
// the record exists. ID and CreatedAt are restored after mutate runs.
func (s *Store) Update(ctx context.Context, id string, mutate Mutator) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok, err := s.updateLocked(ctx, id, mutate)
	return ok, err
}

func (s *Store) insertLocked(ctx context.Context, rec chart.Record) error {
	if s.indexOf(rec.ID) >= 0 {
		return fmt.Errorf("insert %s: %w", rec.ID, ErrDuplicateID)
	}
	next := make([]chart.Record, 0, len(s.records)+1)
	next = append(next, rec.Clone())
	next = append(next, s.records...)
	return s.commit(ctx, "charts.insert", next)
}

func (s *Store) updateLocked(ctx context.Context, id string, mutate Mutator) (chart.Record, bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return chart.Record{}, false, nil
	}

	orig := s.records[i]
	patched := orig.Clone()
	mutate(&patched)
	patched.ID = orig.ID
	patched.CreatedAt = orig.CreatedAt

	next := make([]chart.Record, len(s.records))
	copy(next, s.records)
	next[i] = patched
	if err := s.commit(ctx, "charts.update", next); err != nil {
		return chart.Record{}, true, err
	}
	return patched.Clone(), true, nil
}

func (s *Store) findLocked(c chart.Chart) (chart.Record, bool) {
	for _, id := range s.byKey[c.Key()] {
		i := s.indexOf(id)
		if i >= 0 && chart.SameChart(s.records[i], c) {
			return s.records[i], true
		}
	}
	return chart.Record{}, false
}

// commit writes next durably and only then makes it the in-memory view.
func (s *Store) commit(ctx context.Context, op string, next []chart.Record) error {
	data, err := chart.EncodeList(next)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}
	if err := s.kv.Put(ctx, StorageKey, data); err != nil {
		s.log.WithError(err).WithField("op", op).Warn("chart write rejected")
		return chart.NewStorageError(op, err)
	}
	s.swap(next)
	return nil
}

func (s *Store) swap(recs []chart.Record) {
	s.records = recs
	s.byKey = make(map[string][]string, len(recs))
	for _, r := range recs {
		k := r.Chart.Key()
		s.byKey[k] = append(s.byKey[k], r.ID)
	}
	for k, ids := range s.byKey {
		if len(ids) > 1 {
			s.log.WithError(chart.NewAmbiguityError(k, ids)).Warn("duplicate chart identity")
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
