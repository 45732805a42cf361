package charts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/store"
	"github.com/roach88/ziwei/internal/token"
)

var epoch = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	kv    *store.Memory
	store *Store
	clock *token.FixedClock
	hook  *logtest.Hook
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	kv := store.NewMemory(0)
	clock := token.NewFixedClock(epoch)
	s, err := Open(context.Background(), kv,
		WithLogger(log),
		WithIDGenerator(token.NewFixedGenerator(ids...)),
		WithClock(clock),
	)
	require.NoError(t, err)
	return &fixture{kv: kv, store: s, clock: clock, hook: hook}
}

func birth(name string) chart.BirthInput {
	return chart.BirthInput{
		Name:         name,
		Gender:       chart.Male,
		CalendarType: chart.Solar,
		Year:         1990,
		Month:        1,
		Day:          1,
		Hour:         0,
	}
}

func resolve(t *testing.T, b chart.BirthInput) chart.Chart {
	t.Helper()
	c, err := chart.Resolver{Location: time.UTC}.Resolve(b)
	require.NoError(t, err)
	return c
}

func ids(recs []chart.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestInsertPrependsAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		c := resolve(t, birth(fmt.Sprintf("n%d", i)))
		require.NoError(t, f.store.Insert(ctx, chart.NewRecord(fmt.Sprintf("r%d", i), c, epoch)))
	}
	assert.Equal(t, []string{"r3", "r2", "r1"}, ids(f.store.List()))

	reopened, err := Open(ctx, f.kv)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2", "r1"}, ids(reopened.List()))
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := chart.NewRecord("r1", resolve(t, birth("A")), epoch)

	require.NoError(t, f.store.Insert(ctx, rec))
	other := chart.NewRecord("r1", resolve(t, birth("B")), epoch)
	err := f.store.Insert(ctx, other)
	assert.ErrorIs(t, err, ErrDuplicateID)

	got, ok := f.store.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "A", got.Chart.Birth.Name, "existing record is not overwritten")
	assert.Equal(t, 1, f.store.Len())
}

func TestInsertDeleteNetCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ops := []struct {
		insert string
		delete string
	}{
		{insert: "a"}, {insert: "b"}, {delete: "a"}, {insert: "c"},
		{delete: "zzz"}, {insert: "d"}, {delete: "c"}, {delete: "c"},
	}
	want := map[string]bool{}
	var order []string
	for i, op := range ops {
		if op.insert != "" {
			c := resolve(t, birth(op.insert))
			require.NoError(t, f.store.Insert(ctx, chart.NewRecord(op.insert, c, epoch)), "op %d", i)
			want[op.insert] = true
			order = append([]string{op.insert}, order...)
		} else {
			require.NoError(t, f.store.DeleteByID(ctx, op.delete), "op %d", i)
			delete(want, op.delete)
		}
	}

	var expected []string
	for _, id := range order {
		if want[id] {
			expected = append(expected, id)
		}
	}
	assert.Equal(t, expected, ids(f.store.List()))
	assert.Equal(t, len(want), f.store.Len())
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	f := newFixture(t)
	f.kv.FailWrites(errors.New("should not be called"))

	assert.NoError(t, f.store.DeleteByID(context.Background(), "missing"))
}

func TestFindByIdentityScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saved := chart.NewRecord("r1", resolve(t, birth("A")), epoch)
	require.NoError(t, f.store.Insert(ctx, saved))

	got, ok := f.store.FindByIdentity(resolve(t, birth("A")))
	require.True(t, ok)
	assert.Equal(t, "r1", got.ID)

	_, ok = f.store.FindByIdentity(resolve(t, birth("B")))
	assert.False(t, ok)
}

func TestFindByIdentityNewestWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := resolve(t, birth("A"))

	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("old", c, epoch)))
	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("new", c, epoch.Add(time.Hour))))

	got, ok := f.store.FindByIdentity(c)
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)

	var warned bool
	for _, e := range f.hook.AllEntries() {
		if e.Message == "duplicate chart identity" {
			warned = true
		}
	}
	assert.True(t, warned, "duplicate identity is logged")
}

func TestUpdateRestoresIdentityFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("r1", resolve(t, birth("A")), epoch)))

	ok, err := f.store.Update(ctx, "r1", func(rec *chart.Record) {
		rec.ID = "hijacked"
		rec.CreatedAt = time.Time{}
		rec.Name = "renamed"
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, ok := f.store.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)
	assert.True(t, got.CreatedAt.Equal(epoch))
	_, ok = f.store.Get("hijacked")
	assert.False(t, ok)

	ok, err = f.store.Update(ctx, "missing", func(*chart.Record) {})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteFailureKeepsBothViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("r1", resolve(t, birth("A")), epoch)))
	durable, _, err := f.kv.Get(ctx, StorageKey)
	require.NoError(t, err)

	f.kv.FailWrites(store.ErrQuotaExceeded)

	err = f.store.Insert(ctx, chart.NewRecord("r2", resolve(t, birth("B")), epoch))
	require.Error(t, err)
	assert.True(t, chart.IsStorageWriteFailure(err))
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)

	err = f.store.DeleteByID(ctx, "r1")
	assert.True(t, chart.IsStorageWriteFailure(err))

	_, err = f.store.Update(ctx, "r1", func(rec *chart.Record) { rec.Name = "x" })
	assert.True(t, chart.IsStorageWriteFailure(err))

	assert.Equal(t, []string{"r1"}, ids(f.store.List()))
	got, _ := f.store.Get("r1")
	assert.Equal(t, "A-命盘", got.Name)

	after, _, err := f.kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, durable, after)
}

func TestQuotaExceededIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory(64)
	s, err := Open(ctx, kv, WithLogger(logrus.New()))
	require.NoError(t, err)

	err = s.Insert(ctx, chart.NewRecord("r1", resolve(t, birth("A")), epoch))
	assert.True(t, chart.IsStorageWriteFailure(err))
	assert.Zero(t, s.Len())
}

func TestReloadObservesOtherWriter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := Open(ctx, f.kv)
	require.NoError(t, err)
	require.NoError(t, other.Insert(ctx, chart.NewRecord("r1", resolve(t, birth("A")), epoch)))

	assert.Zero(t, f.store.Len())
	require.NoError(t, f.store.Reload(ctx))
	assert.Equal(t, []string{"r1"}, ids(f.store.List()))
}

func TestOpenRejectsCorruptState(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory(0)
	require.NoError(t, kv.Put(ctx, StorageKey, []byte(`{not json`)))

	_, err := Open(ctx, kv)
	assert.Error(t, err)
}

func TestListReturnsCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := chart.NewRecord("r1", resolve(t, birth("A")), epoch).WithInterpretation("x", epoch)
	require.NoError(t, f.store.Insert(ctx, rec))

	list := f.store.List()
	list[0].Interpretation.Content = "mutated"

	got, _ := f.store.Get("r1")
	assert.Equal(t, "x", got.Interpretation.Content)
}
