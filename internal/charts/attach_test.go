package charts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/store"
)

func TestAttachIdempotent(t *testing.T) {
	f := newFixture(t, "gen-1", "gen-2")
	ctx := context.Background()
	c := resolve(t, birth("A"))

	first, err := f.store.AttachInterpretation(ctx, c, "", "content", epoch)
	require.NoError(t, err)
	second, err := f.store.AttachInterpretation(ctx, c, "", "content", epoch)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, f.store.Len())
	assert.Equal(t, "content", f.store.List()[0].Interpretation.Content)
}

func TestAttachFindOrCreateLaw(t *testing.T) {
	f := newFixture(t, "gen-1", "gen-2")
	ctx := context.Background()

	created, err := f.store.AttachInterpretation(ctx, resolve(t, birth("A")), "", "c1", epoch)
	require.NoError(t, err)
	assert.Equal(t, "gen-1", created.ID)
	assert.Equal(t, "A-命盘", created.Name)
	assert.Equal(t, 1, f.store.Len())

	// An equivalent chart resolved separately reuses the same record.
	later := epoch.Add(time.Minute)
	updated, err := f.store.AttachInterpretation(ctx, resolve(t, birth("A")), "", "c2", later)
	require.NoError(t, err)
	assert.Equal(t, "gen-1", updated.ID)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, "c2", updated.Interpretation.Content)
	assert.True(t, updated.Interpretation.ProducedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(epoch))
}

func TestAttachPrefersActiveRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := resolve(t, birth("A"))

	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("placeholder", c, epoch)))
	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("newer-dup", c, epoch)))

	rec, err := f.store.AttachInterpretation(ctx, c, "placeholder", "text", epoch)
	require.NoError(t, err)
	assert.Equal(t, "placeholder", rec.ID)

	dup, _ := f.store.Get("newer-dup")
	assert.Nil(t, dup.Interpretation)
	assert.Equal(t, 2, f.store.Len())
}

func TestAttachFallsBackWhenActiveDeleted(t *testing.T) {
	f := newFixture(t, "gen-1")
	ctx := context.Background()
	c := resolve(t, birth("A"))

	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("active", c, epoch)))
	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("match", c, epoch)))
	require.NoError(t, f.store.DeleteByID(ctx, "active"))

	rec, err := f.store.AttachInterpretation(ctx, c, "active", "text", epoch)
	require.NoError(t, err)
	assert.Equal(t, "match", rec.ID)

	require.NoError(t, f.store.DeleteByID(ctx, "match"))
	rec, err = f.store.AttachInterpretation(ctx, c, "active", "text", epoch)
	require.NoError(t, err)
	assert.Equal(t, "gen-1", rec.ID)
	assert.Equal(t, 1, f.store.Len())
}

func TestAttachReplacesWithoutHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := resolve(t, birth("A"))
	require.NoError(t, f.store.Insert(ctx, chart.NewRecord("r1", c, epoch).WithInterpretation("old", epoch)))

	rec, err := f.store.AttachInterpretation(ctx, c, "r1", "new", epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Interpretation.Content)

	data, _, err := f.kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old")
}

func TestAttachWriteFailure(t *testing.T) {
	f := newFixture(t, "gen-1")
	ctx := context.Background()
	c := resolve(t, birth("A"))
	f.kv.FailWrites(store.ErrQuotaExceeded)

	_, err := f.store.AttachInterpretation(ctx, c, "", "text", epoch)
	assert.True(t, chart.IsStorageWriteFailure(err))
	assert.Zero(t, f.store.Len())
}

func TestFindOrCreate(t *testing.T) {
	f := newFixture(t, "gen-1", "gen-2")
	ctx := context.Background()
	c := resolve(t, birth("A"))

	rec, created, err := f.store.FindOrCreate(ctx, c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "gen-1", rec.ID)
	assert.True(t, rec.CreatedAt.Equal(epoch))

	again, created, err := f.store.FindOrCreate(ctx, c)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "gen-1", again.ID)
	assert.Equal(t, 1, f.store.Len())
}
