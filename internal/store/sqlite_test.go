package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a SQLite store in a per-test temp dir.
func createTestStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestSQLite_GetMissing(t *testing.T) {
	s := createTestStore(t)

	v, ok, err := s.Get(context.Background(), "zwds-saved-charts")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSQLite_PutReplaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte(`[1]`)))
	require.NoError(t, s.Put(ctx, "k", []byte(`[2]`)))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[2]`, string(v))

	rev, err := s.Revision(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	rev, err = s.Revision(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, rev)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, "zwds-settings", []byte(`{"algorithm":"zhongzhou"}`)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(ctx, "zwds-settings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"algorithm":"zhongzhou"}`, string(v))
}

func TestSQLite_EmptyValue(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", nil))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	b, err := OpenBackend(ctx, DriverSQLite, filepath.Join(t.TempDir(), "b.db"))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = OpenBackend(ctx, DriverMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	_, err = OpenBackend(ctx, "redis", "")
	assert.ErrorContains(t, err, "unknown storage driver")
}
