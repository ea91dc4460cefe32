package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore creates a new store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	want := map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"user_version": fmt.Sprint(len(migrations)),
	}
	for name, value := range want {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, value, got, name)
	}
}

func TestOpen_MigrationIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_runs_started_at'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_runs_started_at", name)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestClose_Twice(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestWriteReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := Run{ID: "run-1", Status: RunRunning, Tests: 3, StartedAt: t0}
	require.NoError(t, s.WriteRun(ctx, run))
	// Duplicate writes are ignored.
	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", Status: RunBailed, StartedAt: t0}))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	finished := Run{
		ID:        "run-1",
		Status:    RunBailed,
		Count:     2,
		ErrorCode: "TIMEOUT",
		Error:     "Timed out after 20ms",
		EndedAt:   t0.Add(time.Second),
	}
	require.NoError(t, s.FinishRun(ctx, finished))

	got, err = s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunBailed, got.Status)
	assert.Equal(t, 3, got.Tests)
	assert.Equal(t, int64(2), got.Count)
	assert.Equal(t, "TIMEOUT", got.ErrorCode)
	assert.Equal(t, "Timed out after 20ms", got.Error)
	assert.True(t, got.StartedAt.Equal(t0))
	assert.True(t, got.EndedAt.Equal(t0.Add(time.Second)))
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFinishRun_Unknown(t *testing.T) {
	s := createTestStore(t)

	err := s.FinishRun(context.Background(), Run{ID: "ghost", Status: RunCompleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run")
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.WriteRun(ctx, Run{ID: id, Status: RunCompleted, StartedAt: t0.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[2].ID)

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestWriteReadTests(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", Status: RunRunning, StartedAt: t0}))

	second := Test{RunID: "run-1", Seq: 2, Name: "b", Kind: "test", Start: 1, Count: 1, Plan: -1, Fail: 1, Status: TestEnded}
	first := Test{RunID: "run-1", Seq: 1, Name: "a", Kind: "test", Directive: "skip", Count: 1, Plan: -1, Skip: 1, Status: TestEnded}
	require.NoError(t, s.WriteTest(ctx, second))
	require.NoError(t, s.WriteTest(ctx, first))
	require.NoError(t, s.WriteTest(ctx, first))

	tests, err := s.ReadTests(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []Test{first, second}, tests)

	none, err := s.ReadTests(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWriteTest_RequiresRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteTest(context.Background(), Test{RunID: "ghost", Seq: 1, Kind: "test", Status: TestEnded})
	assert.Error(t, err)
}

func TestTestOutcome(t *testing.T) {
	assert.Equal(t, "aborted", Test{Status: TestAborted, Fail: 1}.Outcome())
	assert.Equal(t, "failed", Test{Status: TestEnded, Fail: 1}.Outcome())
	assert.Equal(t, "passed", Test{Status: TestEnded, Pass: 2}.Outcome())
}

func TestParseTime(t *testing.T) {
	got, err := parseTime(formatTime(t0))
	require.NoError(t, err)
	assert.True(t, got.Equal(t0))

	zero, err := parseTime("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", formatTime(time.Time{}))

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}
