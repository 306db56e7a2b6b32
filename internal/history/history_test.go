// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toeirei/keysync/internal/keysync"
)

var _ keysync.Recorder = (*Store)(nil)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, keysync.Outcome{
		User: "alice", SourceURL: "https://github.com/alice.keys",
		State: keysync.StateDone, Added: 2, StartedAt: start, Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, s.Record(ctx, keysync.Outcome{
		User: "bob", SourceURL: "https://example.com/bob.keys",
		State: keysync.StateFailed, FailedIn: keysync.StateFetching,
		Err: errors.New("connection refused"), StartedAt: start.Add(time.Minute),
	}))

	runs, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "bob", runs[0].User)
	assert.Equal(t, keysync.StateFailed, runs[0].State)
	assert.Equal(t, keysync.StateFetching, runs[0].FailedIn)
	assert.Equal(t, "connection refused", runs[0].Error)

	assert.Equal(t, "alice", runs[1].User)
	assert.Equal(t, 2, runs[1].Added)
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
	assert.True(t, start.Equal(runs[1].StartedAt))
}

func TestRecent_Limit(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for _, u := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, keysync.Outcome{User: u, State: keysync.StateDone, StartedAt: time.Now()}))
	}
	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].User)
	assert.Equal(t, "b", runs[1].User)
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
}

func TestOpen_MapsPostgresDriver(t *testing.T) {
	orig := sqlOpenFunc
	defer func() { sqlOpenFunc = orig }()

	var gotDriver string
	sqlOpenFunc = func(driver, dsn string) (*sql.DB, error) {
		gotDriver = driver
		return nil, errors.New("no server")
	}
	_, err := Open(context.Background(), "postgres", "postgres://localhost/keysync")
	require.Error(t, err)
	assert.Equal(t, "pgx", gotDriver)
}

func TestCreateBunDB_VariousDialects(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	for _, c := range []string{"sqlite", "postgres", "mysql"} {
		assert.NotNil(t, createBunDB(sqlDB, c), c)
	}
}
