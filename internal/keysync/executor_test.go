// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package keysync

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toeirei/keysync/internal/authkeys"
	"github.com/toeirei/keysync/internal/fetch"
	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/sshkey"
)

const keyFile = "/home/alice/.ssh/authorized_keys"

type fakeFetcher struct {
	body  string
	err   error
	calls int
}

func (f *fakeFetcher) GetKeys(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.body, f.err
}

type fakeFiles struct {
	current   sshkey.Set
	readErr   error
	createErr error
	writeErr  error
	written   []sshkey.Set
}

func (f *fakeFiles) GetCurrentKeys(string) (sshkey.Set, error) { return f.current, f.readErr }
func (f *fakeFiles) CreateAccountKeyFile(string) error          { return f.createErr }
func (f *fakeFiles) WriteKeys(keys sshkey.Set, _ string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, keys)
	return nil
}

type fakeRecorder struct {
	outcomes []Outcome
	err      error
}

func (r *fakeRecorder) Record(_ context.Context, o Outcome) error {
	r.outcomes = append(r.outcomes, o)
	return r.err
}

func aliceJob() job.Job {
	return job.Job{User: "alice", SourceURL: "https://example.com/alice.keys"}
}

func memStore(t *testing.T, initial string) (*authkeys.FileStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if initial != "" {
		require.NoError(t, afero.WriteFile(fs, keyFile, []byte(initial), 0o600))
	}
	lookup := func(name string) (authkeys.Account, error) {
		if name != "alice" {
			return authkeys.Account{}, errors.New("unknown user")
		}
		return authkeys.Account{Name: "alice", Home: "/home/alice"}, nil
	}
	return authkeys.NewFileStore(fs, authkeys.WithLookup(lookup), authkeys.WithChown(false)), fs
}

func quietLogger() (*clog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := clog.New(&buf)
	l.SetLevel(clog.DebugLevel)
	return l, &buf
}

func TestExecute_AppendsOnlyMissingKeys(t *testing.T) {
	files, fs := memStore(t, "A\nB\n")
	logger, _ := quietLogger()
	e := NewExecutor(&fakeFetcher{body: "B\nC\n"}, files, WithLogger(logger))

	o := e.Execute(context.Background(), aliceJob())
	require.Equal(t, StateDone, o.State)
	require.NoError(t, o.Err)
	assert.Equal(t, 1, o.Added)

	data, err := afero.ReadFile(fs, keyFile)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\nC\n", string(data))
}

func TestExecute_IsIdempotent(t *testing.T) {
	files, fs := memStore(t, "")
	logger, _ := quietLogger()
	e := NewExecutor(&fakeFetcher{body: "A\nB\n"}, files, WithLogger(logger))

	first := e.Execute(context.Background(), aliceJob())
	require.Equal(t, StateDone, first.State)
	assert.Equal(t, 2, first.Added)

	second := e.Execute(context.Background(), aliceJob())
	require.Equal(t, StateDone, second.State)
	assert.Equal(t, 0, second.Added)

	data, err := afero.ReadFile(fs, keyFile)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", string(data))
}

func TestExecute_FetchFailureLeavesFileUntouched(t *testing.T) {
	files, fs := memStore(t, "A\n")
	logger, buf := quietLogger()
	e := NewExecutor(&fakeFetcher{err: errors.New("connection refused")}, files, WithLogger(logger))

	o := e.Execute(context.Background(), aliceJob())
	assert.Equal(t, StateFailed, o.State)
	assert.Equal(t, StateFetching, o.FailedIn)
	assert.EqualError(t, o.Err, "connection refused")
	assert.Contains(t, buf.String(), "failed to fetch keys")

	data, err := afero.ReadFile(fs, keyFile)
	require.NoError(t, err)
	assert.Equal(t, "A\n", string(data))
}

func TestExecute_OversizedResponseWritesNothing(t *testing.T) {
	line := "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIKeysyncTestKeyMaterial user@host\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat(line, (1<<20)/len(line)+10)))
	}))
	defer srv.Close()

	files, fs := memStore(t, "A\n")
	logger, _ := quietLogger()
	e := NewExecutor(fetch.NewHTTPFetcher(time.Second, ""), files, WithLogger(logger))

	o := e.Execute(context.Background(), job.Job{User: "alice", SourceURL: srv.URL})
	assert.Equal(t, StateFailed, o.State)
	assert.Equal(t, StateFetching, o.FailedIn)
	assert.ErrorIs(t, o.Err, fetch.ErrTooLarge)

	data, err := afero.ReadFile(fs, keyFile)
	require.NoError(t, err)
	assert.Equal(t, "A\n", string(data))
}

func TestExecute_FailureStates(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name  string
		files *fakeFiles
		want  State
	}{
		{"read existing", &fakeFiles{readErr: boom}, StateDiffing},
		{"create file", &fakeFiles{createErr: boom}, StateWriting},
		{"append", &fakeFiles{writeErr: boom}, StateWriting},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, _ := quietLogger()
			e := NewExecutor(&fakeFetcher{body: "A\n"}, tc.files, WithLogger(logger))
			o := e.Execute(context.Background(), aliceJob())
			assert.Equal(t, StateFailed, o.State)
			assert.Equal(t, tc.want, o.FailedIn)
			assert.ErrorIs(t, o.Err, boom)
			assert.Empty(t, tc.files.written)
		})
	}
}

func TestExecute_EmptyDeltaStillSucceeds(t *testing.T) {
	files := &fakeFiles{current: sshkey.NewSet("A")}
	logger, _ := quietLogger()
	e := NewExecutor(&fakeFetcher{body: "A\n"}, files, WithLogger(logger))

	o := e.Execute(context.Background(), aliceJob())
	assert.Equal(t, StateDone, o.State)
	assert.Equal(t, 0, o.Added)
	require.Len(t, files.written, 1)
	assert.Equal(t, 0, files.written[0].Len())
}

func TestExecute_RecordsOutcomes(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db locked")}
	logger, buf := quietLogger()
	e := NewExecutor(&fakeFetcher{err: errors.New("offline")}, &fakeFiles{}, WithLogger(logger), WithRecorder(rec))

	o := e.Execute(context.Background(), aliceJob())
	assert.Equal(t, StateFailed, o.State)
	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, "alice", rec.outcomes[0].User)
	assert.Contains(t, buf.String(), "unable to record sync outcome")
}

func TestPlan(t *testing.T) {
	files := &fakeFiles{current: sshkey.NewSet("A", "B")}
	e := NewExecutor(&fakeFetcher{body: "B\nC\n"}, files)

	toAdd, err := e.Plan(context.Background(), "alice", "https://example.com/alice.keys")
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, toAdd.Keys())
	assert.Empty(t, files.written)

	_, err = NewExecutor(&fakeFetcher{err: errors.New("x")}, files).Plan(context.Background(), "alice", "u")
	assert.Error(t, err)
}

func TestSync(t *testing.T) {
	files := &fakeFiles{}
	logger, _ := quietLogger()
	e := NewExecutor(&fakeFetcher{body: "A\n"}, files, WithLogger(logger))

	o := e.Sync(context.Background(), "alice", "https://example.com/alice.keys")
	assert.Equal(t, StateDone, o.State)
	assert.Equal(t, "https://example.com/alice.keys", o.SourceURL)
}
