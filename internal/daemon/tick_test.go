// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/keysync"
)

func TestTick_RunsDueJobsInOrder(t *testing.T) {
	reg := job.Rebuild([]string{
		"alice|* * * * *|https://example.com/alice.keys",
		"bob|@daily|https://example.com/bob.keys",
		"carol|*/5 * * * *|https://example.com/carol.keys",
	}, job.NewCompiler(nil, nil))
	exec := &fakeExec{}

	outcomes := NewTickEngine(exec).Tick(context.Background(), reg, localTime(10, 5, 30))

	assert.Equal(t, []string{"alice", "carol"}, exec.ran)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "alice", outcomes[0].User)
	assert.Equal(t, "carol", outcomes[1].User)
}

func TestTick_FailureDoesNotAffectSiblings(t *testing.T) {
	reg := job.Rebuild([]string{
		"alice|* * * * *|a",
		"bob|* * * * *|b",
		"carol|* * * * *|c",
	}, job.NewCompiler(nil, nil))
	exec := &fakeExec{fail: map[string]bool{"bob": true}}

	outcomes := NewTickEngine(exec).Tick(context.Background(), reg, localTime(8, 0, 0))

	assert.Equal(t, []string{"alice", "bob", "carol"}, exec.ran)
	require.Len(t, outcomes, 3)
	assert.Equal(t, keysync.StateDone, outcomes[0].State)
	assert.Equal(t, keysync.StateFailed, outcomes[1].State)
	assert.Equal(t, keysync.StateDone, outcomes[2].State)
}

func TestTick_NothingDue(t *testing.T) {
	reg := job.Rebuild([]string{"alice|@daily|a"}, job.NewCompiler(nil, nil))
	exec := &fakeExec{}

	assert.Empty(t, NewTickEngine(exec).Tick(context.Background(), reg, localTime(12, 0, 0)))
	assert.Empty(t, exec.ran)

	var empty *job.Registry
	assert.Empty(t, NewTickEngine(exec).Tick(context.Background(), empty, localTime(0, 0, 0)))
}
