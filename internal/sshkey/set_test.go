// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package sshkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_AddIsIdempotent(t *testing.T) {
	var s Set
	require.True(t, s.Add("ssh-ed25519 AAAA a"))
	require.False(t, s.Add("ssh-ed25519 AAAA a"))
	require.False(t, s.Add("  ssh-ed25519 AAAA a  "))
	require.False(t, s.Add("   "))
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Has(" ssh-ed25519 AAAA a"))
}

func TestSet_Difference(t *testing.T) {
	existing := NewSet("A", "B")
	fetched := NewSet("B", "C")

	toAdd := fetched.Difference(existing)
	assert.Equal(t, []string{"C"}, toAdd.Keys())

	for _, k := range toAdd.Keys() {
		existing.Add(k)
	}
	assert.Equal(t, []string{"A", "B", "C"}, existing.Keys())
	assert.Equal(t, 0, fetched.Difference(existing).Len())
}

func TestSet_KeysReturnsCopy(t *testing.T) {
	s := NewSet("A")
	keys := s.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"A"}, s.Keys())
}

func TestSplit(t *testing.T) {
	raw := "ssh-ed25519 AAAA one\r\n\n# comment\n  ssh-rsa BBBB two  \nssh-ed25519 AAAA one\n"
	s, err := Split(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"ssh-ed25519 AAAA one", "ssh-rsa BBBB two"}, s.Keys())

	empty, err := Split("")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestSplit_OverlongLineFails(t *testing.T) {
	raw := "ssh-ed25519 AAAA one\nssh-rsa " + strings.Repeat("B", maxLine+1) + "\n"
	s, err := Split(raw)
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}
