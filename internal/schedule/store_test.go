// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package schedule

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_EnsureExistsCreatesEmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(fs, "/etc/keysync/schedule")

	require.NoError(t, s.EnsureExists())
	lines, err := s.ReadLines()
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Existing content is left alone.
	require.NoError(t, afero.WriteFile(fs, s.Path(), []byte("a|@daily|u\n"), 0o644))
	require.NoError(t, s.EnsureExists())
	lines, err = s.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"a|@daily|u"}, lines)
}

func TestFileStore_EnsureExistsFailsOnReadOnlyFs(t *testing.T) {
	s := NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/etc/keysync/schedule")
	require.Error(t, s.EnsureExists())
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewFileStore(afero.NewMemMapFs(), "").Path())
}

func TestFileStore_ReadLinesKeepsBlankLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(fs, "/s")
	require.NoError(t, afero.WriteFile(fs, "/s", []byte("a|@daily|u\r\n\n  \nb|@hourly|v"), 0o644))

	lines, err := s.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"a|@daily|u", "", "  ", "b|@hourly|v"}, lines)
}

func TestFileStore_ReadMissingFails(t *testing.T) {
	s := NewFileStore(afero.NewMemMapFs(), "/missing")
	_, err := s.ReadLines()
	require.Error(t, err)
	_, err = s.Version()
	require.Error(t, err)
}

func TestFileStore_VersionTracksModTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(fs, "/s")
	require.NoError(t, s.EnsureExists())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Chtimes("/s", base, base))
	v1, err := s.Version()
	require.NoError(t, err)
	v2, err := s.Version()
	require.NoError(t, err)
	assert.True(t, v1.Equal(v2))

	later := base.Add(time.Minute)
	require.NoError(t, fs.Chtimes("/s", later, later))
	v3, err := s.Version()
	require.NoError(t, err)
	assert.False(t, v1.Equal(v3))
	assert.True(t, v3.Equal(VersionAt(later)))
}
