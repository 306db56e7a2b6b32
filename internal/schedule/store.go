// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package schedule persists the list of key synchronization entries as a
// plain text file, one `user|cron|url` entry per line, and exposes the
// modification marker the daemon polls to detect changes.
package schedule

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultPath is where the schedule lives unless configured otherwise.
const DefaultPath = "/etc/keysync/schedule"

// Version is an opaque marker of the persisted schedule. Two versions are
// equal when the schedule has not been modified in between (as far as the
// filesystem's modification time can tell).
type Version struct {
	modTime time.Time
}

// Equal reports whether v and o mark the same schedule state.
func (v Version) Equal(o Version) bool { return v.modTime.Equal(o.modTime) }

func (v Version) String() string { return v.modTime.UTC().Format(time.RFC3339Nano) }

// VersionAt builds a Version from a modification time. Stores other than
// FileStore use it to produce markers.
func VersionAt(t time.Time) Version { return Version{modTime: t} }

// Store is what the daemon needs from the persisted schedule.
type Store interface {
	EnsureExists() error
	ReadLines() ([]string, error)
	Version() (Version, error)
}

// FileStore keeps the schedule in a single file on fs.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a FileStore for path on fs. An empty path selects
// DefaultPath.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{fs: fs, path: path}
}

// Path returns the schedule file location.
func (s *FileStore) Path() string { return s.path }

// EnsureExists creates the schedule file, and its directory, when absent.
func (s *FileStore) EnsureExists() error {
	if _, err := s.fs.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat schedule %s: %w", s.path, err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create schedule directory: %w", err)
	}
	f, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create schedule %s: %w", s.path, err)
	}
	return f.Close()
}

// ReadLines returns every line of the schedule, blank ones included.
func (s *FileStore) ReadLines() ([]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", s.path, err)
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan schedule %s: %w", s.path, err)
	}
	return lines, nil
}

// Version returns the current modification marker of the schedule.
func (s *FileStore) Version() (Version, error) {
	fi, err := s.fs.Stat(s.path)
	if err != nil {
		return Version{}, fmt.Errorf("stat schedule %s: %w", s.path, err)
	}
	return Version{modTime: fi.ModTime()}, nil
}
