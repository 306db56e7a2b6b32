// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package schedule

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Listed is a non-blank schedule line with its operator-facing ID. IDs count
// non-blank lines from 1 in file order. Err is set for lines that do not
// parse; they keep their ID so they can still be removed.
type Listed struct {
	ID    int
	Raw   string
	Entry Entry
	Err   error
}

// List returns every non-blank line of the schedule with its ID.
func (s *FileStore) List() ([]Listed, error) {
	lines, err := s.ReadLines()
	if err != nil {
		return nil, err
	}
	var out []Listed
	id := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		id++
		e, _, perr := ParseLine(line)
		out = append(out, Listed{ID: id, Raw: line, Entry: e, Err: perr})
	}
	return out, nil
}

// Append adds e as a new line at the end of the schedule.
func (s *FileStore) Append(e Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid schedule entry: %w", err)
	}
	if err := s.EnsureExists(); err != nil {
		return err
	}
	existing, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("read schedule %s: %w", s.path, err)
	}
	f, err := s.fs.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open schedule %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	line := e.String() + "\n"
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append to schedule %s: %w", s.path, err)
	}
	return nil
}

// Remove deletes the entries with the given IDs and rewrites the file.
// Blank lines are dropped in the rewrite. Unknown IDs abort without
// touching the file.
func (s *FileStore) Remove(ids ...int) (int, error) {
	listed, err := s.List()
	if err != nil {
		return 0, err
	}
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id < 1 || id > len(listed) {
			return 0, fmt.Errorf("unknown job id %d", id)
		}
		drop[id] = true
	}

	var b strings.Builder
	for _, l := range listed {
		if drop[l.ID] {
			continue
		}
		b.WriteString(l.Raw)
		b.WriteString("\n")
	}
	if err := afero.WriteFile(s.fs, s.path, []byte(b.String()), 0o644); err != nil {
		return 0, fmt.Errorf("rewrite schedule %s: %w", s.path, err)
	}
	return len(drop), nil
}

// SortedIDs returns ids ascending without duplicates.
func SortedIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
