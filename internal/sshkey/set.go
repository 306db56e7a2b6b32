// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package sshkey

import (
	"bufio"
	"fmt"
	"strings"
)

// maxLine bounds a single key line.
const maxLine = 1 << 20

// Set is an insertion-ordered set of key lines. Keys are opaque: two lines
// are the same key when their trimmed text is identical. The zero value is
// ready to use.
type Set struct {
	order []string
	index map[string]struct{}
}

// NewSet returns a Set holding the given keys, in order, without duplicates.
func NewSet(keys ...string) Set {
	var s Set
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key unless it is blank or already present. It reports whether
// the set changed.
func (s *Set) Add(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.order = append(s.order, key)
	return true
}

// Has reports whether key is in the set.
func (s Set) Has(key string) bool {
	_, ok := s.index[strings.TrimSpace(key)]
	return ok
}

// Len returns the number of keys.
func (s Set) Len() int { return len(s.order) }

// Keys returns a copy of the keys in insertion order.
func (s Set) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Difference returns the keys of s that are not in other, keeping the order of s.
func (s Set) Difference(other Set) Set {
	var out Set
	for _, k := range s.order {
		if !other.Has(k) {
			out.Add(k)
		}
	}
	return out
}

// Split turns raw newline separated key material into a Set. Blank lines
// and comment lines starting with '#' are dropped. A line longer than the
// scanner limit fails the whole split rather than yielding a partial set.
func Split(raw string) (Set, error) {
	var s Set
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.Add(line)
	}
	if err := sc.Err(); err != nil {
		return Set{}, fmt.Errorf("split key lines: %w", err)
	}
	return s, nil
}
