// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks that every message ID passed to i18n.T exists in the
// English locale, that every other locale defines the same IDs, and reports
// IDs nobody uses.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var usedKeyRe = regexp.MustCompile(`i18n\.T\(\s*"([^"]+)"`)

// Report is the outcome of one lint run.
type Report struct {
	// Undefined IDs are used in code but missing from the primary locale.
	Undefined []string
	// Missing maps a secondary locale file to the IDs it lacks.
	Missing map[string][]string
	// Orphaned IDs are defined in the primary locale but never used.
	Orphaned []string
}

// Failed reports whether the run found problems that break output.
func (r Report) Failed() bool {
	return len(r.Undefined) > 0 || len(r.Missing) > 0
}

func main() {
	r, err := lint(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(2)
	}
	for _, id := range r.Undefined {
		fmt.Printf("undefined: %s\n", id)
	}
	files := make([]string, 0, len(r.Missing))
	for f := range r.Missing {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		for _, id := range r.Missing[f] {
			fmt.Printf("missing in %s: %s\n", f, id)
		}
	}
	for _, id := range r.Orphaned {
		fmt.Printf("orphaned: %s\n", id)
	}
	if r.Failed() {
		os.Exit(1)
	}
	fmt.Println("translation files are consistent")
}

func lint(root string) (Report, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return Report{}, err
	}
	dir := filepath.Join(root, localesDir)
	primary, err := loadKeysFromLocale(filepath.Join(dir, primaryLocale))
	if err != nil {
		return Report{}, fmt.Errorf("load primary locale: %w", err)
	}

	r := Report{Missing: map[string][]string{}}
	for id := range used {
		if _, ok := primary[id]; !ok {
			r.Undefined = append(r.Undefined, id)
		}
	}
	for id := range primary {
		if _, ok := used[id]; !ok {
			r.Orphaned = append(r.Orphaned, id)
		}
	}

	locales, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return Report{}, err
	}
	for _, file := range locales {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return Report{}, fmt.Errorf("load %s: %w", file, err)
		}
		var missing []string
		for id := range primary {
			if _, ok := keys[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			r.Missing[filepath.Base(file)] = missing
		}
	}
	sort.Strings(r.Undefined)
	sort.Strings(r.Orphaned)
	return r, nil
}

// findUsedKeys collects the literal IDs passed to i18n.T in non-test Go
// files below root, skipping tools and example trees.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML locale and returns its message IDs.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML turns nested maps into dot-separated IDs.
func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	m, ok := node.(map[string]interface{})
	if !ok {
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
		return
	}
	for k, v := range m {
		id := k
		if prefix != "" {
			id = prefix + "." + k
		}
		flattenYAML(id, v, keys)
	}
}
