// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import "testing"

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := GetAvailableLocales()
	for _, k := range []string{"en", "de"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present", k)
		}
	}
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")

	if got := T("cli.jobs.none"); got != "No jobs scheduled" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if got := T("cli.get.added", 2, "alice"); got != "Added 2 key(s) to alice" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	SetLang("de")
	defer Init("en")
	if got := T("cli.jobs.none"); got != "Keine Aufträge geplant" {
		t.Fatalf("expected German translation, got %q", got)
	}
}

func TestT_UnknownIDAndLanguage(t *testing.T) {
	Init("xx")
	defer Init("en")
	if got := T("cli.jobs.none"); got != "No jobs scheduled" {
		t.Fatalf("expected English fallback, got %q", got)
	}
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("expected id fallback, got %q", got)
	}
}
