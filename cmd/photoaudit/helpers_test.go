package main

import (
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	got, err := parseSince("2026-01-15")
	if err != nil {
		t.Fatalf("parseSince: %v", err)
	}
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("since = %v, want %v", got, want)
	}

	if got, err := parseSince(""); err != nil || got != nil {
		t.Errorf("empty since = %v, %v", got, err)
	}
	if _, err := parseSince("15/01/2026"); err == nil {
		t.Error("expected error for bad format")
	}
}

func TestParseUntilIsInclusive(t *testing.T) {
	got, err := parseUntil("2026-01-15")
	if err != nil {
		t.Fatalf("parseUntil: %v", err)
	}
	endOfDay := time.Date(2026, 1, 15, 23, 59, 59, 999000000, time.UTC)
	if !got.Equal(endOfDay) {
		t.Errorf("until = %v, want %v", got, endOfDay)
	}

	if got, err := parseUntil(" "); err != nil || got != nil {
		t.Errorf("blank until = %v, %v", got, err)
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"backfill", "cleanup", "orphans", "count", "backup", "subjects", "config"} {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}
