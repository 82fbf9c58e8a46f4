// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"slices"
	"testing"
)

func TestFuzzyMatchSubstring(t *testing.T) {
	result := FuzzyMatch("Fix the login form", []rune("login"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for substring match")
	}
	if !slices.Equal(result.Positions, []int{8, 9, 10, 11, 12}) {
		t.Errorf("Positions = %v, want [8 9 10 11 12]", result.Positions)
	}
}

func TestFuzzyMatchNonContiguous(t *testing.T) {
	result := FuzzyMatch("alice@example.test", []rune("aex"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for non-contiguous match")
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	result := FuzzyMatch("ALICE ANDERSON", []rune("Alice"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected case-insensitive match, got score=%d", result.Score)
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	result := FuzzyMatch("bob@example.test", []rune("xyz"), nil)
	if result.Score != 0 || len(result.Positions) != 0 {
		t.Errorf("FuzzyMatch = %+v, want zero result", result)
	}
}

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	if result := FuzzyMatch("anything", nil, nil); result.Score != 0 {
		t.Errorf("Score = %d, want 0 for empty pattern", result.Score)
	}
}

func TestFuzzyRankBlankPatternKeepsOrder(t *testing.T) {
	candidates := []string{"carol", "alice", "bob"}
	if got := FuzzyRank(candidates, "  "); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("FuzzyRank = %v, want [0 1 2]", got)
	}
}

func TestFuzzyRankFiltersAndOrders(t *testing.T) {
	candidates := []string{"Bob <bob@example.test>", "Alice <alice@example.test>", "Alan <al@example.test>"}
	got := FuzzyRank(candidates, "alice")
	if len(got) == 0 || got[0] != 1 {
		t.Fatalf("FuzzyRank = %v, want Alice first", got)
	}
	if slices.Contains(got, 0) {
		t.Errorf("FuzzyRank = %v, Bob should not match", got)
	}
}
