// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"sort"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is the outcome of matching one string against a
// pattern. Score is zero when there is no match; Positions are the
// rune offsets of the matched characters.
type FuzzyResult struct {
	Score     int
	Positions []int
}

var fuzzyInit sync.Once

// FuzzyMatch scores text against pattern with fzf's V2 algorithm,
// case-insensitively. An empty pattern never matches. slab may be nil;
// callers matching many candidates pass one from NewFuzzySlab to reuse
// its buffers.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 || text == "" {
		return FuzzyResult{}
	}
	fuzzyInit.Do(func() { algo.Init("default") })

	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = append([]int(nil), (*positions)...)
		sort.Ints(match.Positions)
	}
	return match
}

// NewFuzzySlab allocates reusable scratch space for FuzzyMatch.
func NewFuzzySlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// FuzzyRank returns the indexes of candidates matching pattern, best
// first. Ties keep the candidates' original order. A blank pattern
// returns every index in order.
func FuzzyRank(candidates []string, pattern string) []int {
	pattern = strings.TrimSpace(pattern)
	indexes := make([]int, 0, len(candidates))
	if pattern == "" {
		for index := range candidates {
			indexes = append(indexes, index)
		}
		return indexes
	}

	slab := NewFuzzySlab()
	scores := make(map[int]int, len(candidates))
	for index, candidate := range candidates {
		if result := FuzzyMatch(candidate, []rune(pattern), slab); result.Score > 0 {
			indexes = append(indexes, index)
			scores[index] = result.Score
		}
	}
	sort.SliceStable(indexes, func(left, right int) bool {
		return scores[indexes[left]] > scores[indexes[right]]
	})
	return indexes
}
