package storage

import (
	"strings"
	"unicode/utf8"
)

// NormalizeTerm lowercases and trims a term the way both learning tables
// expect before matching or counting.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// FilterLearnableTerms normalizes a term batch and drops entries shorter
// than MinTermLength. Length is measured in runes so short Korean terms
// survive the floor the same way Latin ones do. Order is preserved.
func FilterLearnableTerms(terms []string) []string {
	filtered := make([]string, 0, len(terms))
	for _, term := range terms {
		normalized := NormalizeTerm(term)
		if utf8.RuneCountInString(normalized) < MinTermLength {
			continue
		}
		filtered = append(filtered, normalized)
	}
	return filtered
}

// ContiguousPhrases derives every contiguous 2-word and 3-word phrase from a
// term sequence. Learning reinforces these alongside single words so
// multi-word domain expressions are picked up, not just their parts.
func ContiguousPhrases(terms []string) []string {
	if len(terms) < 2 {
		return nil
	}
	var phrases []string
	for i := 0; i < len(terms)-1; i++ {
		phrases = append(phrases, terms[i]+" "+terms[i+1])
		if i < len(terms)-2 {
			phrases = append(phrases, terms[i]+" "+terms[i+1]+" "+terms[i+2])
		}
	}
	return phrases
}

// DiffThemes splits a theme edit into (removed, added) sets relative to the
// old list. Removed themes are surfaced for completeness even though the
// current learning model only reinforces added ones.
func DiffThemes(oldThemes, newThemes []string) (removed, added []string) {
	oldSet := make(map[string]struct{}, len(oldThemes))
	for _, id := range oldThemes {
		oldSet[id] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newThemes))
	for _, id := range newThemes {
		newSet[id] = struct{}{}
	}
	for _, id := range oldThemes {
		if _, ok := newSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	for _, id := range newThemes {
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	return removed, added
}
