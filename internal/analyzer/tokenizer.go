// Package analyzer implements the theme relevance engine: tokenization,
// multi-factor scoring, hierarchy-aware selection, and the learning feedback
// entry point that improves scoring from user theme edits.
package analyzer

import (
	"regexp"
	"strings"
)

// nonWordPattern matches every rune that is not a word character, whitespace,
// or Hangul (syllables and compatibility jamo). Matches become spaces, which
// strips punctuation while preserving Korean and Latin text.
var nonWordPattern = regexp.MustCompile(`[^\w\s\x{AC00}-\x{D7A3}\x{3131}-\x{3163}]`)

// Analysis is the tokenized view of one memo's text, produced once per
// analysis call and shared by every scoring sub-step.
type Analysis struct {
	Nouns      []string
	Verbs      []string
	Adjectives []string
	Entities   []string

	// Phrases holds clause-level strings plus, always last, the trimmed
	// original input. Keyword matching relies on that final element for
	// whole-text containment checks.
	Phrases []string

	// KeyTerms is the deduplicated union of raw words and all tagged buckets,
	// in first-seen order.
	KeyTerms []string
}

// OriginalText returns the trimmed full input (the final phrase), or "" for
// degenerate input.
func (a *Analysis) OriginalText() string {
	if len(a.Phrases) == 0 {
		return ""
	}
	return a.Phrases[len(a.Phrases)-1]
}

// Tokenizer turns raw memo text into an Analysis using a pluggable
// grammatical tagger.
type Tokenizer struct {
	extractor TermExtractor
}

// NewTokenizer creates a tokenizer around the given extractor. A nil
// extractor falls back to NopExtractor.
func NewTokenizer(extractor TermExtractor) *Tokenizer {
	if extractor == nil {
		extractor = NopExtractor{}
	}
	return &Tokenizer{extractor: extractor}
}

// Analyze tokenizes text. Degenerate input produces a zero-valued Analysis;
// tagger failures degrade to plain word splitting rather than erroring.
func (t *Tokenizer) Analyze(text string) Analysis {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Analysis{}
	}

	normalized := nonWordPattern.ReplaceAllString(strings.ToLower(text), " ")
	words := strings.Fields(normalized)

	extraction, err := t.extractor.Extract(normalized)
	if err != nil {
		// Best-effort tagging: raw words carry the analysis on their own.
		extraction = Extraction{}
	}

	analysis := Analysis{
		Nouns:      extraction.Nouns,
		Verbs:      extraction.Verbs,
		Adjectives: extraction.Adjectives,
		Entities:   extraction.Entities,
		Phrases:    append(extraction.Clauses, trimmed),
	}

	seen := make(map[string]struct{})
	for _, group := range [][]string{words, extraction.Nouns, extraction.Verbs, extraction.Adjectives, extraction.Entities} {
		for _, term := range group {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			analysis.KeyTerms = append(analysis.KeyTerms, term)
		}
	}

	return analysis
}
