package analyzer

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// Extraction is the output of a grammatical tagging pass: part-of-speech
// buckets, multi-word entities, and clause-level phrases. Any or all fields
// may be empty for text the tagger doesn't understand.
type Extraction struct {
	Nouns      []string
	Verbs      []string
	Adjectives []string
	Entities   []string
	Clauses    []string
}

// TermExtractor is the pluggable tagging capability behind the tokenizer.
// Implementations are best-effort: unsupported languages should produce an
// empty Extraction, not an error. A returned error is also tolerated by the
// tokenizer, which degrades to plain word splitting.
type TermExtractor interface {
	Extract(text string) (Extraction, error)
}

// ProseExtractor tags text with the prose NLP library. It understands
// English; Korean and other unsupported scripts simply yield empty buckets,
// which the tokenizer tolerates.
type ProseExtractor struct{}

// NewProseExtractor returns the default prose-backed extractor.
func NewProseExtractor() *ProseExtractor {
	return &ProseExtractor{}
}

// Extract implements TermExtractor. Nouns, verbs, and adjectives come from
// the Penn Treebank tags prose assigns (NN*, VB*, JJ*); entities combine
// prose's NER output with contiguous noun runs; clauses are sentences.
func (e *ProseExtractor) Extract(text string) (Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return Extraction{}, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return Extraction{}, err
	}

	var result Extraction

	var nounRun []string
	flushRun := func() {
		if len(nounRun) > 1 {
			result.Entities = append(result.Entities, strings.Join(nounRun, " "))
		}
		nounRun = nounRun[:0]
	}

	for _, tok := range doc.Tokens() {
		switch {
		case strings.HasPrefix(tok.Tag, "NN"):
			result.Nouns = append(result.Nouns, tok.Text)
			nounRun = append(nounRun, tok.Text)
			continue
		case strings.HasPrefix(tok.Tag, "VB"):
			result.Verbs = append(result.Verbs, tok.Text)
		case strings.HasPrefix(tok.Tag, "JJ"):
			result.Adjectives = append(result.Adjectives, tok.Text)
		}
		flushRun()
	}
	flushRun()

	for _, ent := range doc.Entities() {
		result.Entities = append(result.Entities, ent.Text)
	}

	for _, sent := range doc.Sentences() {
		result.Clauses = append(result.Clauses, sent.Text)
	}

	return result, nil
}

// NopExtractor is the fallback for environments without a usable tagger.
// It contributes nothing; raw whitespace-split words still flow through the
// tokenizer, so analysis degrades instead of failing.
type NopExtractor struct{}

// Extract implements TermExtractor.
func (NopExtractor) Extract(string) (Extraction, error) {
	return Extraction{}, nil
}
