package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// Config tunes the selection behavior. The thresholds are product tuning
// knobs, not architecture; hosts may lower them for chattier auto-tagging.
type Config struct {
	// SelectThreshold is the minimum final score for a theme to be
	// auto-attached. Default: 0.25.
	SelectThreshold float64

	// FallbackThreshold applies when nothing clears SelectThreshold: the
	// single top-scoring theme is attached if it exceeds this. Default: 0.15.
	FallbackThreshold float64

	// Weights is the sub-score blend; zero value means DefaultWeights.
	Weights Weights
}

// DefaultConfig returns the canonical thresholds and weights.
func DefaultConfig() Config {
	return Config{
		SelectThreshold:   0.25,
		FallbackThreshold: 0.15,
		Weights:           DefaultWeights(),
	}
}

// Analyzer is the engine façade: it orchestrates tokenization, scoring,
// threshold selection, and hierarchy optimization, and exposes the learning
// feedback entry point. It holds no per-call state; the injected learning
// store is the only mutable collaborator.
type Analyzer struct {
	store     storage.LearningStore
	tokenizer *Tokenizer
	scorer    *Scorer
	cfg       Config
}

// New creates an analyzer over the given learning store and term extractor.
// A nil extractor degrades to plain word splitting.
func New(store storage.LearningStore, extractor TermExtractor, cfg Config) *Analyzer {
	if cfg.SelectThreshold == 0 && cfg.FallbackThreshold == 0 {
		defaults := DefaultConfig()
		defaults.Weights = cfg.Weights
		cfg = defaults
	}
	return &Analyzer{
		store:     store,
		tokenizer: NewTokenizer(extractor),
		scorer:    NewScorer(cfg.Weights),
		cfg:       cfg,
	}
}

// AnalyzeText scores text against the theme catalog and returns the IDs of
// the themes to auto-attach, in descending-score order.
//
// Empty text or an empty catalog short-circuits to an empty result without
// touching the learning store. Otherwise every call records the extracted
// terms into the frequency table as a side effect, whether or not any theme
// is selected; scoring reads the tables as they were before this call, so
// repeated analysis of the same text is idempotent until the next edit.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string, themes []*types.Theme) ([]string, error) {
	relevances, err := a.ScoreThemes(ctx, text, themes)
	if err != nil {
		return nil, err
	}
	if len(relevances) == 0 {
		return []string{}, nil
	}

	selected := make([]string, 0, len(relevances))
	for _, rel := range relevances {
		if rel.Score > a.cfg.SelectThreshold {
			selected = append(selected, rel.ThemeID)
		}
	}

	if len(selected) == 0 && relevances[0].Score > a.cfg.FallbackThreshold {
		selected = []string{relevances[0].ThemeID}
	}

	scores := make(map[string]float64, len(relevances))
	for _, rel := range relevances {
		scores[rel.ThemeID] = rel.Score
	}

	return OptimizeHierarchy(selected, themes, scores), nil
}

// ScoreThemes runs the scoring pipeline and returns the full relevance table
// sorted by descending score, without applying thresholds or hierarchy
// optimization. Diagnostic surface for hosts that want the breakdown.
func (a *Analyzer) ScoreThemes(ctx context.Context, text string, themes []*types.Theme) ([]types.ThemeRelevance, error) {
	if text == "" || len(themes) == 0 {
		return nil, nil
	}

	analysis := a.tokenizer.Analyze(text)

	frequentTerms, err := a.store.FrequentTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("analyzer: failed to read frequent terms: %w", err)
	}
	patterns, err := a.store.UserPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("analyzer: failed to read user patterns: %w", err)
	}

	// Vocabulary learning rides along with every analysis, not just the
	// ones that end up selecting a theme.
	if err := a.store.UpdateTermFrequency(ctx, analysis.KeyTerms); err != nil {
		return nil, fmt.Errorf("analyzer: failed to record term frequencies: %w", err)
	}

	relevances := make([]types.ThemeRelevance, 0, len(themes))
	for _, theme := range themes {
		relevances = append(relevances, a.scorer.Score(&analysis, theme, themes, patterns, frequentTerms))
	}

	sort.SliceStable(relevances, func(i, j int) bool {
		return relevances[i].Score > relevances[j].Score
	})
	return relevances, nil
}

// LearnFromMemoEdit reinforces word→theme patterns after a user-initiated
// theme change. It is a no-op for empty content or when the two theme lists
// are equal as unordered collections. This is the only path by which the
// engine improves over time.
func (a *Analyzer) LearnFromMemoEdit(ctx context.Context, content string, oldThemes, newThemes []string) error {
	if content == "" || sameThemeSet(oldThemes, newThemes) {
		return nil
	}

	analysis := a.tokenizer.Analyze(content)
	if err := a.store.LearnFromUserAction(ctx, analysis.KeyTerms, oldThemes, newThemes); err != nil {
		return fmt.Errorf("analyzer: failed to learn from memo edit: %w", err)
	}
	return nil
}

// MostRelevantThemeForWord returns the theme most strongly associated with
// a single word, or "" when the word has never been reinforced.
func (a *Analyzer) MostRelevantThemeForWord(ctx context.Context, word string) (string, error) {
	return a.store.MostRelevantThemeForWord(ctx, word)
}

// ResetAllData clears both learning tables.
func (a *Analyzer) ResetAllData(ctx context.Context) error {
	return a.store.Reset(ctx)
}

// sameThemeSet reports whether two theme ID lists are equal ignoring order
// and duplicates.
func sameThemeSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}
