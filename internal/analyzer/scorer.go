package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/Dr-Min/memotheme/pkg/types"
)

// Weights controls how the five sub-scores blend into a theme's final score.
type Weights struct {
	KeywordMatch     float64
	UserPattern      float64
	FrequencyBoost   float64
	ContextRelevance float64
	HierarchyBonus   float64
}

// DefaultWeights is the canonical blend.
func DefaultWeights() Weights {
	return Weights{
		KeywordMatch:     0.35,
		UserPattern:      0.25,
		FrequencyBoost:   0.15,
		ContextRelevance: 0.15,
		HierarchyBonus:   0.10,
	}
}

// Scorer computes one ThemeRelevance per candidate theme from a single
// tokenized Analysis plus the learning store's two tables.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. A zero-valued Weights falls back to the
// canonical defaults.
func NewScorer(weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score produces the relevance record for one theme. allThemes supplies the
// catalog snapshot the hierarchy bonus reads sibling counts from.
func (s *Scorer) Score(analysis *Analysis, theme *types.Theme, allThemes []*types.Theme,
	patterns []types.WordThemePattern, frequentTerms []types.FrequentTerm) types.ThemeRelevance {

	breakdown := types.ScoreBreakdown{
		KeywordMatch:     s.keywordMatch(analysis, theme.Keywords),
		UserPattern:      s.userPattern(analysis.KeyTerms, theme.ID, patterns),
		FrequencyBoost:   s.frequencyBoost(analysis.KeyTerms, frequentTerms),
		ContextRelevance: s.contextRelevance(analysis, theme),
		HierarchyBonus:   s.hierarchyBonus(theme, allThemes),
	}

	final := breakdown.KeywordMatch*s.weights.KeywordMatch +
		breakdown.UserPattern*s.weights.UserPattern +
		breakdown.FrequencyBoost*s.weights.FrequencyBoost +
		breakdown.ContextRelevance*s.weights.ContextRelevance +
		breakdown.HierarchyBonus*s.weights.HierarchyBonus

	return types.ThemeRelevance{
		ThemeID:   theme.ID,
		Score:     final,
		Breakdown: breakdown,
	}
}

// keywordMatch is a weighted containment test. Longer keywords weigh more,
// and each keyword contributes through exactly one tier, tested in
// decreasing specificity: whole input text (×1.5), any phrase (×1.2), any
// single term in either direction (×0.6), then partial sub-term overlap for
// multi-word keywords (×fraction×0.5).
func (s *Scorer) keywordMatch(analysis *Analysis, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	originalText := strings.ToLower(analysis.OriginalText())

	var totalWeight, matchedWeight float64
	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}

		weight := 1.0
		if length := utf8.RuneCountInString(kw); length > 1 {
			weight = 1 + float64(length)*0.1
		}
		totalWeight += weight

		if strings.Contains(originalText, kw) {
			matchedWeight += weight * 1.5
			continue
		}

		if containsInAnyPhrase(analysis.Phrases, kw) {
			matchedWeight += weight * 1.2
			continue
		}

		if matchesAnyTerm(analysis.KeyTerms, kw) {
			matchedWeight += weight * 0.6
			continue
		}

		subTerms := strings.Fields(kw)
		if len(subTerms) > 1 {
			matched := 0
			for _, sub := range subTerms {
				if matchesAnyTerm(analysis.KeyTerms, sub) {
					matched++
				}
			}
			if matched > 0 {
				fraction := float64(matched) / float64(len(subTerms))
				matchedWeight += weight * fraction * 0.5
			}
		}
	}

	if totalWeight == 0 {
		return 0
	}
	return min1(matchedWeight / totalWeight)
}

// userPattern scores the theme against learned word→theme reinforcements.
// Division by the full term count dilutes sparse matches on purpose: a
// single learned word inside a long memo is weak evidence.
func (s *Scorer) userPattern(terms []string, themeID string, patterns []types.WordThemePattern) float64 {
	if len(terms) == 0 || len(patterns) == 0 {
		return 0
	}

	var themePatterns []types.WordThemePattern
	maxCount := 0
	for _, p := range patterns {
		if p.ThemeID != themeID {
			continue
		}
		themePatterns = append(themePatterns, p)
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}
	if len(themePatterns) == 0 || maxCount == 0 {
		return 0
	}

	var total float64
	matchFound := false
	for _, term := range terms {
		termLower := strings.ToLower(term)
		var termScore float64
		matched := false
		for _, p := range themePatterns {
			if strings.ToLower(p.Word) == termLower {
				matched = true
				termScore += float64(p.Count) / float64(maxCount)
			}
		}
		if matched {
			matchFound = true
			total += min1(termScore)
		}
	}

	if !matchFound {
		return 0
	}
	return min1(total / float64(len(terms)))
}

// frequencyBoost rewards memos written in the user's hot vocabulary. Only
// terms present in the frequency table participate in the average; unknown
// terms are excluded rather than counted as zero.
func (s *Scorer) frequencyBoost(terms []string, frequentTerms []types.FrequentTerm) float64 {
	if len(terms) == 0 || len(frequentTerms) == 0 {
		return 0
	}

	maxCount := 0
	for _, t := range frequentTerms {
		if t.Count > maxCount {
			maxCount = t.Count
		}
	}
	if maxCount == 0 {
		return 0
	}

	frequency := make(map[string]float64, len(frequentTerms))
	for _, t := range frequentTerms {
		frequency[t.Term] = float64(t.Count) / float64(maxCount)
	}

	var total float64
	matched := 0
	for _, term := range terms {
		if boost, ok := frequency[strings.ToLower(term)]; ok {
			total += boost
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return total / float64(matched)
}

// contextRelevance compares extracted terms against the theme's description
// vocabulary (words longer than 2 characters, deduplicated).
func (s *Scorer) contextRelevance(analysis *Analysis, theme *types.Theme) float64 {
	if theme.Description == "" {
		return 0
	}

	descWords := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(theme.Description)) {
		if utf8.RuneCountInString(word) > 2 {
			descWords[word] = struct{}{}
		}
	}
	if len(descWords) == 0 {
		return 0
	}

	matches := 0
	for _, term := range analysis.KeyTerms {
		for word := range descWords {
			if strings.Contains(term, word) || strings.Contains(word, term) {
				matches++
				break
			}
		}
	}
	return min1(float64(matches) / float64(len(descWords)))
}

// hierarchyBonus is a structural prior independent of the text: themes with
// children, a parent, and siblings sit in a richer part of the tree and get
// a small head start, capped at 0.5.
func (s *Scorer) hierarchyBonus(theme *types.Theme, allThemes []*types.Theme) float64 {
	bonus := 0.0

	if n := len(theme.ChildThemes); n > 0 {
		bonus += minf(0.3, float64(n)*0.05)
	}

	if theme.HasParent() {
		bonus += 0.1
		for _, candidate := range allThemes {
			if candidate.ID != theme.ParentTheme {
				continue
			}
			siblings := 0
			for _, childID := range candidate.ChildThemes {
				if childID != theme.ID {
					siblings++
				}
			}
			bonus += minf(0.2, float64(siblings)*0.02)
			break
		}
	}

	return minf(0.5, bonus)
}

func containsInAnyPhrase(phrases []string, keyword string) bool {
	for _, phrase := range phrases {
		if strings.Contains(strings.ToLower(phrase), keyword) {
			return true
		}
	}
	return false
}

func matchesAnyTerm(terms []string, keyword string) bool {
	for _, term := range terms {
		if strings.Contains(term, keyword) || strings.Contains(keyword, term) {
			return true
		}
	}
	return false
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
