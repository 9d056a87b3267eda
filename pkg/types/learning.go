package types

// WordThemePattern records how many times user actions have reinforced the
// association between a normalized term (or a 2–3 word phrase) and a theme.
// Rows are unique per (Word, ThemeID) and counts only ever grow.
type WordThemePattern struct {
	Word    string `json:"word"`
	ThemeID string `json:"theme_id"`
	Count   int    `json:"count"`
}

// FrequentTerm is one entry of the bounded hot-vocabulary table, unique per
// term. The learning store keeps only the top entries by count, so this is a
// lossy cache rather than a full usage log.
type FrequentTerm struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ScoreBreakdown exposes the five sub-scores that make up a theme's final
// relevance score. Useful for diagnostics and tuning; never persisted.
type ScoreBreakdown struct {
	KeywordMatch     float64 `json:"keyword_match"`
	UserPattern      float64 `json:"user_pattern"`
	FrequencyBoost   float64 `json:"frequency_boost"`
	ContextRelevance float64 `json:"context_relevance"`
	HierarchyBonus   float64 `json:"hierarchy_bonus"`
}

// ThemeRelevance is the transient per-theme scoring record produced for each
// analysis call.
type ThemeRelevance struct {
	ThemeID   string         `json:"theme_id"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}
