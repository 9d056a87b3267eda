// Package memo manages the memo lifecycle: CRUD wired to automatic theme
// analysis, learning feedback on user retags, and the pure
// grouping/filtering helpers the host UI builds its lists from.
package memo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dr-Min/memotheme/internal/analyzer"
	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// Service orchestrates memo storage with the relevance engine. New memos
// without explicit themes are auto-themed; user retags feed the learning
// loop.
type Service struct {
	memos    storage.MemoStore
	themes   storage.ThemeStore
	analyzer *analyzer.Analyzer
}

// NewService creates a memo service.
func NewService(memos storage.MemoStore, themes storage.ThemeStore, a *analyzer.Analyzer) *Service {
	return &Service{memos: memos, themes: themes, analyzer: a}
}

// Add creates a memo. When themeIDs is empty the content is analyzed
// against the current catalog and matching themes are attached
// automatically.
func (s *Service) Add(ctx context.Context, content string, themeIDs []string) (*types.Memo, error) {
	if content == "" {
		return nil, fmt.Errorf("memo: %w: content is required", storage.ErrInvalidInput)
	}

	if len(themeIDs) == 0 {
		catalog, err := s.themes.ListThemes(ctx)
		if err != nil {
			return nil, fmt.Errorf("memo: failed to load theme catalog: %w", err)
		}
		themeIDs, err = s.analyzer.AnalyzeText(ctx, content, catalog)
		if err != nil {
			return nil, fmt.Errorf("memo: failed to analyze content: %w", err)
		}
	}

	newMemo := types.NewMemo(content, themeIDs)
	if err := s.memos.SaveMemo(ctx, newMemo); err != nil {
		return nil, fmt.Errorf("memo: failed to save memo: %w", err)
	}
	return newMemo, nil
}

// Get returns one memo by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Memo, error) {
	return s.memos.GetMemo(ctx, id)
}

// All returns every memo, newest first.
func (s *Service) All(ctx context.Context) ([]*types.Memo, error) {
	return s.memos.ListMemos(ctx)
}

// Update persists edited memo content, bumping the update timestamp. Theme
// changes should go through Retag so the engine can learn from them.
func (s *Service) Update(ctx context.Context, memo *types.Memo) error {
	if memo == nil || memo.ID == "" {
		return fmt.Errorf("memo: %w: memo must have an ID", storage.ErrInvalidInput)
	}
	memo.UpdatedAt = time.Now().UTC()
	if err := s.memos.SaveMemo(ctx, memo); err != nil {
		return fmt.Errorf("memo: failed to update memo: %w", err)
	}
	return nil
}

// Retag replaces a memo's theme set from a user edit and feeds the change
// to the learning loop. The learning write happens first so its failure is
// visible before the memo is touched.
func (s *Service) Retag(ctx context.Context, memoID string, newThemes []string) (*types.Memo, error) {
	memo, err := s.memos.GetMemo(ctx, memoID)
	if err != nil {
		return nil, fmt.Errorf("memo: failed to load memo: %w", err)
	}

	if err := s.analyzer.LearnFromMemoEdit(ctx, memo.Content, memo.Themes, newThemes); err != nil {
		return nil, err
	}

	memo.Themes = newThemes
	memo.UpdatedAt = time.Now().UTC()
	if err := s.memos.SaveMemo(ctx, memo); err != nil {
		return nil, fmt.Errorf("memo: failed to save retagged memo: %w", err)
	}
	return memo, nil
}

// Delete removes a memo.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.memos.DeleteMemo(ctx, id)
}

// ReanalyzeAll re-runs theme analysis over every memo against the current
// catalog and updates their theme sets. Used after theme keywords change.
// Automatic reassignment is not a user edit, so it does not feed learning.
func (s *Service) ReanalyzeAll(ctx context.Context) (int, error) {
	catalog, err := s.themes.ListThemes(ctx)
	if err != nil {
		return 0, fmt.Errorf("memo: failed to load theme catalog: %w", err)
	}
	memos, err := s.memos.ListMemos(ctx)
	if err != nil {
		return 0, fmt.Errorf("memo: failed to list memos: %w", err)
	}

	updated := 0
	for _, memo := range memos {
		themeIDs, err := s.analyzer.AnalyzeText(ctx, memo.Content, catalog)
		if err != nil {
			return updated, fmt.Errorf("memo: failed to reanalyze memo %s: %w", memo.ID, err)
		}
		if sameIDs(memo.Themes, themeIDs) {
			continue
		}
		memo.Themes = themeIDs
		memo.UpdatedAt = time.Now().UTC()
		if err := s.memos.SaveMemo(ctx, memo); err != nil {
			return updated, fmt.Errorf("memo: failed to save reanalyzed memo: %w", err)
		}
		updated++
	}
	return updated, nil
}

// DateGroup is a labeled bucket of memos sharing a day, month, or year.
type DateGroup struct {
	Label string
	Date  time.Time
	Memos []*types.Memo
}

// SortByDate returns a copy sorted oldest first.
func SortByDate(memos []*types.Memo) []*types.Memo {
	sorted := append([]*types.Memo{}, memos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// FilterByTheme keeps memos tagged with the given theme.
func FilterByTheme(memos []*types.Memo, themeID string) []*types.Memo {
	var filtered []*types.Memo
	for _, memo := range memos {
		if memo.HasTheme(themeID) {
			filtered = append(filtered, memo)
		}
	}
	return filtered
}

// FilterByThemes keeps memos matching the theme set. With requireAll true, a
// memo must carry every listed theme; otherwise any one suffices. An empty
// theme list matches everything.
func FilterByThemes(memos []*types.Memo, themeIDs []string, requireAll bool) []*types.Memo {
	if len(themeIDs) == 0 {
		return memos
	}

	var filtered []*types.Memo
	for _, memo := range memos {
		if requireAll {
			all := true
			for _, themeID := range themeIDs {
				if !memo.HasTheme(themeID) {
					all = false
					break
				}
			}
			if all {
				filtered = append(filtered, memo)
			}
		} else {
			for _, themeID := range themeIDs {
				if memo.HasTheme(themeID) {
					filtered = append(filtered, memo)
					break
				}
			}
		}
	}
	return filtered
}

// FilterByDateRange keeps memos created between start and end, inclusive of
// both whole days. Zero bounds disable filtering.
func FilterByDateRange(memos []*types.Memo, start, end time.Time) []*types.Memo {
	if start.IsZero() || end.IsZero() {
		return memos
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	dayEnd := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), end.Location())

	var filtered []*types.Memo
	for _, memo := range memos {
		created := memo.CreatedAt.In(dayStart.Location())
		if !created.Before(dayStart) && !created.After(dayEnd) {
			filtered = append(filtered, memo)
		}
	}
	return filtered
}

// GroupByDay buckets memos per calendar day, newest group first.
func GroupByDay(memos []*types.Memo) []DateGroup {
	return groupBy(memos, func(t time.Time) (time.Time, string) {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return day, day.Format("2006-01-02")
	})
}

// GroupByMonth buckets memos per calendar month, newest group first.
func GroupByMonth(memos []*types.Memo) []DateGroup {
	return groupBy(memos, func(t time.Time) (time.Time, string) {
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return month, month.Format("January 2006")
	})
}

// GroupByYear buckets memos per calendar year, newest group first.
func GroupByYear(memos []*types.Memo) []DateGroup {
	return groupBy(memos, func(t time.Time) (time.Time, string) {
		year := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
		return year, year.Format("2006")
	})
}

func groupBy(memos []*types.Memo, bucket func(time.Time) (time.Time, string)) []DateGroup {
	groups := make(map[string]*DateGroup)
	var order []string

	for _, memo := range memos {
		date, label := bucket(memo.CreatedAt)
		group, ok := groups[label]
		if !ok {
			group = &DateGroup{Label: label, Date: date}
			groups[label] = group
			order = append(order, label)
		}
		group.Memos = append(group.Memos, memo)
	}

	result := make([]DateGroup, 0, len(order))
	for _, label := range order {
		result = append(result, *groups[label])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
