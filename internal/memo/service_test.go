package memo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dr-Min/memotheme/internal/analyzer"
	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/internal/storage/sqlite"
	"github.com/Dr-Min/memotheme/pkg/types"
)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	a := analyzer.New(store, nil, analyzer.Config{})
	return NewService(store, store, a), store
}

func seedTheme(t *testing.T, store *sqlite.Store, name string, keywords []string) *types.Theme {
	t.Helper()
	theme := types.NewTheme(name, keywords, "")
	require.NoError(t, store.SaveTheme(context.Background(), theme))
	return theme
}

func TestAdd_ExplicitThemes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.Add(ctx, "hello world", []string{"t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, m.Themes)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Content)
}

func TestAdd_AutoThemes(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	coffee := seedTheme(t, store, "Coffee", []string{"espresso", "coffee"})
	seedTheme(t, store, "Fitness", []string{"workout"})

	m, err := svc.Add(ctx, "pulled a great espresso this morning", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{coffee.ID}, m.Themes)
}

func TestAdd_EmptyContent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Add(context.Background(), "", nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRetag_FeedsLearning(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	coffee := seedTheme(t, store, "Coffee", []string{"coffee"})

	m, err := svc.Add(ctx, "tried the pour over method", []string{})
	require.NoError(t, err)

	// No explicit themes matched, so seed the retag manually.
	retagged, err := svc.Retag(ctx, m.ID, []string{coffee.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{coffee.ID}, retagged.Themes)

	// The engine learned word→theme patterns from the correction.
	patterns, err := store.UserPatterns(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, patterns)
	for _, p := range patterns {
		assert.Equal(t, coffee.ID, p.ThemeID)
	}

	// A later similar memo now auto-attaches the learned theme.
	later, err := svc.Add(ctx, "another pour over attempt", nil)
	require.NoError(t, err)
	assert.Contains(t, later.Themes, coffee.ID)
}

func TestRetag_MissingMemo(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Retag(context.Background(), "missing", []string{"t1"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdate_RequiresID(t *testing.T) {
	svc, _ := newTestService(t)

	assert.ErrorIs(t, svc.Update(context.Background(), nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, svc.Update(context.Background(), &types.Memo{}), storage.ErrInvalidInput)
}

func TestReanalyzeAll(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	m, err := svc.Add(ctx, "refactored the login component", []string{})
	require.NoError(t, err)
	require.Empty(t, m.Themes)

	// A theme gains a matching keyword after the memo was written.
	dev := seedTheme(t, store, "Development", []string{"refactored", "component"})

	updated, err := svc.ReanalyzeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{dev.ID}, got.Themes)

	// Automatic reassignment must not masquerade as a user edit.
	patterns, err := store.UserPatterns(ctx)
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.Add(ctx, "short lived", []string{"t1"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, m.ID))

	_, err = svc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func memoAt(content string, created time.Time, themes ...string) *types.Memo {
	m := types.NewMemo(content, themes)
	m.CreatedAt = created
	return m
}

func TestSortByDate(t *testing.T) {
	now := time.Now()
	memos := []*types.Memo{
		memoAt("newest", now),
		memoAt("oldest", now.Add(-48*time.Hour)),
		memoAt("middle", now.Add(-24*time.Hour)),
	}

	sorted := SortByDate(memos)
	assert.Equal(t, "oldest", sorted[0].Content)
	assert.Equal(t, "newest", sorted[2].Content)
	// Input untouched.
	assert.Equal(t, "newest", memos[0].Content)
}

func TestFilterByThemes(t *testing.T) {
	now := time.Now()
	memos := []*types.Memo{
		memoAt("both", now, "a", "b"),
		memoAt("only a", now, "a"),
		memoAt("neither", now),
	}

	any := FilterByThemes(memos, []string{"a", "b"}, false)
	assert.Len(t, any, 2)

	all := FilterByThemes(memos, []string{"a", "b"}, true)
	require.Len(t, all, 1)
	assert.Equal(t, "both", all[0].Content)

	assert.Len(t, FilterByThemes(memos, nil, true), 3)
}

func TestFilterByDateRange(t *testing.T) {
	base := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	memos := []*types.Memo{
		memoAt("in range", base),
		memoAt("before", base.AddDate(0, 0, -5)),
		memoAt("after", base.AddDate(0, 0, 5)),
	}

	// Whole-day inclusive bounds: a memo written at 15:30 on the end day
	// still matches.
	got := FilterByDateRange(memos, base.AddDate(0, 0, -1), base)
	require.Len(t, got, 1)
	assert.Equal(t, "in range", got[0].Content)

	// Zero bounds disable filtering.
	assert.Len(t, FilterByDateRange(memos, time.Time{}, base), 3)
}

func TestGroupByDay(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	memos := []*types.Memo{
		memoAt("first day a", day1),
		memoAt("second day", day2),
		memoAt("first day b", day1.Add(2*time.Hour)),
	}

	groups := GroupByDay(memos)
	require.Len(t, groups, 2)
	assert.Equal(t, "2026-03-11", groups[0].Label)
	assert.Equal(t, "2026-03-10", groups[1].Label)
	assert.Len(t, groups[1].Memos, 2)
}

func TestGroupByMonthAndYear(t *testing.T) {
	memos := []*types.Memo{
		memoAt("march", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		memoAt("january", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
		memoAt("last year", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
	}

	months := GroupByMonth(memos)
	require.Len(t, months, 3)
	assert.Equal(t, "March 2026", months[0].Label)

	years := GroupByYear(memos)
	require.Len(t, years, 2)
	assert.Equal(t, "2026", years[0].Label)
	assert.Len(t, years[0].Memos, 2)
}
