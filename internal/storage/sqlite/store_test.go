package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemoStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	memo := types.NewMemo("Bought milk and eggs", []string{"t-groceries"})
	if err := store.SaveMemo(ctx, memo); err != nil {
		t.Fatalf("SaveMemo failed: %v", err)
	}

	got, err := store.GetMemo(ctx, memo.ID)
	if err != nil {
		t.Fatalf("GetMemo failed: %v", err)
	}
	if got.Content != memo.Content {
		t.Errorf("Content = %q, want %q", got.Content, memo.Content)
	}
	if len(got.Themes) != 1 || got.Themes[0] != "t-groceries" {
		t.Errorf("Themes = %v, want [t-groceries]", got.Themes)
	}
	if !got.CreatedAt.Equal(memo.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, memo.CreatedAt)
	}
}

func TestMemoStore_SavePreservesThemeOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	memo := types.NewMemo("multi-theme memo", []string{"t-c", "t-a", "t-b"})
	if err := store.SaveMemo(ctx, memo); err != nil {
		t.Fatalf("SaveMemo failed: %v", err)
	}

	got, err := store.GetMemo(ctx, memo.ID)
	if err != nil {
		t.Fatalf("GetMemo failed: %v", err)
	}
	for i, want := range []string{"t-c", "t-a", "t-b"} {
		if got.Themes[i] != want {
			t.Fatalf("Themes = %v, want order preserved", got.Themes)
		}
	}
}

func TestMemoStore_UpdateReplacesThemes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	memo := types.NewMemo("content", []string{"t-old"})
	if err := store.SaveMemo(ctx, memo); err != nil {
		t.Fatalf("SaveMemo failed: %v", err)
	}

	memo.Themes = []string{"t-new"}
	if err := store.SaveMemo(ctx, memo); err != nil {
		t.Fatalf("second SaveMemo failed: %v", err)
	}

	got, err := store.GetMemo(ctx, memo.ID)
	if err != nil {
		t.Fatalf("GetMemo failed: %v", err)
	}
	if len(got.Themes) != 1 || got.Themes[0] != "t-new" {
		t.Errorf("Themes = %v, want [t-new]", got.Themes)
	}
}

func TestMemoStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetMemo(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	memo := types.NewMemo("short lived", nil)
	if err := store.SaveMemo(ctx, memo); err != nil {
		t.Fatalf("SaveMemo failed: %v", err)
	}
	if err := store.DeleteMemo(ctx, memo.ID); err != nil {
		t.Fatalf("DeleteMemo failed: %v", err)
	}
	if _, err := store.GetMemo(ctx, memo.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}
	if err := store.DeleteMemo(ctx, memo.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestThemeStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	theme := types.NewTheme("Development", []string{"code", "deploy"}, "")
	theme.Description = "software work"
	theme.ChildThemes = []string{"t-frontend", "t-backend"}

	if err := store.SaveTheme(ctx, theme); err != nil {
		t.Fatalf("SaveTheme failed: %v", err)
	}

	got, err := store.GetTheme(ctx, theme.ID)
	if err != nil {
		t.Fatalf("GetTheme failed: %v", err)
	}
	if got.Name != "Development" || got.Description != "software work" {
		t.Errorf("got %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "code" || got.Keywords[1] != "deploy" {
		t.Errorf("Keywords = %v, want order preserved", got.Keywords)
	}
	if len(got.ChildThemes) != 2 || got.ChildThemes[0] != "t-frontend" {
		t.Errorf("ChildThemes = %v", got.ChildThemes)
	}
}

func TestThemeStore_DeleteCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	theme := types.NewTheme("Doomed", []string{"kw"}, "")
	if err := store.SaveTheme(ctx, theme); err != nil {
		t.Fatalf("SaveTheme failed: %v", err)
	}
	memo := types.NewMemo("tagged memo", []string{theme.ID})
	if err := store.SaveMemo(ctx, memo); err != nil {
		t.Fatalf("SaveMemo failed: %v", err)
	}

	if err := store.DeleteTheme(ctx, theme.ID); err != nil {
		t.Fatalf("DeleteTheme failed: %v", err)
	}
	if _, err := store.GetTheme(ctx, theme.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}

	got, err := store.GetMemo(ctx, memo.ID)
	if err != nil {
		t.Fatalf("GetMemo failed: %v", err)
	}
	if len(got.Themes) != 0 {
		t.Errorf("memo still references deleted theme: %v", got.Themes)
	}
}

func TestLearningStore_PatternIncrement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.UpdateWordThemePattern(ctx, "espresso", "t-coffee"); err != nil {
			t.Fatalf("UpdateWordThemePattern failed: %v", err)
		}
	}

	patterns, err := store.UserPatterns(ctx)
	if err != nil {
		t.Fatalf("UserPatterns failed: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}
	if patterns[0].Count != 2 {
		t.Errorf("Count = %d, want 2 after two upserts", patterns[0].Count)
	}
}

func TestLearningStore_TermFrequencyFloorAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpdateTermFrequency(ctx, []string{"React", "a", "react", "공부"}); err != nil {
		t.Fatalf("UpdateTermFrequency failed: %v", err)
	}

	terms, err := store.FrequentTerms(ctx)
	if err != nil {
		t.Fatalf("FrequentTerms failed: %v", err)
	}
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term.Term] = term.Count
	}
	if counts["react"] != 2 {
		t.Errorf("react count = %d, want 2 (case folded)", counts["react"])
	}
	if counts["공부"] != 1 {
		t.Errorf("공부 count = %d, want 1", counts["공부"])
	}
	if _, ok := counts["a"]; ok {
		t.Error("single-rune term should be skipped")
	}
}

func TestLearningStore_FrequentTermCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// 120 distinct terms, all tied at count 1. The cap keeps the 100
	// earliest-recorded on ties and drops the rest permanently.
	batch := make([]string, 120)
	for i := range batch {
		batch[i] = fmt.Sprintf("term%03d", i)
	}
	if err := store.UpdateTermFrequency(ctx, batch); err != nil {
		t.Fatalf("UpdateTermFrequency failed: %v", err)
	}

	terms, err := store.FrequentTerms(ctx)
	if err != nil {
		t.Fatalf("FrequentTerms failed: %v", err)
	}
	if len(terms) != storage.FrequentTermCap {
		t.Fatalf("got %d terms, want cap %d", len(terms), storage.FrequentTermCap)
	}
	survivors := make(map[string]bool, len(terms))
	for _, term := range terms {
		survivors[term.Term] = true
	}
	if !survivors["term000"] || survivors["term119"] {
		t.Error("tie-breaking should keep earlier-recorded terms and drop later ones")
	}

	// Evicted terms start over from zero if seen again.
	if err := store.UpdateTermFrequency(ctx, []string{"term119", "term119"}); err != nil {
		t.Fatalf("UpdateTermFrequency failed: %v", err)
	}
	terms, err = store.FrequentTerms(ctx)
	if err != nil {
		t.Fatalf("FrequentTerms failed: %v", err)
	}
	for _, term := range terms {
		if term.Term == "term119" && term.Count != 2 {
			t.Errorf("re-seen evicted term count = %d, want fresh count 2", term.Count)
		}
	}
}

func TestLearningStore_MostRelevantThemeForWord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.UpdateWordThemePattern(ctx, "grpc", "t-infra"); err != nil {
			t.Fatalf("UpdateWordThemePattern failed: %v", err)
		}
	}
	if err := store.UpdateWordThemePattern(ctx, "grpc", "t-other"); err != nil {
		t.Fatalf("UpdateWordThemePattern failed: %v", err)
	}

	themeID, err := store.MostRelevantThemeForWord(ctx, "grpc")
	if err != nil {
		t.Fatalf("MostRelevantThemeForWord failed: %v", err)
	}
	if themeID != "t-infra" {
		t.Errorf("got %q, want t-infra", themeID)
	}

	themeID, err = store.MostRelevantThemeForWord(ctx, "unseen")
	if err != nil {
		t.Fatalf("MostRelevantThemeForWord failed: %v", err)
	}
	if themeID != "" {
		t.Errorf("unseen word → %q, want empty", themeID)
	}
}

func TestLearningStore_LearnFromUserAction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	terms := []string{"react", "native", "animation"}
	if err := store.LearnFromUserAction(ctx, terms, nil, []string{"t-dev"}); err != nil {
		t.Fatalf("LearnFromUserAction failed: %v", err)
	}

	patterns, err := store.UserPatterns(ctx)
	if err != nil {
		t.Fatalf("UserPatterns failed: %v", err)
	}
	byWord := make(map[string]int, len(patterns))
	for _, p := range patterns {
		if p.ThemeID != "t-dev" {
			t.Errorf("unexpected theme in pattern: %+v", p)
		}
		byWord[p.Word] = p.Count
	}

	// Single words plus contiguous 2- and 3-word phrases.
	for _, want := range []string{"react", "native", "animation", "react native", "native animation", "react native animation"} {
		if byWord[want] != 1 {
			t.Errorf("pattern %q count = %d, want 1", want, byWord[want])
		}
	}

	// Term frequencies ride along with learning.
	freq, err := store.FrequentTerms(ctx)
	if err != nil {
		t.Fatalf("FrequentTerms failed: %v", err)
	}
	if len(freq) == 0 {
		t.Error("learning should also update term frequencies")
	}
}

func TestLearningStore_LearnNoAddedThemes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Removing a theme computes the diff but never decrements or reinforces.
	if err := store.LearnFromUserAction(ctx, []string{"react"}, []string{"t-dev"}, nil); err != nil {
		t.Fatalf("LearnFromUserAction failed: %v", err)
	}

	patterns, err := store.UserPatterns(ctx)
	if err != nil {
		t.Fatalf("UserPatterns failed: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("removal-only edit created patterns: %+v", patterns)
	}
}

func TestLearningStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.LearnFromUserAction(ctx, []string{"react", "native"}, nil, []string{"t-dev"}); err != nil {
		t.Fatalf("LearnFromUserAction failed: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	patterns, _ := store.UserPatterns(ctx)
	terms, _ := store.FrequentTerms(ctx)
	if len(patterns) != 0 || len(terms) != 0 {
		t.Errorf("reset left %d patterns, %d terms", len(patterns), len(terms))
	}
}

func TestListMemos_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := types.NewMemo("first", nil)
	second := types.NewMemo("second", nil)
	second.CreatedAt = second.CreatedAt.Add(time.Second)
	for _, m := range []*types.Memo{first, second} {
		if err := store.SaveMemo(ctx, m); err != nil {
			t.Fatalf("SaveMemo failed: %v", err)
		}
	}

	memos, err := store.ListMemos(ctx)
	if err != nil {
		t.Fatalf("ListMemos failed: %v", err)
	}
	if len(memos) != 2 || memos[0].Content != "second" {
		t.Errorf("ListMemos order wrong: %v, %v", memos[0].Content, memos[1].Content)
	}
}
