// Package storage provides composable storage interfaces for memotheme.
//
// The storage layer is split into small, focused interfaces that backends can
// implement independently: memo and theme catalogs, and the learning tables
// that back the relevance engine. The SQLite backend implements all of them;
// the Postgres backend implements the learning tables only.
package storage

import (
	"context"

	"github.com/Dr-Min/memotheme/pkg/types"
)

// MemoStore provides CRUD operations for memos.
type MemoStore interface {
	// SaveMemo creates or updates a memo (upsert semantics).
	SaveMemo(ctx context.Context, memo *types.Memo) error

	// GetMemo retrieves a memo by ID.
	// Returns ErrNotFound if the memo doesn't exist.
	GetMemo(ctx context.Context, id string) (*types.Memo, error)

	// ListMemos returns all memos, newest first.
	ListMemos(ctx context.Context) ([]*types.Memo, error)

	// DeleteMemo removes a memo and its theme links.
	// Returns ErrNotFound if the memo doesn't exist.
	DeleteMemo(ctx context.Context, id string) error
}

// ThemeStore provides CRUD operations for the theme catalog.
type ThemeStore interface {
	// SaveTheme creates or updates a theme, including its keyword list and
	// child links (upsert semantics).
	SaveTheme(ctx context.Context, theme *types.Theme) error

	// GetTheme retrieves a theme by ID.
	// Returns ErrNotFound if the theme doesn't exist.
	GetTheme(ctx context.Context, id string) (*types.Theme, error)

	// ListThemes returns the full theme catalog.
	ListThemes(ctx context.Context) ([]*types.Theme, error)

	// DeleteTheme removes a theme, its keywords, and its child links.
	// Returns ErrNotFound if the theme doesn't exist.
	DeleteTheme(ctx context.Context, id string) error
}

// LearningStore persists the two tables the relevance engine learns from:
// word→theme co-occurrence counts and global term frequency counts.
//
// Implementations provide no locking; the single-user model serializes
// writes at the caller. Persistence failures are propagated, never retried.
type LearningStore interface {
	// UserPatterns returns the full word→theme pattern table.
	// Returns an empty slice (not an error) when nothing has been learned.
	UserPatterns(ctx context.Context) ([]types.WordThemePattern, error)

	// FrequentTerms returns the full term frequency table, highest count first.
	// Returns an empty slice (not an error) when nothing has been recorded.
	FrequentTerms(ctx context.Context) ([]types.FrequentTerm, error)

	// UpdateWordThemePattern increments the count for (word, themeID),
	// creating the row at count=1 if absent.
	UpdateWordThemePattern(ctx context.Context, word, themeID string) error

	// UpdateTermFrequency increments the count of each term (lowercased and
	// trimmed, terms shorter than 2 characters skipped), then truncates the
	// table to the highest-count entries. Entries beyond the cap are dropped
	// permanently; ties keep their pre-existing order.
	UpdateTermFrequency(ctx context.Context, terms []string) error

	// MostRelevantThemeForWord returns the theme most often reinforced for
	// the exact word, or "" when the word has no recorded patterns.
	MostRelevantThemeForWord(ctx context.Context, word string) (string, error)

	// LearnFromUserAction reinforces word→theme patterns from a user theme
	// edit. Terms shorter than 2 characters are skipped, term frequencies are
	// updated for the whole batch, and every surviving term plus every
	// contiguous 2-word and 3-word phrase is reinforced against each theme in
	// newThemes−oldThemes. Removed themes are computed but not decremented.
	LearnFromUserAction(ctx context.Context, terms []string, oldThemes, newThemes []string) error

	// Reset clears both learning tables.
	Reset(ctx context.Context) error
}

// Store combines all storage capabilities; the SQLite backend satisfies it.
type Store interface {
	MemoStore
	ThemeStore
	LearningStore

	// Close releases the underlying database resources.
	Close() error
}
