// Package postgres implements the learning-table storage interface on
// PostgreSQL via lib/pq. It is an alternative backend for hosts that already
// run Postgres; the memo and theme catalogs stay on the default SQLite store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// Schema creates the two learning tables.
const Schema = `
CREATE TABLE IF NOT EXISTS user_patterns (
	word     TEXT    NOT NULL,
	theme_id TEXT    NOT NULL,
	count    INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (word, theme_id)
);

CREATE TABLE IF NOT EXISTS frequent_terms (
	id    BIGSERIAL PRIMARY KEY,
	term  TEXT      NOT NULL UNIQUE,
	count INTEGER   NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_user_patterns_word ON user_patterns(word);
`

// LearningStore implements storage.LearningStore using PostgreSQL.
type LearningStore struct {
	db *sql.DB
}

// NewLearningStore connects to Postgres with the given DSN and ensures the
// schema exists.
func NewLearningStore(dsn string) (*LearningStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return &LearningStore{db: db}, nil
}

// Close releases the database handle.
func (s *LearningStore) Close() error {
	return s.db.Close()
}

// UserPatterns implements storage.LearningStore.
func (s *LearningStore) UserPatterns(ctx context.Context) ([]types.WordThemePattern, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, theme_id, count FROM user_patterns`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load user patterns: %w", err)
	}
	defer rows.Close()

	patterns := []types.WordThemePattern{}
	for rows.Next() {
		var p types.WordThemePattern
		if err := rows.Scan(&p.Word, &p.ThemeID, &p.Count); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan user pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: pattern iteration failed: %w", err)
	}
	return patterns, nil
}

// FrequentTerms implements storage.LearningStore.
func (s *LearningStore) FrequentTerms(ctx context.Context) ([]types.FrequentTerm, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, count FROM frequent_terms ORDER BY count DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load frequent terms: %w", err)
	}
	defer rows.Close()

	terms := []types.FrequentTerm{}
	for rows.Next() {
		var t types.FrequentTerm
		if err := rows.Scan(&t.Term, &t.Count); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan frequent term: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: frequent term iteration failed: %w", err)
	}
	return terms, nil
}

// UpdateWordThemePattern implements storage.LearningStore.
func (s *LearningStore) UpdateWordThemePattern(ctx context.Context, word, themeID string) error {
	if word == "" || themeID == "" {
		return fmt.Errorf("postgres: %w: word and themeID are required", storage.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_patterns (word, theme_id, count) VALUES ($1, $2, 1)
		ON CONFLICT (word, theme_id) DO UPDATE SET count = user_patterns.count + 1`,
		word, themeID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update word-theme pattern: %w", err)
	}
	return nil
}

// UpdateTermFrequency implements storage.LearningStore.
func (s *LearningStore) UpdateTermFrequency(ctx context.Context, terms []string) error {
	filtered := storage.FilterLearnableTerms(terms)
	if len(filtered) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, term := range filtered {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO frequent_terms (term, count) VALUES ($1, 1)
			ON CONFLICT (term) DO UPDATE SET count = frequent_terms.count + 1`, term)
		if err != nil {
			return fmt.Errorf("postgres: failed to update term frequency: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM frequent_terms WHERE id NOT IN (
			SELECT id FROM frequent_terms ORDER BY count DESC, id ASC LIMIT $1
		)`, storage.FrequentTermCap)
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate frequent terms: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: failed to commit term frequencies: %w", err)
	}
	return nil
}

// MostRelevantThemeForWord implements storage.LearningStore.
func (s *LearningStore) MostRelevantThemeForWord(ctx context.Context, word string) (string, error) {
	var themeID string
	err := s.db.QueryRowContext(ctx, `
		SELECT theme_id FROM user_patterns WHERE word = $1
		ORDER BY count DESC LIMIT 1`, word).Scan(&themeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("postgres: failed to look up theme for word: %w", err)
	}
	return themeID, nil
}

// LearnFromUserAction implements storage.LearningStore.
func (s *LearningStore) LearnFromUserAction(ctx context.Context, terms []string, oldThemes, newThemes []string) error {
	filtered := storage.FilterLearnableTerms(terms)

	if err := s.UpdateTermFrequency(ctx, filtered); err != nil {
		return err
	}

	removed, added := storage.DiffThemes(oldThemes, newThemes)
	if len(removed) == 0 && len(added) == 0 {
		return nil
	}
	// Only additions reinforce; removed themes are left untouched.
	_ = removed

	reinforce := append(append([]string{}, filtered...), storage.ContiguousPhrases(filtered)...)
	for _, word := range reinforce {
		for _, themeID := range added {
			if err := s.UpdateWordThemePattern(ctx, word, themeID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reset implements storage.LearningStore.
func (s *LearningStore) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM user_patterns`,
		`DELETE FROM frequent_terms`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: failed to reset learning data: %w", err)
		}
	}
	return nil
}
