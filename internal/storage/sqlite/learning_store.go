package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// UserPatterns implements storage.LearningStore.
func (s *Store) UserPatterns(ctx context.Context) ([]types.WordThemePattern, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, theme_id, count FROM user_patterns`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load user patterns: %w", err)
	}
	defer rows.Close()

	patterns := []types.WordThemePattern{}
	for rows.Next() {
		var p types.WordThemePattern
		if err := rows.Scan(&p.Word, &p.ThemeID, &p.Count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan user pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: pattern iteration failed: %w", err)
	}
	return patterns, nil
}

// FrequentTerms implements storage.LearningStore. Results come back highest
// count first; ties keep insertion order via the autoincrement id.
func (s *Store) FrequentTerms(ctx context.Context) ([]types.FrequentTerm, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, count FROM frequent_terms ORDER BY count DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load frequent terms: %w", err)
	}
	defer rows.Close()

	terms := []types.FrequentTerm{}
	for rows.Next() {
		var t types.FrequentTerm
		if err := rows.Scan(&t.Term, &t.Count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan frequent term: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: frequent term iteration failed: %w", err)
	}
	return terms, nil
}

// UpdateWordThemePattern implements storage.LearningStore.
func (s *Store) UpdateWordThemePattern(ctx context.Context, word, themeID string) error {
	if word == "" || themeID == "" {
		return fmt.Errorf("sqlite: %w: word and themeID are required", storage.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_patterns (word, theme_id, count) VALUES (?, ?, 1)
		ON CONFLICT(word, theme_id) DO UPDATE SET count = count + 1`,
		word, themeID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update word-theme pattern: %w", err)
	}
	return nil
}

// UpdateTermFrequency implements storage.LearningStore. Each occurrence in
// the batch counts once; after the batch the table is truncated to the
// top storage.FrequentTermCap entries by count, insertion order on ties.
func (s *Store) UpdateTermFrequency(ctx context.Context, terms []string) error {
	filtered := storage.FilterLearnableTerms(terms)
	if len(filtered) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, term := range filtered {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO frequent_terms (term, count) VALUES (?, 1)
			ON CONFLICT(term) DO UPDATE SET count = count + 1`, term)
		if err != nil {
			return fmt.Errorf("sqlite: failed to update term frequency: %w", err)
		}
	}

	// Bounded hot-vocabulary cache: everything outside the top N is gone
	// for good, not archived.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM frequent_terms WHERE id NOT IN (
			SELECT id FROM frequent_terms ORDER BY count DESC, id ASC LIMIT ?
		)`, storage.FrequentTermCap)
	if err != nil {
		return fmt.Errorf("sqlite: failed to truncate frequent terms: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit term frequencies: %w", err)
	}
	return nil
}

// MostRelevantThemeForWord implements storage.LearningStore.
func (s *Store) MostRelevantThemeForWord(ctx context.Context, word string) (string, error) {
	var themeID string
	err := s.db.QueryRowContext(ctx, `
		SELECT theme_id FROM user_patterns WHERE word = ?
		ORDER BY count DESC LIMIT 1`, word).Scan(&themeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to look up theme for word: %w", err)
	}
	return themeID, nil
}

// LearnFromUserAction implements storage.LearningStore.
func (s *Store) LearnFromUserAction(ctx context.Context, terms []string, oldThemes, newThemes []string) error {
	filtered := storage.FilterLearnableTerms(terms)

	if err := s.UpdateTermFrequency(ctx, filtered); err != nil {
		return err
	}

	removed, added := storage.DiffThemes(oldThemes, newThemes)
	if len(removed) == 0 && len(added) == 0 {
		return nil
	}
	// Removed themes never decrement pattern counts in the current model;
	// only additions reinforce.
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

// Reset implements storage.LearningStore, clearing both learning tables.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM user_patterns`,
		`DELETE FROM frequent_terms`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: failed to reset learning data: %w", err)
		}
	}
	return nil
}
