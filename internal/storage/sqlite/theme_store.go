package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// SaveTheme implements storage.ThemeStore with upsert semantics. Keywords and
// child links are replaced wholesale to preserve their order.
func (s *Store) SaveTheme(ctx context.Context, theme *types.Theme) error {
	if theme == nil || theme.ID == "" {
		return fmt.Errorf("sqlite: %w: theme must have an ID", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO themes (id, name, description, icon, color, parent_theme, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			icon = excluded.icon,
			color = excluded.color,
			parent_theme = excluded.parent_theme,
			updated_at = excluded.updated_at`,
		theme.ID, theme.Name, theme.Description, theme.Icon, theme.Color,
		theme.ParentTheme, encodeTime(theme.CreatedAt), encodeTime(theme.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: failed to save theme: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM theme_keywords WHERE theme_id = ?`, theme.ID); err != nil {
		return fmt.Errorf("sqlite: failed to clear theme keywords: %w", err)
	}
	for i, keyword := range theme.Keywords {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO theme_keywords (theme_id, keyword, position) VALUES (?, ?, ?)`,
			theme.ID, keyword, i)
		if err != nil {
			return fmt.Errorf("sqlite: failed to save theme keyword: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM theme_children WHERE theme_id = ?`, theme.ID); err != nil {
		return fmt.Errorf("sqlite: failed to clear theme children: %w", err)
	}
	for i, childID := range theme.ChildThemes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO theme_children (theme_id, child_id, position) VALUES (?, ?, ?)`,
			theme.ID, childID, i)
		if err != nil {
			return fmt.Errorf("sqlite: failed to save theme child: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit theme: %w", err)
	}
	return nil
}

// GetTheme implements storage.ThemeStore.
func (s *Store) GetTheme(ctx context.Context, id string) (*types.Theme, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, icon, color, parent_theme, created_at, updated_at
		FROM themes WHERE id = ?`, id)

	theme, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get theme: %w", err)
	}

	if err := s.fillThemeLists(ctx, theme); err != nil {
		return nil, err
	}
	return theme, nil
}

// ListThemes implements storage.ThemeStore.
func (s *Store) ListThemes(ctx context.Context) ([]*types.Theme, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, icon, color, parent_theme, created_at, updated_at
		FROM themes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list themes: %w", err)
	}
	defer rows.Close()

	var themes []*types.Theme
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan theme: %w", err)
		}
		themes = append(themes, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: theme iteration failed: %w", err)
	}

	for _, theme := range themes {
		if err := s.fillThemeLists(ctx, theme); err != nil {
			return nil, err
		}
	}
	return themes, nil
}

// DeleteTheme implements storage.ThemeStore.
func (s *Store) DeleteTheme(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM themes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete theme: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	for _, stmt := range []string{
		`DELETE FROM theme_keywords WHERE theme_id = ?`,
		`DELETE FROM theme_children WHERE theme_id = ?`,
		`DELETE FROM theme_children WHERE child_id = ?`,
		`DELETE FROM memo_themes WHERE theme_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("sqlite: failed to clean up theme references: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit theme delete: %w", err)
	}
	return nil
}

// fillThemeLists loads a theme's keywords and child IDs in stored order.
func (s *Store) fillThemeLists(ctx context.Context, theme *types.Theme) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword FROM theme_keywords WHERE theme_id = ? ORDER BY position`, theme.ID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to load theme keywords: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return fmt.Errorf("sqlite: failed to scan theme keyword: %w", err)
		}
		theme.Keywords = append(theme.Keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: keyword iteration failed: %w", err)
	}

	childRows, err := s.db.QueryContext(ctx,
		`SELECT child_id FROM theme_children WHERE theme_id = ? ORDER BY position`, theme.ID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to load theme children: %w", err)
	}
	defer childRows.Close()
	for childRows.Next() {
		var childID string
		if err := childRows.Scan(&childID); err != nil {
			return fmt.Errorf("sqlite: failed to scan theme child: %w", err)
		}
		theme.ChildThemes = append(theme.ChildThemes, childID)
	}
	if err := childRows.Err(); err != nil {
		return fmt.Errorf("sqlite: child iteration failed: %w", err)
	}
	return nil
}

func scanTheme(sc scanner) (*types.Theme, error) {
	var theme types.Theme
	var createdAt, updatedAt string
	err := sc.Scan(&theme.ID, &theme.Name, &theme.Description, &theme.Icon,
		&theme.Color, &theme.ParentTheme, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if theme.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	if theme.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	theme.Keywords = []string{}
	theme.ChildThemes = []string{}
	return &theme, nil
}
