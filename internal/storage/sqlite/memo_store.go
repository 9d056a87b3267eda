package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// timeFormat is the canonical timestamp encoding for all tables.
const timeFormat = time.RFC3339Nano

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// SaveMemo implements storage.MemoStore with upsert semantics. The memo's
// theme links are replaced wholesale to preserve their order.
func (s *Store) SaveMemo(ctx context.Context, memo *types.Memo) error {
	if memo == nil || memo.ID == "" {
		return fmt.Errorf("sqlite: %w: memo must have an ID", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memos (id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at`,
		memo.ID, memo.Content, encodeTime(memo.CreatedAt), encodeTime(memo.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: failed to save memo: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM memo_themes WHERE memo_id = ?`, memo.ID); err != nil {
		return fmt.Errorf("sqlite: failed to clear memo themes: %w", err)
	}
	for i, themeID := range memo.Themes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO memo_themes (memo_id, theme_id, position) VALUES (?, ?, ?)`,
			memo.ID, themeID, i)
		if err != nil {
			return fmt.Errorf("sqlite: failed to link memo theme: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit memo: %w", err)
	}
	return nil
}

// GetMemo implements storage.MemoStore.
func (s *Store) GetMemo(ctx context.Context, id string) (*types.Memo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, created_at, updated_at FROM memos WHERE id = ?`, id)

	memo, err := scanMemo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get memo: %w", err)
	}

	memo.Themes, err = s.memoThemes(ctx, id)
	if err != nil {
		return nil, err
	}
	return memo, nil
}

// ListMemos implements storage.MemoStore, returning memos newest first.
func (s *Store) ListMemos(ctx context.Context) ([]*types.Memo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, created_at, updated_at FROM memos ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list memos: %w", err)
	}
	defer rows.Close()

	var memos []*types.Memo
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan memo: %w", err)
		}
		memos = append(memos, memo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: memo iteration failed: %w", err)
	}

	for _, memo := range memos {
		memo.Themes, err = s.memoThemes(ctx, memo.ID)
		if err != nil {
			return nil, err
		}
	}
	return memos, nil
}

// DeleteMemo implements storage.MemoStore.
func (s *Store) DeleteMemo(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM memos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete memo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM memo_themes WHERE memo_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: failed to delete memo themes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit memo delete: %w", err)
	}
	return nil
}

// memoThemes loads a memo's theme IDs in stored order.
func (s *Store) memoThemes(ctx context.Context, memoID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT theme_id FROM memo_themes WHERE memo_id = ? ORDER BY position`, memoID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load memo themes: %w", err)
	}
	defer rows.Close()

	themes := []string{}
	for rows.Next() {
		var themeID string
		if err := rows.Scan(&themeID); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan memo theme: %w", err)
		}
		themes = append(themes, themeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: memo theme iteration failed: %w", err)
	}
	return themes, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemo(sc scanner) (*types.Memo, error) {
	var memo types.Memo
	var createdAt, updatedAt string
	if err := sc.Scan(&memo.ID, &memo.Content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if memo.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	if memo.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	memo.Themes = []string{}
	return &memo, nil
}
