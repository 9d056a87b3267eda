// Package theme manages the theme catalog: CRUD plus the parent/child
// bookkeeping that keeps the tree mutually consistent for the analyzer.
package theme

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// Service wraps a ThemeStore with tree bookkeeping. The relevance engine
// reads themes as snapshots; every mutation goes through here so parent and
// child links stay consistent both ways.
type Service struct {
	store storage.ThemeStore
}

// NewService creates a theme service over the given store.
func NewService(store storage.ThemeStore) *Service {
	return &Service{store: store}
}

// All returns the full catalog.
func (s *Service) All(ctx context.Context) ([]*types.Theme, error) {
	return s.store.ListThemes(ctx)
}

// Get returns one theme by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Theme, error) {
	return s.store.GetTheme(ctx, id)
}

// Add creates a theme. When parentID is non-empty the new theme is also
// registered in the parent's child list.
func (s *Service) Add(ctx context.Context, name string, keywords []string, parentID string) (*types.Theme, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("theme: %w: name is required", storage.ErrInvalidInput)
	}

	newTheme := types.NewTheme(name, cleanKeywords(keywords), parentID)

	if parentID != "" {
		parent, err := s.store.GetTheme(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("theme: failed to load parent: %w", err)
		}
		parent.ChildThemes = append(parent.ChildThemes, newTheme.ID)
		parent.UpdatedAt = time.Now().UTC()
		if err := s.store.SaveTheme(ctx, parent); err != nil {
			return nil, fmt.Errorf("theme: failed to update parent: %w", err)
		}
	}

	if err := s.store.SaveTheme(ctx, newTheme); err != nil {
		return nil, fmt.Errorf("theme: failed to save theme: %w", err)
	}
	return newTheme, nil
}

// Update persists an edited theme. Keywords are trimmed and blanks dropped.
func (s *Service) Update(ctx context.Context, theme *types.Theme) error {
	if theme == nil || theme.ID == "" {
		return fmt.Errorf("theme: %w: theme must have an ID", storage.ErrInvalidInput)
	}
	theme.Keywords = cleanKeywords(theme.Keywords)
	theme.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveTheme(ctx, theme); err != nil {
		return fmt.Errorf("theme: failed to update theme: %w", err)
	}
	return nil
}

// Delete removes a theme, detaches it from its parent's child list, and
// turns its children into roots.
func (s *Service) Delete(ctx context.Context, id string) error {
	doomed, err := s.store.GetTheme(ctx, id)
	if err != nil {
		return fmt.Errorf("theme: failed to load theme: %w", err)
	}

	if doomed.HasParent() {
		parent, err := s.store.GetTheme(ctx, doomed.ParentTheme)
		if err == nil {
			parent.ChildThemes = removeID(parent.ChildThemes, id)
			parent.UpdatedAt = time.Now().UTC()
			if err := s.store.SaveTheme(ctx, parent); err != nil {
				return fmt.Errorf("theme: failed to detach from parent: %w", err)
			}
		} else if err != storage.ErrNotFound {
			return fmt.Errorf("theme: failed to load parent: %w", err)
		}
		// A dangling parent reference is tolerated; nothing to detach.
	}

	for _, childID := range doomed.ChildThemes {
		child, err := s.store.GetTheme(ctx, childID)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return fmt.Errorf("theme: failed to load child: %w", err)
		}
		child.ParentTheme = ""
		child.UpdatedAt = time.Now().UTC()
		if err := s.store.SaveTheme(ctx, child); err != nil {
			return fmt.Errorf("theme: failed to orphan child: %w", err)
		}
	}

	if err := s.store.DeleteTheme(ctx, id); err != nil {
		return fmt.Errorf("theme: failed to delete theme: %w", err)
	}
	return nil
}

// Roots returns all themes without a parent.
func (s *Service) Roots(ctx context.Context) ([]*types.Theme, error) {
	themes, err := s.store.ListThemes(ctx)
	if err != nil {
		return nil, err
	}
	roots := make([]*types.Theme, 0, len(themes))
	for _, theme := range themes {
		if !theme.HasParent() {
			roots = append(roots, theme)
		}
	}
	return roots, nil
}

// Children returns the direct children of a theme, in the parent's stored
// order. Dangling child references are skipped.
func (s *Service) Children(ctx context.Context, id string) ([]*types.Theme, error) {
	parent, err := s.store.GetTheme(ctx, id)
	if err != nil {
		return nil, err
	}

	children := make([]*types.Theme, 0, len(parent.ChildThemes))
	for _, childID := range parent.ChildThemes {
		child, err := s.store.GetTheme(ctx, childID)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func cleanKeywords(keywords []string) []string {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	return cleaned
}

func removeID(ids []string, target string) []string {
	filtered := ids[:0]
	for _, id := range ids {
		if id != target {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
