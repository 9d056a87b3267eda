package types

import (
	"time"

	"github.com/google/uuid"
)

// Theme represents a topic node in the user's theme tree. Themes carry the
// keyword list and optional description that drive automatic classification,
// plus parent/child links used by the hierarchy optimizer.
//
// The analyzer treats themes as read-only snapshots; all mutation goes
// through the theme service, which keeps ParentTheme/ChildThemes mutually
// consistent.
type Theme struct {
	ID          string    `json:"id"`                     // Unique identifier (UUID)
	Name        string    `json:"name"`                   // Display name
	Description string    `json:"description,omitempty"`  // Free text used for contextual scoring
	Icon        string    `json:"icon,omitempty"`         // UI icon hint (e.g. "label", "book")
	Color       string    `json:"color,omitempty"`        // UI color hint
	Keywords    []string  `json:"keywords"`               // Keywords that identify this theme
	ParentTheme string    `json:"parent_theme,omitempty"` // Parent theme ID ("" for roots)
	ChildThemes []string  `json:"child_themes"`           // Child theme IDs
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTheme creates a theme with a generated ID and the given name, keywords,
// and optional parent. The caller is responsible for registering the new ID
// in the parent's ChildThemes (the theme service does this).
func NewTheme(name string, keywords []string, parentID string) *Theme {
	now := time.Now().UTC()
	if keywords == nil {
		keywords = []string{}
	}
	return &Theme{
		ID:          uuid.NewString(),
		Name:        name,
		Icon:        "label",
		Keywords:    keywords,
		ParentTheme: parentID,
		ChildThemes: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasParent reports whether the theme has a parent link.
func (t *Theme) HasParent() bool {
	return t.ParentTheme != ""
}
