package types

import (
	"time"

	"github.com/google/uuid"
)

// Memo is a single note. Themes holds the IDs of the themes currently
// attached to it, whether assigned automatically by the analyzer or edited
// by the user.
type Memo struct {
	ID        string    `json:"id"`      // Unique identifier (UUID)
	Content   string    `json:"content"` // Raw note text
	Themes    []string  `json:"themes"`  // Attached theme IDs
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMemo creates a memo with a generated ID. A nil themes slice is
// normalized to an empty one so stored memos always round-trip as [].
func NewMemo(content string, themes []string) *Memo {
	now := time.Now().UTC()
	if themes == nil {
		themes = []string{}
	}
	return &Memo{
		ID:        uuid.NewString(),
		Content:   content,
		Themes:    themes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasTheme reports whether the memo is tagged with the given theme ID.
func (m *Memo) HasTheme(themeID string) bool {
	for _, id := range m.Themes {
		if id == themeID {
			return true
		}
	}
	return false
}
