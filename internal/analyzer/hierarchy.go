package analyzer

import (
	"math"

	"github.com/Dr-Min/memotheme/pkg/types"
)

// Hierarchy resolution constants. When a parent and child are both selected
// and score within closenessBand of each other, the more specific child
// wins; a child below weakChildRatio of its parent's score is dropped as
// noise; and when at least half of a theme's children (and no fewer than
// two) are selected, they collapse into the parent.
const (
	closenessBand     = 0.2
	weakChildRatio    = 0.7
	collapseThreshold = 0.5
)

// OptimizeHierarchy prunes parent/child redundancy from a candidate theme ID
// set. Candidates must arrive in descending-score order; survivors are
// returned in that same order. Candidate IDs missing from the catalog, and
// parent references pointing outside the candidate set, are treated as
// absent. Fewer than two candidates pass through untouched.
func OptimizeHierarchy(candidateIDs []string, allThemes []*types.Theme, scores map[string]float64) []string {
	if len(candidateIDs) <= 1 {
		return candidateIDs
	}

	themesByID := make(map[string]*types.Theme, len(allThemes))
	for _, theme := range allThemes {
		themesByID[theme.ID] = theme
	}

	candidateSet := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		candidateSet[id] = struct{}{}
	}

	kept := make(map[string]struct{})
	dropped := make(map[string]struct{})

	inCandidates := func(id string) bool {
		_, ok := candidateSet[id]
		return ok
	}
	isDropped := func(id string) bool {
		_, ok := dropped[id]
		return ok
	}

	for _, themeID := range candidateIDs {
		if isDropped(themeID) {
			continue
		}
		theme, ok := themesByID[themeID]
		if !ok {
			continue
		}

		if theme.HasParent() && inCandidates(theme.ParentTheme) && !isDropped(theme.ParentTheme) {
			parentScore := scores[theme.ParentTheme]
			childScore := scores[themeID]
			switch {
			case math.Abs(parentScore-childScore) < closenessBand:
				// Comparably relevant: prefer the specific child.
				dropped[theme.ParentTheme] = struct{}{}
				kept[themeID] = struct{}{}
			case childScore < parentScore*weakChildRatio:
				dropped[themeID] = struct{}{}
				kept[theme.ParentTheme] = struct{}{}
			default:
				kept[themeID] = struct{}{}
				kept[theme.ParentTheme] = struct{}{}
			}
		} else {
			kept[themeID] = struct{}{}
		}

		// A majority of children selected means the parent-level concept is
		// what the memo is actually about.
		if len(theme.ChildThemes) > 0 {
			var present []string
			for _, childID := range theme.ChildThemes {
				if inCandidates(childID) && !isDropped(childID) {
					present = append(present, childID)
				}
			}
			if len(present) > 1 && float64(len(present)) >= float64(len(theme.ChildThemes))*collapseThreshold {
				for _, childID := range present {
					dropped[childID] = struct{}{}
				}
				kept[themeID] = struct{}{}
			}
		}
	}

	// Drop rules win over keep rules.
	result := make([]string, 0, len(kept))
	for _, id := range candidateIDs {
		if _, ok := kept[id]; !ok {
			continue
		}
		if isDropped(id) {
			continue
		}
		result = append(result, id)
	}
	return result
}
