package analyzer

import (
	"reflect"
	"testing"

	"github.com/Dr-Min/memotheme/pkg/types"
)

func hierarchyCatalog() []*types.Theme {
	return []*types.Theme{
		{ID: "dev", ChildThemes: []string{"frontend", "backend"}},
		{ID: "frontend", ParentTheme: "dev"},
		{ID: "backend", ParentTheme: "dev"},
		{ID: "cooking"},
	}
}

func TestOptimizeHierarchy_FewerThanTwoPassThrough(t *testing.T) {
	themes := hierarchyCatalog()

	if got := OptimizeHierarchy(nil, themes, nil); len(got) != 0 {
		t.Errorf("nil candidates → %v, want empty", got)
	}
	single := []string{"frontend"}
	if got := OptimizeHierarchy(single, themes, map[string]float64{"frontend": 0.9}); !reflect.DeepEqual(got, single) {
		t.Errorf("single candidate → %v, want %v", got, single)
	}
}

func TestOptimizeHierarchy_CloseScoresPreferChild(t *testing.T) {
	themes := hierarchyCatalog()
	scores := map[string]float64{"frontend": 0.50, "dev": 0.45}

	got := OptimizeHierarchy([]string{"frontend", "dev"}, themes, scores)
	want := []string{"frontend"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v (specific child wins inside the closeness band)", got, want)
	}
}

func TestOptimizeHierarchy_WeakChildDropped(t *testing.T) {
	themes := hierarchyCatalog()
	scores := map[string]float64{"dev": 0.80, "frontend": 0.30}

	got := OptimizeHierarchy([]string{"dev", "frontend"}, themes, scores)
	want := []string{"dev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v (child below 0.7×parent is noise)", got, want)
	}
}

func TestOptimizeHierarchy_DistinctStrongScoresKeepBoth(t *testing.T) {
	themes := hierarchyCatalog()
	// Gap ≥ closeness band and child ≥ 0.7×parent: both genuinely relevant.
	scores := map[string]float64{"dev": 0.90, "frontend": 0.70}

	got := OptimizeHierarchy([]string{"dev", "frontend"}, themes, scores)
	want := []string{"dev", "frontend"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOptimizeHierarchy_MajorityChildrenCollapse(t *testing.T) {
	themes := hierarchyCatalog()
	// Both of dev's children selected alongside it, scores far enough apart
	// that the pairwise rules keep everything; the majority rule collapses
	// the children into dev.
	scores := map[string]float64{"dev": 0.95, "frontend": 0.70, "backend": 0.69}

	got := OptimizeHierarchy([]string{"dev", "frontend", "backend"}, themes, scores)
	want := []string{"dev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v (majority of children collapse into parent)", got, want)
	}
}

func TestOptimizeHierarchy_SingleChildDoesNotCollapse(t *testing.T) {
	themes := []*types.Theme{
		{ID: "p", ChildThemes: []string{"a", "b", "c", "d"}},
		{ID: "a", ParentTheme: "p"},
		{ID: "cooking"},
	}
	// One selected child out of four: under both the ≥2 floor and the 50%
	// bar, and far from the parent's score, so everything survives.
	scores := map[string]float64{"p": 0.95, "a": 0.70, "cooking": 0.60}

	got := OptimizeHierarchy([]string{"p", "a", "cooking"}, themes, scores)
	want := []string{"p", "a", "cooking"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOptimizeHierarchy_UnrelatedThemesUntouched(t *testing.T) {
	themes := hierarchyCatalog()
	scores := map[string]float64{"frontend": 0.8, "cooking": 0.5}

	got := OptimizeHierarchy([]string{"frontend", "cooking"}, themes, scores)
	want := []string{"frontend", "cooking"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOptimizeHierarchy_DanglingCandidateSkipped(t *testing.T) {
	themes := hierarchyCatalog()
	scores := map[string]float64{"frontend": 0.8, "ghost": 0.7, "cooking": 0.5}

	got := OptimizeHierarchy([]string{"frontend", "ghost", "cooking"}, themes, scores)
	want := []string{"frontend", "cooking"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v (IDs missing from the catalog are absent)", got, want)
	}
}

func TestOptimizeHierarchy_PreservesInputOrder(t *testing.T) {
	themes := hierarchyCatalog()
	scores := map[string]float64{"cooking": 0.9, "frontend": 0.6}

	got := OptimizeHierarchy([]string{"cooking", "frontend"}, themes, scores)
	want := []string{"cooking", "frontend"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want input order preserved", got)
	}
}
