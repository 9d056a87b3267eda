// Package importer turns dropped Markdown or plain-text files into memos.
// Files may carry YAML frontmatter naming themes explicitly; files without
// it are auto-themed through the relevance engine.
package importer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Dr-Min/memotheme/internal/memo"
	"github.com/Dr-Min/memotheme/internal/theme"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// frontmatter is the subset of YAML keys the importer understands.
type frontmatter struct {
	Themes []string `yaml:"themes"` // Theme names (not IDs)
}

// ParsedFile is one memo file split into frontmatter and body.
type ParsedFile struct {
	Path       string
	Content    string   // Body with frontmatter stripped
	ThemeNames []string // Theme names from frontmatter, if any
}

// Importer converts memo files into stored memos.
type Importer struct {
	memos  *memo.Service
	themes *theme.Service
}

// New creates an importer over the memo and theme services.
func New(memos *memo.Service, themes *theme.Service) *Importer {
	return &Importer{memos: memos, themes: themes}
}

// ImportFile reads, parses, and stores a single memo file. Files with
// frontmatter themes get those themes resolved by name (unknown names are
// skipped); files without get auto-themed by the engine.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*types.Memo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to read %s: %w", path, err)
	}

	parsed, err := ParseFile(string(raw), path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.Content) == "" {
		return nil, fmt.Errorf("importer: %s has no content", path)
	}

	var themeIDs []string
	if len(parsed.ThemeNames) > 0 {
		themeIDs, err = imp.resolveThemeNames(ctx, parsed.ThemeNames)
		if err != nil {
			return nil, err
		}
	}

	created, err := imp.memos.Add(ctx, parsed.Content, themeIDs)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to store %s: %w", path, err)
	}
	return created, nil
}

// ImportDir imports every .md and .txt file directly inside dir, returning
// the number imported. Individual file failures abort the run so the host
// can surface them; already-imported files are not tracked here (the inbox
// watcher removes files it has processed).
func (imp *Importer) ImportDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("importer: failed to read directory %s: %w", dir, err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsMemoFile(entry.Name()) {
			continue
		}
		if _, err := imp.ImportFile(ctx, filepath.Join(dir, entry.Name())); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// IsMemoFile reports whether a filename looks like an importable memo.
func IsMemoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt":
		return true
	}
	return false
}

// ParseFile splits a file into frontmatter and body. Files without a
// leading "---" line are all body.
func ParseFile(text, path string) (*ParsedFile, error) {
	fm, body, err := splitFrontmatter(text)
	if err != nil {
		return nil, fmt.Errorf("importer: frontmatter parse error in %s: %w", path, err)
	}
	return &ParsedFile{
		Path:       path,
		Content:    strings.TrimSpace(body),
		ThemeNames: fm.Themes,
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the body. Returns a zero frontmatter and the full text when none is found.
func splitFrontmatter(text string) (frontmatter, string, error) {
	var fm frontmatter

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fm, text, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return fm, text, nil
	}

	fmText := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return frontmatter{}, "", err
	}
	body := strings.Join(lines[end+1:], "\n")
	return fm, body, nil
}

// resolveThemeNames maps frontmatter theme names to catalog IDs. Name
// matching is case-insensitive; unknown names are skipped rather than
// invented.
func (imp *Importer) resolveThemeNames(ctx context.Context, names []string) ([]string, error) {
	catalog, err := imp.themes.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to load themes: %w", err)
	}

	byName := make(map[string]string, len(catalog))
	for _, t := range catalog {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	var ids []string
	for _, name := range names {
		if id, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
