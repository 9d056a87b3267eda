// Command memotheme is the memo + theme relevance engine CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dr-Min/memotheme/internal/analyzer"
	"github.com/Dr-Min/memotheme/internal/config"
	"github.com/Dr-Min/memotheme/internal/importer"
	"github.com/Dr-Min/memotheme/internal/memo"
	"github.com/Dr-Min/memotheme/internal/notify"
	"github.com/Dr-Min/memotheme/internal/storage"
	"github.com/Dr-Min/memotheme/internal/storage/postgres"
	"github.com/Dr-Min/memotheme/internal/storage/sqlite"
	"github.com/Dr-Min/memotheme/internal/theme"
	"github.com/Dr-Min/memotheme/pkg/types"
)

// app holds the wired services behind every subcommand.
type app struct {
	cfg      *config.Config
	store    *sqlite.Store
	learning storage.LearningStore
	analyzer *analyzer.Analyzer
	memos    *memo.Service
	themes   *theme.Service
	closers  []func() error
}

// newApp loads config and wires storage, the relevance engine, and the
// services. Memos and themes always live in SQLite; the learning tables can
// alternatively live in Postgres, in which case they run behind a circuit
// breaker so a dead learning backend fails fast instead of stalling saves.
func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := sqlite.NewStore(cfg.SQLitePath())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, store: store}
	a.closers = append(a.closers, store.Close)

	a.learning = store
	if cfg.Storage.StorageEngine == "postgres" {
		pg, err := postgres.NewLearningStore(cfg.Storage.PostgresDSN)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		a.learning = storage.NewBreakerLearningStore(pg, storage.BreakerConfig{})
	}

	a.analyzer = analyzer.New(a.learning, analyzer.NewProseExtractor(), cfg.AnalyzerEngineConfig())
	a.themes = theme.NewService(store)
	a.memos = memo.NewService(store, store, a.analyzer)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("memotheme: close error: %v", err)
		}
	}
}

// run wires the app, hands it to fn, and tears it down afterwards.
func run(fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd.Context(), a, cmd, args)
	}
}

var rootCmd = &cobra.Command{
	Use:   "memotheme",
	Short: "Personal memos with learned theme relevance",
	Long: `Memotheme stores short memos and attaches themes to them automatically.
The relevance engine scores each theme against the memo text using theme
keywords, learned word associations, frequent terms, theme descriptions,
and the theme hierarchy, and it learns from every manual retag.`,
	SilenceUsage: true,
}

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a memo, auto-detecting its themes",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		m, err := a.memos.Add(ctx, strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		fmt.Printf("memo %s\n", m.ID)
		return printThemeNames(ctx, a, m.Themes)
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memos, optionally filtered and grouped",
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		themeFilter, _ := cmd.Flags().GetString("theme")
		groupBy, _ := cmd.Flags().GetString("group")
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")

		memos, err := a.memos.All(ctx)
		if err != nil {
			return err
		}
		if themeFilter != "" {
			memos = memo.FilterByTheme(memos, themeFilter)
		}
		if fromStr != "" || toStr != "" {
			from, to, err := parseDateRange(fromStr, toStr)
			if err != nil {
				return err
			}
			memos = memo.FilterByDateRange(memos, from, to)
		}

		switch groupBy {
		case "day", "month", "year":
			var groups []memo.DateGroup
			switch groupBy {
			case "day":
				groups = memo.GroupByDay(memos)
			case "month":
				groups = memo.GroupByMonth(memos)
			case "year":
				groups = memo.GroupByYear(memos)
			}
			for _, g := range groups {
				fmt.Printf("== %s ==\n", g.Label)
				for _, m := range g.Memos {
					printMemo(m)
				}
			}
		default:
			for _, m := range memos {
				printMemo(m)
			}
		}
		return nil
	}),
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the theme catalog as a tree",
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		roots, err := a.themes.Roots(ctx)
		if err != nil {
			return err
		}
		for _, root := range roots {
			if err := printThemeTree(ctx, a, root, 0); err != nil {
				return err
			}
		}
		return nil
	}),
}

var themeAddCmd = &cobra.Command{
	Use:   "theme-add <name> [keywords...]",
	Short: "Create a theme",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		t, err := a.themes.Add(ctx, args[0], args[1:], parent)
		if err != nil {
			return err
		}
		fmt.Printf("theme %s (%s)\n", t.Name, t.ID)
		return nil
	}),
}

var themeRmCmd = &cobra.Command{
	Use:   "theme-rm <theme-id>",
	Short: "Delete a theme, detaching its memos and orphaning its children",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if err := a.themes.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("theme deleted")
		return nil
	}),
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Score themes against text without storing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		catalog, err := a.themes.All(ctx)
		if err != nil {
			return err
		}
		relevances, err := a.analyzer.ScoreThemes(ctx, strings.Join(args, " "), catalog)
		if err != nil {
			return err
		}

		names := make(map[string]string, len(catalog))
		for _, t := range catalog {
			names[t.ID] = t.Name
		}
		for _, r := range relevances {
			b := r.Breakdown
			fmt.Printf("%-20s %.3f  (kw %.3f  pat %.3f  freq %.3f  ctx %.3f  hier %.3f)\n",
				names[r.ThemeID], r.Score,
				b.KeywordMatch, b.UserPattern, b.FrequencyBoost, b.ContextRelevance, b.HierarchyBonus)
		}
		return nil
	}),
}

var retagCmd = &cobra.Command{
	Use:   "retag <memo-id> [theme-ids...]",
	Short: "Replace a memo's themes, teaching the engine the correction",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		m, err := a.memos.Retag(ctx, args[0], args[1:])
		if err != nil {
			return err
		}
		printMemo(m)
		return nil
	}),
}

var wordCmd = &cobra.Command{
	Use:   "word <word>",
	Short: "Show the theme most strongly learned for a word",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		themeID, err := a.analyzer.MostRelevantThemeForWord(ctx, args[0])
		if err != nil {
			return err
		}
		if themeID == "" {
			fmt.Println("no learned association")
			return nil
		}
		t, err := a.themes.Get(ctx, themeID)
		if err != nil {
			fmt.Println(themeID)
			return nil
		}
		fmt.Printf("%s (%s)\n", t.Name, t.ID)
		return nil
	}),
}

var reanalyzeCmd = &cobra.Command{
	Use:   "reanalyze",
	Short: "Re-run theme detection over every stored memo",
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		n, err := a.memos.ReanalyzeAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("reanalyzed %d memos\n", n)
		return nil
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all learned patterns and frequent terms",
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to erase learning data without --yes")
		}
		if err := a.analyzer.ResetAllData(ctx); err != nil {
			return err
		}
		fmt.Println("learning data erased")
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file-or-dir>",
	Short: "Import memo files (.md/.txt, optional YAML frontmatter)",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		imp := importer.New(a.memos, a.themes)

		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if info.IsDir() {
			n, err := imp.ImportDir(ctx, args[0])
			fmt.Printf("imported %d files\n", n)
			return err
		}
		m, err := imp.ImportFile(ctx, args[0])
		if err != nil {
			return err
		}
		printMemo(m)
		return nil
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox directory and import dropped memo files",
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		imp := importer.New(a.memos, a.themes)
		watcher := notify.NewInboxWatcher(a.cfg.Import.InboxPath, imp,
			a.cfg.Import.RatePerSec, a.cfg.Import.RemoveFiles)
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		watcher.Stop()
		return nil
	}),
}

// parseDateRange parses YYYY-MM-DD bounds. A missing bound widens to a
// distant past or future day so the inclusive-day filter still applies.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.Local)

	var err error
	if fromStr != "" {
		if from, err = time.ParseInLocation("2006-01-02", fromStr, time.Local); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
		}
	}
	if toStr != "" {
		if to, err = time.ParseInLocation("2006-01-02", toStr, time.Local); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
		}
	}
	return from, to, nil
}

func printMemo(m *types.Memo) {
	text := m.Content
	if len(text) > 60 {
		text = text[:60] + "…"
	}
	fmt.Printf("%s  %s  [%s]  %s\n",
		m.ID, m.CreatedAt.Format("2006-01-02 15:04"), strings.Join(m.Themes, ","), text)
}

func printThemeNames(ctx context.Context, a *app, ids []string) error {
	if len(ids) == 0 {
		fmt.Println("themes: (none)")
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		t, err := a.themes.Get(ctx, id)
		if err != nil {
			names = append(names, id)
			continue
		}
		names = append(names, t.Name)
	}
	fmt.Printf("themes: %s\n", strings.Join(names, ", "))
	return nil
}

func printThemeTree(ctx context.Context, a *app, t *types.Theme, depth int) error {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s (%s)  keywords: %s\n", indent, t.Name, t.ID, strings.Join(t.Keywords, ", "))

	children, err := a.themes.Children(ctx, t.ID)
	if err != nil {
		return err
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	for _, child := range children {
		if err := printThemeTree(ctx, a, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("theme", "", "Filter by theme ID")

	listCmd.Flags().String("group", "", "Group output by day, month, or year")
	listCmd.Flags().String("from", "", "Only memos created on or after this date (YYYY-MM-DD)")
	listCmd.Flags().String("to", "", "Only memos created on or before this date (YYYY-MM-DD)")
	themeAddCmd.Flags().String("parent", "", "Parent theme ID")
	resetCmd.Flags().Bool("yes", false, "Confirm erasing all learning data")

	rootCmd.AddCommand(addCmd, listCmd, themesCmd, themeAddCmd, themeRmCmd,
		analyzeCmd, retagCmd, wordCmd, reanalyzeCmd, resetCmd, importCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
