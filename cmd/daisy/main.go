package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/cache"
	"github.com/mmcdole/daisy/internal/config"
	"github.com/mmcdole/daisy/internal/domain"
	"github.com/mmcdole/daisy/internal/fetch"
	"github.com/mmcdole/daisy/internal/logging"
	"github.com/mmcdole/daisy/internal/navigator"
	"github.com/mmcdole/daisy/internal/player"
	"github.com/mmcdole/daisy/internal/search"
	"github.com/mmcdole/daisy/internal/source"
	"github.com/mmcdole/daisy/internal/store"
	"github.com/mmcdole/daisy/internal/tui"
	"github.com/mmcdole/daisy/internal/tui/styles"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	configDir string
	level     int
	toc       bool
	find      string
	stats     bool
	books     bool
}

func main() {
	var showVersion bool
	var opts options
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.configDir, "config", "", "configuration directory")
	flag.IntVar(&opts.level, "level", -1, "navigation level (0 for all levels)")
	flag.BoolVar(&opts.toc, "toc", false, "print the table of contents and exit")
	flag.StringVar(&opts.find, "find", "", "print entries matching a heading search and exit")
	flag.BoolVar(&opts.stats, "stats", false, "print cache statistics on exit")
	flag.BoolVar(&opts.books, "books", false, "list recently opened books and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: daisy [flags] [book folder, .zip or URL]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("daisy %s\n", Version)
		return
	}

	if err := run(opts, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, location string) error {
	// Load configuration
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if location != "" {
		cfg.Source.Location = location
	}
	if opts.level >= 0 {
		cfg.Navigation.Level = opts.level
	}
	if opts.stats {
		cfg.Cache.Stats = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	interactive := !opts.toc && opts.find == "" && !opts.books

	// Setup logger
	logger, closer, err := logging.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = logging.NullLogger(), io.NopCloser(nil)
	} else if interactive && cfg.Logging.File == "" {
		// Console output would draw over the reader
		logger = logging.NullLogger()
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("starting daisy", "version", Version)

	bookmarks, err := store.NewBookmarkStore(cfg.Store.Dir, logger)
	if err != nil {
		logger.Warn("bookmarks unavailable, positions will not be kept", "error", err)
		bookmarks, _ = store.NewBookmarkStore("", logger)
	}
	defer bookmarks.Close()

	if opts.books {
		printBooks(bookmarks.Books())
		return nil
	}
	if !cfg.IsConfigured() {
		printBooks(bookmarks.Books())
		return fmt.Errorf("%w: no book location given", domain.ErrConfiguration)
	}
	if !fetch.IsURL(cfg.Source.Location) {
		if abs, err := filepath.Abs(cfg.Source.Location); err == nil {
			cfg.Source.Location = abs
		}
	}

	fetcher, err := fetch.Open(cfg.Source.Location, cfg.Source.Timeout, afero.NewOsFs(), logger)
	if err != nil {
		return err
	}
	src := source.New(fetcher, cfg.Cache.Size, cfg.Cache.Stats, logger)

	registry := prometheus.NewRegistry()
	src.Cache().SetMetrics(cache.NewMetrics(registry))
	defer writeMetrics(cfg.Metrics.File, registry, logger)

	b, err := book.Load(src, logger)
	if err != nil {
		return err
	}
	logger.Info("book loaded", "title", b.Title(), "entries", len(b.Entries()), "depth", b.NavigationDepth())

	nav, err := navigator.NewBookNavigator(b, cfg.Navigation.Level, logger)
	if err != nil {
		return err
	}

	key := store.BookKey(cfg.Source.Location)
	if err := bookmarks.SaveBook(store.BookRecord{
		Location: cfg.Source.Location,
		Title:    b.Title(),
		OpenedAt: time.Now(),
	}); err != nil {
		logger.Warn("failed to record book", "error", err)
	}
	if pos, ok := bookmarks.GetPosition(key); ok && interactive {
		if err := resume(nav, pos, opts.level); err != nil {
			logger.Warn("saved position no longer valid", "entry", pos.EntryID, "error", err)
		}
	}

	switch {
	case opts.toc:
		printToc(b, nav.Level())
	case opts.find != "":
		printMatches(search.NewIndex(b.Entries(), logger).Find(opts.find))
	default:
		nav.Subscribe(navigator.ObserverFunc(func(pos domain.Position) {
			if err := bookmarks.SavePosition(key, pos); err != nil {
				logger.Warn("failed to save position", "error", err)
			}
		}))
		if err := runReader(nav, cfg, logger); err != nil {
			return err
		}
	}

	if cfg.Cache.Stats {
		fmt.Println(src.Cache().Report())
	}
	logger.Info("shutting down")
	return nil
}

// resume restores a saved position. A level given on the command line
// wins over the saved one.
func resume(nav *navigator.BookNavigator, pos domain.Position, level int) error {
	if level >= 0 {
		pos.Level = level
	}
	return nav.Restore(pos)
}

// runReader runs the TUI until the user quits
func runReader(nav *navigator.BookNavigator, cfg *config.Config, logger *slog.Logger) error {
	launcher := player.NewLauncher(cfg.Player, logger)
	model := tui.NewModel(nav, launcher, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		for _, path := range m.TempFiles() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Debug("failed to remove clip file", "path", path, "error", err)
			}
		}
	}
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// writeMetrics dumps the registry in the text exposition format
func writeMetrics(path string, g prometheus.Gatherer, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		logger.Warn("failed to write metrics", "path", path, "error", err)
	}
}

// terminalWidth returns the width of stdout, 80 when it is not a terminal
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func printToc(b *book.Book, level int) {
	width := terminalWidth()
	fmt.Println(styles.TitleStyle.Render(b.Title()))
	if author, ok := b.Meta("dc:creator"); ok {
		fmt.Println(styles.SubtitleStyle.Render(author))
	}
	fmt.Println()

	for _, e := range b.Entries() {
		if level > 0 && e.Level > level {
			continue
		}
		indent := strings.Repeat("  ", max(e.Level-1, 0))
		id := styles.DimStyle.Render(e.ID)
		text := styles.Truncate(indent+e.Text, width-lipgloss.Width(e.ID)-2)
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top, styles.Pad(text, width-lipgloss.Width(e.ID)-1), " ", id))
	}
}

func printMatches(matches []search.Match) {
	if len(matches) == 0 {
		fmt.Println(styles.DimStyle.Render("No matches found"))
		return
	}
	for _, m := range matches {
		fmt.Printf("%s  %s\n", styles.HighlightMatches(m.Entry.Text, m.MatchedIndexes, false),
			styles.DimStyle.Render(m.Entry.ID))
	}
}

func printBooks(books []store.BookRecord) {
	if len(books) == 0 {
		return
	}
	fmt.Println(styles.TitleStyle.Render("Recent books"))
	for _, rec := range books {
		fmt.Printf("  %s  %s  %s\n",
			styles.AccentStyle.Render(rec.Title),
			rec.Location,
			styles.DimStyle.Render(rec.OpenedAt.Format(time.DateOnly)))
	}
}
