// Package search finds table of contents entries by heading text.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/daisy/internal/book"
	"github.com/sahilm/fuzzy"
)

// Match is a search hit. Higher scores rank first; scores only compare
// within one result set.
type Match struct {
	Entry          *book.TocEntry
	Score          int
	MatchedIndexes []int // rune positions in Entry.Text, may be nil
}

// Index implements sahilm/fuzzy.Source over entry headings
type Index struct {
	entries     []*book.TocEntry
	lowerTitles []string // Pre-computed lowercase titles, rune-aligned with Entry.Text
	logger      *slog.Logger
}

// NewIndex indexes the given entries
func NewIndex(entries []*book.TocEntry, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	idx := &Index{
		entries:     entries,
		lowerTitles: make([]string, len(entries)),
		logger:      logger,
	}
	for i, e := range entries {
		idx.lowerTitles[i] = lowerRunes(e.Text)
	}
	logger.Debug("indexed entries", "count", len(entries))
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of entries (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.entries) }

// Find ranks entries against query. Three passes are tried in order and the
// first one with results wins:
//  1. ordered subsequence match ("chp 3" finds "Chapter 3")
//  2. the same ignoring accents ("cafe" finds "Café")
//  3. word by word with typo tolerance ("chapetr 9" finds "Chapter 9")
func (idx *Index) Find(query string) []Match {
	query = lowerRunes(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	if results := idx.subsequence(query); len(results) > 0 {
		idx.logger.Debug("search", "query", query, "pass", "subsequence", "results", len(results))
		return results
	}
	if results := idx.normalized(query); len(results) > 0 {
		idx.logger.Debug("search", "query", query, "pass", "normalized", "results", len(results))
		return results
	}
	results := idx.typos(query)
	idx.logger.Debug("search", "query", query, "pass", "typos", "results", len(results))
	return results
}

func (idx *Index) subsequence(query string) []Match {
	matches := fuzzy.FindFrom(query, idx)
	results := make([]Match, len(matches))
	for i, m := range matches {
		results[i] = Match{
			Entry:          idx.entries[m.Index],
			Score:          m.Score,
			MatchedIndexes: runeIndexes(idx.lowerTitles[m.Index], m.MatchedIndexes),
		}
	}
	return results
}

func (idx *Index) normalized(query string) []Match {
	ranks := lfuzzy.RankFindNormalizedFold(query, idx.lowerTitles)
	sort.Stable(ranks)
	results := make([]Match, len(ranks))
	for i, r := range ranks {
		results[i] = Match{Entry: idx.entries[r.OriginalIndex], Score: -r.Distance}
	}
	return results
}

// typos requires every query word to be within a few edits of some title word
func (idx *Index) typos(query string) []Match {
	queryWords := strings.Fields(query)
	var results []Match
	for i, title := range idx.lowerTitles {
		titleWords := strings.Fields(title)
		total := 0
		matched := true
		for _, q := range queryWords {
			best := -1
			limit := allowedTypos(len([]rune(q)))
			for _, w := range titleWords {
				if d := lfuzzy.LevenshteinDistance(q, w); d <= limit && (best < 0 || d < best) {
					best = d
				}
			}
			if best < 0 {
				matched = false
				break
			}
			total += best
		}
		if matched {
			results = append(results, Match{Entry: idx.entries[i], Score: -total})
		}
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	return results
}

// lowerRunes lowercases s one rune at a time so rune positions carry over
// to the original text. strings.ToLower may expand a rune (İ becomes i̇).
func lowerRunes(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// runeIndexes converts byte offsets into s to rune positions
func runeIndexes(s string, offsets []int) []int {
	if len(offsets) == 0 {
		return nil
	}
	byRune := make(map[int]int, utf8.RuneCountInString(s))
	n := 0
	for i := range s {
		byRune[i] = n
		n++
	}
	out := make([]int, 0, len(offsets))
	for _, off := range offsets {
		if r, ok := byRune[off]; ok {
			out = append(out, r)
		}
	}
	return out
}

// allowedTypos returns the number of typos allowed based on word length:
// 1-3 chars = 0, 4-6 chars = 1, 7+ chars = 2
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}
