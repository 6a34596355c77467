// Package booktest synthesises DAISY books on an in-memory filesystem.
package booktest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/fetch"
	"github.com/mmcdole/daisy/internal/logging"
	"github.com/mmcdole/daisy/internal/source"
	"github.com/spf13/afero"
)

const (
	Dir             = "/book"
	Title           = "The Synthetic Book"
	Depth           = 3
	Entries         = 30
	SectionsPerUnit = 2
	ClipsPerSection = 2
	ClipSeconds     = 3.0
)

// Levels holds the heading level of each entry, in document order
var Levels = [Entries]int{
	1, 2, 3, 3, 2, 3, 1, 2, 2, 3,
	3, 3, 1, 2, 3, 2, 1, 1, 2, 3,
	2, 3, 3, 1, 2, 2, 3, 2, 1, 2,
}

var levelWords = map[int]string{1: "Part", 2: "Chapter", 3: "Section"}

// EntryID returns the id of entry i, counted from 1
func EntryID(i int) string { return fmt.Sprintf("rgn_ncc_%04d", i) }

// UnitName returns the synchronisation file of entry i
func UnitName(i int) string { return fmt.Sprintf("s%04d.smil", i) }

// AudioName returns the audio file of entry i
func AudioName(i int) string { return fmt.Sprintf("a%04d.mp3", i) }

// EntryText returns the heading text of entry i
func EntryText(i int) string { return fmt.Sprintf("%s %d", levelWords[Levels[i-1]], i) }

// FragmentText returns the text of section s (from 1) of entry i
func FragmentText(i, s int) string { return fmt.Sprintf("Entry %d says part %d.", i, s) }

// Files returns the resources of the synthetic book by name
func Files() map[string][]byte {
	files := make(map[string][]byte)

	var ncc strings.Builder
	ncc.WriteString(`<?xml version="1.0" encoding="windows-1252"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
<title>` + Title + `</title>
<meta http-equiv="Content-type" content="text/html; charset=windows-1252" />
<meta name="dc:title" content="` + Title + `" />
<meta name="dc:language" content="en" scheme="ISO 639" />
<meta name="ncc:charset" content="windows-1252" />
<meta name="ncc:depth" content="3" />
</head>
<body>
`)
	var text strings.Builder
	text.WriteString("<html>\n<body>\n")

	for i := 1; i <= Entries; i++ {
		level := Levels[i-1]
		fmt.Fprintf(&ncc, "<h%d id=\"%s\"><a href=\"%s#tx_%04d_1\">%s</a></h%d>\n",
			level, EntryID(i), UnitName(i), i, EntryText(i), level)
		if i%10 == 0 {
			fmt.Fprintf(&ncc, "<span class=\"page-normal\" id=\"page_%d\"><a href=\"%s#tx_%04d_1\">%d</a></span>\n",
				i/10, UnitName(i), i, i/10)
		}
		files[UnitName(i)] = []byte(unit(i))
		files[AudioName(i)] = []byte{0xff, 0xfb, 0x90, byte(i)}
		for s := 1; s <= SectionsPerUnit; s++ {
			fmt.Fprintf(&text, "<p id=\"t%04d_%d\">%s</p>\n", i, s, FragmentText(i, s))
		}
	}
	ncc.WriteString("</body>\n</html>\n")
	text.WriteString("</body>\n</html>\n")

	files["ncc.html"] = []byte(ncc.String())
	files["text.html"] = []byte(text.String())
	return files
}

func unit(i int) string {
	total := SectionsPerUnit * ClipsPerSection * ClipSeconds
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="windows-1252"?>
<!DOCTYPE smil PUBLIC "-//W3C//DTD SMIL 1.0//EN" "SMIL10.dtd">
<smil>
<head>
<meta name="dc:format" content="Daisy 2.02" />
<meta name="dc:title" content="%s" />
<meta name="ncc:timeInThisSmil" content="00:00:%02d" />
<layout><region id="txtView" /></layout>
</head>
<body>
<seq dur="%.3fs">
`, EntryText(i), int(total), total)

	begin := 0.0
	for s := 1; s <= SectionsPerUnit; s++ {
		fmt.Fprintf(&b, "<par endsync=\"last\" id=\"tx_%04d_%d\">\n", i, s)
		fmt.Fprintf(&b, "<text src=\"text.html#t%04d_%d\" id=\"txt_%04d_%d\" />\n<seq>\n", i, s, i, s)
		for c := 1; c <= ClipsPerSection; c++ {
			fmt.Fprintf(&b, "<audio src=\"%s\" clip-begin=\"npt=%.3fs\" clip-end=\"npt=%.3fs\" id=\"au_%04d_%d_%d\" />\n",
				AudioName(i), begin, begin+ClipSeconds, i, s, c)
			begin += ClipSeconds
		}
		b.WriteString("</seq>\n</par>\n")
	}
	b.WriteString("</seq>\n</body>\n</smil>\n")
	return b.String()
}

// FS writes files below Dir on a fresh in-memory filesystem
func FS(tb testing.TB, files map[string][]byte) afero.Fs {
	tb.Helper()
	fsys := afero.NewMemMapFs()
	for name, data := range files {
		if err := afero.WriteFile(fsys, Dir+"/"+name, data, 0o644); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
	return fsys
}

// Source serves files through a folder fetcher with a cache of cacheSize
func Source(tb testing.TB, files map[string][]byte, cacheSize int) *source.Source {
	tb.Helper()
	folder, err := fetch.NewFolder(FS(tb, files), Dir, logging.NullLogger())
	if err != nil {
		tb.Fatalf("open folder: %v", err)
	}
	return source.New(folder, cacheSize, true, logging.NullLogger())
}

// Load builds the synthetic book, or one from modified files
func Load(tb testing.TB, files map[string][]byte) *book.Book {
	tb.Helper()
	if files == nil {
		files = Files()
	}
	b, err := book.Load(Source(tb, files, 10), logging.NullLogger())
	if err != nil {
		tb.Fatalf("load book: %v", err)
	}
	return b
}
