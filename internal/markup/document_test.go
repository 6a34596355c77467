package markup

import (
	"testing"

	"github.com/mmcdole/daisy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smilSample = `<?xml version="1.0" encoding="iso-8859-1"?>
<!DOCTYPE smil PUBLIC "-//W3C//DTD SMIL 1.0//EN" "http://www.w3.org/TR/REC-smil/SMIL10.dtd">
<smil>
  <head>
    <meta name="dc:title" content="Chapter One"/>
    <meta name="ncc:timeInThisSmil" content="00:01:30"/>
  </head>
  <body>
    <seq dur="90.0s">
      <par endsync="last" id="par_1">
        <text src="text.html#t1" id="txt_1"/>
        <seq>
          <audio src="a.mp3" clip-begin="npt=0.000s" clip-end="npt=4.500s" id="aud_1"/>
        </seq>
      </par>
    </seq>
  </body>
</smil>`

func TestParseXML(t *testing.T) {
	doc, err := Parse(smilSample)
	require.NoError(t, err)
	require.NotNil(t, doc.Root())
	assert.Equal(t, "smil", doc.Root().Name)

	title := doc.Elements(Query{Tag: "meta", Attrs: map[string]string{"name": "dc:title"}}).First()
	require.NotNil(t, title)
	assert.Equal(t, "Chapter One", title.Attr("content"))

	seqs := doc.Elements(Query{Tag: "seq", Parent: "body"})
	require.Len(t, seqs, 1)
	pars := seqs.First().Children("par")
	require.Len(t, pars, 1)
	assert.Equal(t, "par_1", pars.First().Attr("id"))

	audio := doc.ElementByID("aud_1")
	require.NotNil(t, audio)
	assert.Equal(t, "npt=4.500s", audio.Attr("clip-end"))
	assert.Equal(t, "seq", audio.Parent().Name)
	assert.Nil(t, doc.ElementByID("missing"))
}

func TestParseTextContent(t *testing.T) {
	doc, err := Parse("<a>This is <b>a\n\n   test</b></a>")
	require.NoError(t, err)

	assert.Equal(t, "This is a test", doc.Root().Text())
	assert.Equal(t, "This is ", doc.Root().Value())
	assert.Equal(t, "a test", doc.Root().Children("b").First().Text())
	assert.Len(t, doc.Root().Children(""), 1)
}

func TestParseHTMLEntities(t *testing.T) {
	doc, err := Parse(`<p id="x">caf&eacute;&nbsp;au lait</p>`)
	require.NoError(t, err)
	assert.Equal(t, "café au lait", doc.ElementByID("x").Text())
}

func TestParseHTMLFallback(t *testing.T) {
	// unclosed <meta> and <br> are not well-formed XML
	src := `<html><head><meta name="dc:title" content="Book"><title>x</title></head>
<body><h1 id="h1"><a href="a.smil#p1">Intro</a></h1><br></body></html>`

	doc, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "html", doc.Root().Name)

	meta := doc.Elements(Query{Tag: "meta", Attrs: map[string]string{"name": "dc:title"}}).First()
	require.NotNil(t, meta)
	assert.Equal(t, "Book", meta.Attr("content"))

	body := doc.ElementsByTag("body").First()
	require.NotNil(t, body)
	h1 := body.Children("h1").First()
	require.NotNil(t, h1)
	assert.Equal(t, "Intro", h1.Children("a").First().Text())
}

func TestParseRejectsNonMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain text", "ABCDEF"},
		{"empty", ""},
		{"broken xml", "<a><b></a>"},
		{"two roots", "<a/><b/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, domain.ErrNotMarkup)
		})
	}
}

func TestElementListFirstEmpty(t *testing.T) {
	var l ElementList
	assert.Nil(t, l.First())
}
