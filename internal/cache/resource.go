package cache

import (
	"unicode/utf8"

	"github.com/mmcdole/daisy/internal/markup"
)

// Kind tells which representation a Resource holds
type Kind int

const (
	KindBytes Kind = iota
	KindText
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDocument:
		return "document"
	default:
		return "bytes"
	}
}

// Resource is a fetched resource in its most refined form.
// Exactly one of Bytes, Text or Doc is meaningful, as told by Kind.
type Resource struct {
	Kind  Kind
	Bytes []byte
	Text  string
	Doc   *markup.Document
}

// NewResource converts raw bytes as far as possible:
// valid UTF-8 becomes text, text that parses as markup becomes a document.
func NewResource(data []byte) Resource {
	if !utf8.Valid(data) {
		return Resource{Kind: KindBytes, Bytes: data}
	}
	return TextResource(string(data))
}

// TextResource wraps text, upgrading it to a document when it parses
func TextResource(text string) Resource {
	if doc, err := markup.Parse(text); err == nil {
		return Resource{Kind: KindDocument, Doc: doc}
	}
	return Resource{Kind: KindText, Text: text}
}
