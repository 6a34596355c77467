// Package markup provides a small element tree over XML and HTML documents.
// Book parsing only depends on this facade, never on a specific parser.
package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mmcdole/daisy/internal/domain"
	"golang.org/x/net/html"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

var whitespace = regexp.MustCompile(`[\s\p{Z}]+`)

// Element is a node of the parsed tree.
type Element struct {
	Name     string
	attrs    map[string]string
	children []*Element
	parent   *Element
	text     strings.Builder // character data, in document order
	first    string          // first character data chunk
	hasFirst bool
}

// Attr returns the named attribute or "" when absent
func (e *Element) Attr(name string) string {
	return e.attrs[name]
}

// HasAttr reports whether the attribute is present
func (e *Element) HasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// Value returns the raw first character data chunk of the element
func (e *Element) Value() string {
	return e.first
}

// Text returns the element's text content (including descendants) with
// runs of whitespace collapsed to one space and trimmed.
func (e *Element) Text() string {
	return strings.TrimSpace(whitespace.ReplaceAllString(e.text.String(), " "))
}

// Children returns direct child elements, optionally restricted to a tag name.
// An empty tag returns all children.
func (e *Element) Children(tag string) ElementList {
	if tag == "" {
		return ElementList(e.children)
	}
	var out ElementList
	for _, c := range e.children {
		if c.Name == tag {
			out = append(out, c)
		}
	}
	return out
}

// Parent returns the enclosing element, nil for the root
func (e *Element) Parent() *Element {
	return e.parent
}

// ElementList is an ordered list of elements.
type ElementList []*Element

// First returns the first element or nil
func (l ElementList) First() *Element {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// Query selects elements by tag name with optional attribute and parent filters.
type Query struct {
	Tag    string            // required tag name, "*" for any
	Attrs  map[string]string // every pair must match exactly
	Parent string            // direct parent tag name
}

func (q Query) matches(e *Element) bool {
	if q.Tag != "*" && e.Name != q.Tag {
		return false
	}
	for k, v := range q.Attrs {
		if got, ok := e.attrs[k]; !ok || got != v {
			return false
		}
	}
	if q.Parent != "" && (e.parent == nil || e.parent.Name != q.Parent) {
		return false
	}
	return true
}

// Document is a parsed markup document.
type Document struct {
	root *Element
}

// Root returns the document element
func (d *Document) Root() *Element {
	return d.root
}

// Elements returns every element matching the query, in document order
func (d *Document) Elements(q Query) ElementList {
	var out ElementList
	walk(d.root, func(e *Element) {
		if q.matches(e) {
			out = append(out, e)
		}
	})
	return out
}

// ElementsByTag is shorthand for Elements(Query{Tag: tag})
func (d *Document) ElementsByTag(tag string) ElementList {
	return d.Elements(Query{Tag: tag})
}

// ElementByID returns the first element whose id attribute matches
func (d *Document) ElementByID(id string) *Element {
	var found *Element
	walk(d.root, func(e *Element) {
		if found == nil && e.attrs["id"] == id {
			found = e
		}
	})
	return found
}

func walk(e *Element, fn func(*Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.children {
		walk(c, fn)
	}
}

// Parse builds a Document from text. Well-formed XML is parsed strictly;
// text that fails XML parsing but declares an <html> element is handed to
// the lenient HTML parser. Anything else yields domain.ErrNotMarkup.
func Parse(text string) (*Document, error) {
	doc, xmlErr := parseXML(text)
	if xmlErr == nil {
		return doc, nil
	}
	if strings.Contains(strings.ToLower(text), "<html") {
		if doc, err := parseHTML(text); err == nil {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrNotMarkup, xmlErr)
}

func parseXML(text string) (*Document, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	// text is already valid UTF-8, whatever the declaration says
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root, cur *Element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.attrs[attrName(a.Name)] = a.Value
			}
			if cur == nil {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = el
			} else {
				el.parent = cur
				cur.children = append(cur.children, el)
			}
			cur = el
		case xml.EndElement:
			if cur != nil {
				cur = cur.parent
			}
		case xml.CharData:
			if cur != nil {
				appendText(cur, string(t))
			} else if strings.TrimSpace(string(t)) != "" {
				return nil, errors.New("character data outside root element")
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return &Document{root: root}, nil
}

// attrName keeps well-known prefixes readable ("xml:lang") and drops
// namespace URIs the decoder substitutes for declared prefixes.
func attrName(n xml.Name) string {
	switch n.Space {
	case "xmlns":
		return "xmlns:" + n.Local
	case "xml", xmlNamespace:
		return "xml:" + n.Local
	}
	return n.Local
}

func parseHTML(text string) (*Document, error) {
	node, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	var root *Element
	var build func(n *html.Node, parent *Element)
	build = func(n *html.Node, parent *Element) {
		switch n.Type {
		case html.ElementNode:
			el := &Element{Name: n.Data, attrs: make(map[string]string, len(n.Attr)), parent: parent}
			for _, a := range n.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + ":" + a.Key
				}
				el.attrs[key] = a.Val
			}
			if parent == nil {
				root = el
			} else {
				parent.children = append(parent.children, el)
			}
			parent = el
		case html.TextNode:
			if parent != nil {
				appendText(parent, n.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			build(c, parent)
		}
	}
	build(node, nil)
	if root == nil {
		return nil, errors.New("no root element")
	}
	return &Document{root: root}, nil
}

// appendText records character data on el and all its ancestors so Text()
// reflects descendants without walking the tree again.
func appendText(el *Element, s string) {
	if !el.hasFirst {
		el.first = s
		el.hasFirst = true
	}
	for e := el; e != nil; e = e.parent {
		e.text.WriteString(s)
	}
}
