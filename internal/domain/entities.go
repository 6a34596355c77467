package domain

import (
	"strings"
	"time"
)

// Reference points to a fragment inside a resource ("ch01.smil#par_0001").
type Reference struct {
	Resource string
	Fragment string
}

// ParseReference splits an href or src attribute on '#'.
// Fragment is empty when the value carries none.
func ParseReference(value string) Reference {
	resource, fragment, _ := strings.Cut(value, "#")
	return Reference{Resource: resource, Fragment: fragment}
}

// String returns the reference in href form
func (r Reference) String() string {
	if r.Fragment == "" {
		return r.Resource
	}
	return r.Resource + "#" + r.Fragment
}

// IsZero reports whether the reference points nowhere
func (r Reference) IsZero() bool {
	return r.Resource == "" && r.Fragment == ""
}

// MetaData is a <meta name content scheme> entry of the index document.
type MetaData struct {
	Name    string
	Content string
	Scheme  string
}

// Position is a reading position inside a book
type Position struct {
	EntryID   string    `json:"entry_id"`
	SectionID string    `json:"section_id,omitempty"`
	ClipID    string    `json:"clip_id,omitempty"`
	Level     int       `json:"level"` // navigation level filter, 0 = none
	UpdatedAt time.Time `json:"updated_at"`
}
