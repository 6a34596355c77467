// Package navigator moves through a book: a generic cursor, a table of
// contents cursor filtered by heading level and a navigator that keeps
// entry, section and clip positions consistent.
//
// None of the types here are safe for concurrent use.
package navigator

import (
	"fmt"

	"github.com/mmcdole/daisy/internal/domain"
)

// Cursor tracks a current position over a non-empty sequence.
// Moves that would leave the sequence report false and do not move.
type Cursor[T any] struct {
	items []T
	index int
}

// NewCursor returns a cursor on the first item. An empty sequence yields
// domain.ErrConfiguration.
func NewCursor[T any](items []T) (*Cursor[T], error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cursor needs at least one item", domain.ErrConfiguration)
	}
	return &Cursor[T]{items: items}, nil
}

func (c *Cursor[T]) First() T {
	c.index = 0
	return c.items[c.index]
}

func (c *Cursor[T]) Last() T {
	c.index = len(c.items) - 1
	return c.items[c.index]
}

func (c *Cursor[T]) Next() (T, bool) {
	if c.index+1 <= len(c.items)-1 {
		c.index++
		return c.items[c.index], true
	}
	var zero T
	return zero, false
}

func (c *Cursor[T]) Prev() (T, bool) {
	if c.index-1 >= 0 {
		c.index--
		return c.items[c.index], true
	}
	var zero T
	return zero, false
}

func (c *Cursor[T]) Current() T {
	return c.items[c.index]
}

// MoveTo positions the cursor on index i
func (c *Cursor[T]) MoveTo(i int) (T, bool) {
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, false
	}
	c.index = i
	return c.items[i], true
}

func (c *Cursor[T]) Index() int { return c.index }
func (c *Cursor[T]) Len() int { return len(c.items) }
func (c *Cursor[T]) AtFirst() bool { return c.index == 0 }
func (c *Cursor[T]) AtLast() bool { return c.index == len(c.items)-1 }

// Items returns the underlying sequence; callers must not modify it
func (c *Cursor[T]) Items() []T {
	return c.items
}

// Lookup moves c to the first item whose id matches
func Lookup[T domain.Identifiable](c *Cursor[T], id string) (T, bool) {
	for i, item := range c.items {
		if item.GetID() == id {
			c.index = i
			return item, true
		}
	}
	var zero T
	return zero, false
}
