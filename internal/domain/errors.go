package domain

import "errors"

// Sentinel errors for book operations
var (
	// ErrNotFound indicates a resource, element or position does not exist
	ErrNotFound = errors.New("not found")

	// ErrConfiguration indicates a component was constructed with invalid input
	ErrConfiguration = errors.New("invalid configuration")

	// ErrSourceUnavailable indicates the book location does not exist or is unreachable
	ErrSourceUnavailable = errors.New("book source is unavailable")

	// ErrBookLoad indicates the index document is missing or cannot be parsed
	ErrBookLoad = errors.New("book could not be loaded")

	// ErrNotMarkup indicates text that is not a well-formed markup document
	ErrNotMarkup = errors.New("not a markup document")
)
