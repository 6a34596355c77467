package domain

// Fetcher retrieves raw resources relative to a book location.
// Implementations exist for folders, web sites and zip archives.
type Fetcher interface {
	// Location returns the base location resources are resolved against
	Location() string

	// Available reports whether the named resource can be fetched
	Available(name string) bool

	// Fetch returns the raw bytes of the named resource.
	// A missing resource yields ErrNotFound.
	Fetch(name string) ([]byte, error)
}

// Identifiable is implemented by items that can be looked up by id in a cursor.
type Identifiable interface {
	GetID() string
}
