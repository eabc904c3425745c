package contactrepo

import "errors"

var (
	// ErrNotFound indicates the requested contact does not exist.
	ErrNotFound = errors.New("contact not found")

	// ErrInvalidInput indicates a store rejected a payload (e.g. a null name in a patch).
	ErrInvalidInput = errors.New("invalid contact input")
)
