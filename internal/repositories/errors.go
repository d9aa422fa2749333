package repositories

import "errors"

var (
	// ErrNotFound is returned when the addressed document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrItemNotFound is returned when a list item is in neither the primary nor the overflow partition
	ErrItemNotFound = errors.New("list item not found")
	// ErrNoMatch is returned when a conditional write matched no document
	ErrNoMatch = errors.New("conditional update matched no document")
	// ErrAlreadyExists is returned on unique index violations
	ErrAlreadyExists = errors.New("document already exists")
)
