package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a create collided with an existing id.
	ErrAlreadyExists = errors.New("record already exists")
)
