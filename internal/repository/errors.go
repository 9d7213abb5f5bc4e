package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist or has expired
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an optimistic concurrency check fails
	ErrConflict = errors.New("conflict: entity was modified by another writer")

	// ErrAlreadyExists is returned when creating an entity whose id is taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
