package model

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique constraint violations
	// (duplicate email, duplicate slug, already a member).
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned when a request carries no valid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a valid principal lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned for semantically invalid requests that
	// fail before any mutation (bad role string, empty slug, owner row edits).
	ErrInvalidInput = errors.New("invalid input")
)
