// Package repository persists principals and artist profiles in MySQL.
// The sentinel errors below let handlers and the auth service map
// storage failures onto the API error taxonomy without inspecting
// driver errors themselves.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update violates the
// unique email constraint. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrHandleExists is returned when the unique handle constraint is
// violated. Signup retries with a fresh handle suffix.
var ErrHandleExists = errors.New("handle already exists")
