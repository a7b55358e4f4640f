// Package common defines shared sentinel errors and small helpers used across
// the client and server layers of LabKeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// ErrValidation marks user input the domain refuses: empty titles,
	// unknown templates, removal of locked blocks.
	ErrValidation = errors.New("validation error")

	// ErrUnavailable is returned when the sync remote cannot be reached.
	ErrUnavailable = errors.New("remote unavailable")

	// ErrStorageUnavailable is returned by a blob backend that cannot accept
	// writes at the moment. Callers fall back to another backend.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
