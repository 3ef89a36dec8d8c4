// Package domain holds types and errors shared across the service layers.
package domain

import "errors"

var (
	// ErrVideoNotFound signals a missing video record.
	ErrVideoNotFound = errors.New("video not found")
	// ErrSpaceNotFound signals an unknown space name.
	ErrSpaceNotFound = errors.New("space not found")
	// ErrNoData signals that no video collection could be loaded from any origin.
	ErrNoData = errors.New("no video data available")
	// ErrBackendUnavailable signals that the indexed-search service cannot serve the request.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrInvalidPage signals an out-of-range pagination parameter that could not be clamped.
	ErrInvalidPage = errors.New("invalid pagination parameters")
)
