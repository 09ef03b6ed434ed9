package domain

import "errors"

var (
	// ErrNotSplittable is returned when a description has fewer than two chapters.
	ErrNotSplittable = errors.New("track description has too few timestamps to split")
	// ErrInvalidTimestamp is returned for malformed timestamps.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
