package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrNoImage       = errors.New("no image uploaded")
	ErrImageTooLarge = errors.New("image too large")
)
