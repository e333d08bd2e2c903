package util

import "errors"

// Sentinel errors for package util.
// These errors can be checked with errors.Is() for specific error handling.
// Callers wrap them together with the underlying cause, e.g.
// fmt.Errorf("%w: open %s: %w", ErrFileSystem, path, err).
var (
	// Error kinds surfaced by a rewrite run
	ErrFileSystem = errors.New("filesystem error")
	ErrDecode     = errors.New("decode error")
	ErrURLParse   = errors.New("url parse error")
	ErrNetwork    = errors.New("network error")
	ErrWrite      = errors.New("write error")

	// Fetch errors
	ErrBadStatus = errors.New("unexpected http status")

	// Cache layout errors
	ErrInvalidCachePath = errors.New("invalid cache path format")

	// Traversal errors
	ErrExpectedDirectory = errors.New("expected directory but got file")
)
