package snapshot

import "errors"

// Error classes for per-source failures. Concrete causes are wrapped around
// these sentinels so callers can classify with errors.Is while logs keep the
// detail. All of them are recoverable: the scheduler skips the source and
// moves on.
var (
	// ErrDownload covers malformed URLs, transport faults, non-2xx
	// responses and truncated bodies.
	ErrDownload = errors.New("download failed")

	// ErrImage covers unrecognized or corrupt image data, crop boxes
	// outside the image bounds, and encode failures.
	ErrImage = errors.New("image processing failed")

	// ErrFilesystem covers files that cannot be removed or written.
	ErrFilesystem = errors.New("filesystem operation failed")
)
