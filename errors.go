package formscan

import "errors"

// Sentinel errors for scan and index operations.
var (
	// ErrRange is returned when a requested byte range falls outside the
	// scanned buffer.
	ErrRange = errors.New("formscan: range out of bounds")

	// ErrNoImage is returned when an image asset index does not exist.
	ErrNoImage = errors.New("formscan: no such image")

	// ErrClosed is returned for operations on a closed Indexer.
	ErrClosed = errors.New("formscan: indexer closed")
)
