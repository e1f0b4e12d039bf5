package libraries

import "errors"

var (
	ErrNotFound         = errors.New("library not found")
	ErrInvalidFile      = errors.New("invalid file format")
	ErrDocumentTooLarge = errors.New("library export too large")
)
