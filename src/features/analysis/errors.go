package analysis

import "errors"

// ErrMalformedDocument is returned when the export cannot be decoded into the expected shape.
var ErrMalformedDocument = errors.New("malformed library document")
