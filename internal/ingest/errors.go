package ingest

import "errors"

// ErrFileNotFound maps to the FILE_NOT_FOUND boundary error (spec.md §6).
var ErrFileNotFound = errors.New("file not found")

// ErrParse maps to the PARSE_ERROR boundary error (spec.md §6), used for
// ingest-level failures (header read, malformed CSV record) distinct from
// the description-parsing tolerance in the normalizer.
var ErrParse = errors.New("parse error")
