package domain

import "errors"

// Failure categories surfaced by the analysis pipeline. Wrap these with
// fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrIngest covers files that could not be parsed by any supported
	// encoding and delimiter combination, or parsed to an empty table.
	ErrIngest = errors.New("file could not be ingested")

	// ErrSchema covers datasets missing columns a pipeline requires even
	// after alias normalization.
	ErrSchema = errors.New("dataset does not match required schema")

	// ErrNoData covers aggregation requests against an empty or absent
	// dataset.
	ErrNoData = errors.New("no data loaded")

	// ErrNotFound covers file identifiers that resolve to nothing in the
	// upload catalog.
	ErrNotFound = errors.New("file not found")

	// ErrExternal covers failures of optional collaborators (the language
	// model endpoint). Always recoverable; callers fall back to templates.
	ErrExternal = errors.New("external service unavailable")
)
