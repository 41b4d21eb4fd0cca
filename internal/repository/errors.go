package repository

import "errors"

var (
	// ErrNotConfigured means a required credential or agent identifier is
	// absent. It aborts a whole run before any source is processed.
	ErrNotConfigured = errors.New("required configuration is missing")

	// ErrJobFailed means the remote job runner reported a failed execution.
	ErrJobFailed = errors.New("job runner reported execution failure")

	// ErrJobTimeout means the remote job did not finish within the allowed time.
	ErrJobTimeout = errors.New("job runner execution timed out")

	// ErrExtractionFailed means every extraction attempt hit a transport or
	// API failure, so the post was never evaluated at all.
	ErrExtractionFailed = errors.New("extraction failed on all attempts")

	// ErrOwnerUnresolved means a post references neither a profile nor a
	// search that resolves to a user.
	ErrOwnerUnresolved = errors.New("post has no resolvable owner")

	// ErrRecentlyCrawled means the source was crawled within the global
	// minimum recrawl interval and the attempt was skipped.
	ErrRecentlyCrawled = errors.New("source was crawled too recently")
)
