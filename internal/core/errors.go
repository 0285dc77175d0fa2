package core

import "errors"

// Error kinds returned by the core transforms. Callers distinguish them with
// errors.Is; the message text doubles as the MapError pattern.
var (
	// ErrMalformedMarkup is returned when a sitemap cannot be parsed as XML.
	ErrMalformedMarkup = errors.New("malformed sitemap markup")

	// ErrNoSitemapLoaded is returned when redirects are built before any slugs exist.
	ErrNoSitemapLoaded = errors.New("no sitemap loaded")

	// ErrEmptyTable is returned when a redirect CSV has no rows at all.
	ErrEmptyTable = errors.New("empty table")

	// ErrMissingRequiredColumns is returned when the header lacks the old URL or redirect type column.
	ErrMissingRequiredColumns = errors.New("missing required columns: CSV must include Old Page URL and Redirect Type columns")

	// ErrIndexOutOfRange is returned by SetDestination for an index outside the record list.
	ErrIndexOutOfRange = errors.New("redirect index out of range")
)

// Errors returned by Service.
var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNothingToExport   = errors.New("nothing to export")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnknownFormat     = errors.New("unsupported export format")
)
