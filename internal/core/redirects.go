package core

// redirects.go reconciles a redirect CSV with the slugs of a sitemap.
//
// Columns are found by case-insensitive substring match against the header
// row, so "Old Page URL", "old url" and "OLD" all resolve the old column.
// The destination column is optional; its cells are normalized to rooted
// paths. The redirect type is carried through untouched, defaulting to 301.

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// DefaultRedirectType is used when the type cell is empty or missing.
const DefaultRedirectType = "301"

// Header anchors matched against the redirect CSV header row.
const (
	OldColumnAnchor         = "old"
	DestinationColumnAnchor = "destination"
	TypeColumnAnchor        = "redirect"
)

// RedirectRecord maps a legacy URL to a destination slug.
type RedirectRecord struct {
	Old         string `json:"old"`
	Destination string `json:"destination"`
	Type        string `json:"type"`
}

// RedirectColumns holds the resolved header positions; -1 means absent.
type RedirectColumns struct {
	Old         int
	Destination int
	Type        int
}

// FindColumn returns the index of the leftmost header cell containing anchor
// (case-insensitive), or -1.
func FindColumn(header Row, anchor string) int {
	anchor = strings.ToLower(anchor)
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), anchor) {
			return i
		}
	}
	return -1
}

// ResolveRedirectColumns locates the three logical columns in header.
// It fails when the old or redirect type column is missing.
func ResolveRedirectColumns(header Row) (RedirectColumns, error) {
	cols := RedirectColumns{
		Old:         FindColumn(header, OldColumnAnchor),
		Destination: FindColumn(header, DestinationColumnAnchor),
		Type:        FindColumn(header, TypeColumnAnchor),
	}
	if cols.Old == -1 || cols.Type == -1 {
		return RedirectColumns{}, ErrMissingRequiredColumns
	}
	return cols, nil
}

// BuildRedirects turns parsed CSV rows into redirect records. The first row
// is the header. availableSlugs must be non-empty; its values are not used
// to validate destinations.
func BuildRedirects(rows []Row, availableSlugs []string) ([]RedirectRecord, error) {
	if len(availableSlugs) == 0 {
		return nil, ErrNoSitemapLoaded
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	cols, err := ResolveRedirectColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := lo.Map(rows[1:], func(row Row, _ int) RedirectRecord {
		typ := row.Cell(cols.Type)
		if typ == "" {
			typ = DefaultRedirectType
		}
		return RedirectRecord{
			Old:         row.Cell(cols.Old),
			Destination: EnsureLeadingSlash(row.Cell(cols.Destination)),
			Type:        typ,
		}
	})
	return records, nil
}

var schemeHostPrefix = regexp.MustCompile(`(?i)^https?://[^/]+`)

// EnsureLeadingSlash normalizes a destination into a rooted path.
//
//	""                          -> ""
//	"/about"                    -> "/about"
//	"about"                     -> "/about"
//	"https://example.com/about" -> "/about"
func EnsureLeadingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "/") {
		return value
	}
	rest := schemeHostPrefix.ReplaceAllString(value, "")
	return "/" + strings.TrimLeft(rest, "/")
}

// ApplyBulkDestination returns a copy of records with every destination set
// to the normalized value. records is returned as is when value normalizes
// to the empty string.
func ApplyBulkDestination(records []RedirectRecord, value string) []RedirectRecord {
	dest := EnsureLeadingSlash(value)
	if dest == "" {
		return records
	}
	return lo.Map(records, func(r RedirectRecord, _ int) RedirectRecord {
		r.Destination = dest
		return r
	})
}

// SetDestination returns a copy of records with the destination at index
// replaced by the normalized raw value.
func SetDestination(records []RedirectRecord, index int, raw string) ([]RedirectRecord, error) {
	if index < 0 || index >= len(records) {
		return nil, ErrIndexOutOfRange
	}
	out := make([]RedirectRecord, len(records))
	copy(out, records)
	out[index].Destination = EnsureLeadingSlash(raw)
	return out, nil
}
