package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/RedirectMap/internal/export"
	"github.com/samber/lo"
)

// Default download names for the two exports, without extension.
const (
	SlugExportName     = "sitemap-slugs"
	RedirectExportName = "formatted-redirects"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx" in any case; "" means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FileName returns base with the format's extension.
func (f Format) FileName(base string) string {
	return base + "." + string(f)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return export.ContentType
	}
	return "text/csv; charset=utf-8"
}

var (
	SlugHeader     = Row{"Slug"}
	RedirectHeader = Row{"Old Page URL", "Destination Page URL", "Redirect Type"}
)

// SlugTable is the slug export as rows, header first.
func SlugTable(slugs []string) []Row {
	rows := make([]Row, 0, len(slugs)+1)
	rows = append(rows, SlugHeader)
	return append(rows, lo.Map(slugs, func(s string, _ int) Row { return Row{s} })...)
}

// RedirectTable is the redirect export as rows, header first. Destinations
// are normalized again and an empty type becomes DefaultRedirectType.
func RedirectTable(records []RedirectRecord) []Row {
	rows := make([]Row, 0, len(records)+1)
	rows = append(rows, RedirectHeader)
	for _, r := range records {
		typ := r.Type
		if typ == "" {
			typ = DefaultRedirectType
		}
		rows = append(rows, Row{r.Old, EnsureLeadingSlash(r.Destination), typ})
	}
	return rows
}

// ExportSlugs renders slugs as CSV text.
func ExportSlugs(slugs []string) string {
	return StringifyCSV(SlugTable(slugs))
}

// ExportRedirects renders records as CSV text.
func ExportRedirects(records []RedirectRecord) string {
	return StringifyCSV(RedirectTable(records))
}

// Strings converts rows for packages that work on plain string grids.
func Strings(rows []Row) [][]string {
	return lo.Map(rows, func(r Row, _ int) []string { return []string(r) })
}

// WriteTable writes rows to w in the given format. sheet names the XLSX
// worksheet and is ignored for CSV.
func WriteTable(w io.Writer, rows []Row, format Format, sheet string) error {
	switch format {
	case FormatXLSX:
		return export.WriteXLSX(w, sheet, Strings(rows))
	case FormatCSV, "":
		_, err := io.WriteString(w, StringifyCSV(rows))
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
