package core

// csv.go is a small line-oriented CSV codec.
//
// Parsing splits the text into lines first and then tokenizes each line on
// its own, so a quoted field containing a newline is split across two rows.
// Quote state never carries over a line break and an unterminated quote is
// closed at end of line. Callers that need multi-line fields must not rely
// on this codec.

import (
	"regexp"
	"strings"
	"unicode"
)

// Row is one line of delimited text split into cells.
type Row []string

// Cell returns the cell at i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// ParseCSV splits text into rows. Empty lines are dropped; a line holding
// only whitespace still produces a row with one empty cell.
func ParseCSV(text string) []Row {
	var rows []Row
	for _, line := range lineBreak.Split(text, -1) {
		if line == "" {
			continue
		}
		rows = append(rows, ParseCSVLine(line))
	}
	return rows
}

// ParseCSVLine tokenizes a single line. Cells are trimmed after tokenizing.
func ParseCSVLine(line string) Row {
	var (
		cells   Row
		current strings.Builder
		quoted  bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]

		if c == '"' {
			if quoted && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				quoted = !quoted
			}
			continue
		}

		if c == ',' && !quoted {
			cells = append(cells, current.String())
			current.Reset()
			continue
		}

		current.WriteByte(c)
	}
	cells = append(cells, current.String())

	for i, cell := range cells {
		cells[i] = trimCell(cell)
	}
	return cells
}

// trimCell strips whitespace and stray byte order marks.
func trimCell(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// StringifyCSV serializes rows. Cells containing a quote, comma, or newline
// are quoted with inner quotes doubled. Rows are joined with "\n" and no
// trailing newline is written.
func StringifyCSV(rows []Row) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCell(cell))
		}
	}
	return b.String()
}

func quoteCell(cell string) string {
	if !strings.ContainsAny(cell, "\",\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
