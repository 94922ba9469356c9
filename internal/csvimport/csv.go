// Package csvimport projects staff-uploaded CSV exports onto typed records
// through a declared column schema.
//
// Lines are split on every comma. Quoted fields are not understood, so a cell
// containing a literal comma shifts that row's remaining columns. Exports from
// the client sheet and Read.ai do not quote, and the uploads rely on this.
package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmpty         = errors.New("csv has no header row")
	ErrMissingColumn = errors.New("missing required column")
)

// ColumnError names the required column that the header row lacks.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingColumn, e.Column)
}

func (e *ColumnError) Unwrap() error { return ErrMissingColumn }

// Column binds one header to a record field. A header cell equal to Header is
// preferred; otherwise the first header cell containing Header is used, unless
// Exact is set. Matching is case-sensitive.
type Column[T any] struct {
	Header   string
	Required bool
	Exact    bool
	Assign   func(rec *T, value string)
}

type Schema[T any] struct {
	Columns []Column[T]
	// Keep reports whether a projected row is a real record.
	Keep func(rec *T) bool
}

type Result[T any] struct {
	Records []T
	Skipped int
}

// Rows is the number of data rows read.
func (r Result[T]) Rows() int {
	return len(r.Records) + r.Skipped
}

// Parse projects text through schema. Blank lines are ignored; the first
// non-blank line is the header. Rows failing Keep are counted, not returned.
func Parse[T any](text string, schema Schema[T]) (Result[T], error) {
	var res Result[T]

	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return res, ErrEmpty
	}

	header := splitLine(strings.TrimPrefix(lines[0], "\ufeff"))
	index, err := resolve(header, schema.Columns)
	if err != nil {
		return res, err
	}

	for _, line := range lines[1:] {
		cells := splitLine(line)

		var rec T
		for i, col := range schema.Columns {
			pos := index[i]
			if pos < 0 || col.Assign == nil {
				continue
			}
			value := ""
			if pos < len(cells) {
				value = cells[pos]
			}
			col.Assign(&rec, value)
		}

		if schema.Keep != nil && !schema.Keep(&rec) {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// resolve maps each column to a header position, -1 when an optional column is absent.
func resolve[T any](header []string, columns []Column[T]) ([]int, error) {
	index := make([]int, len(columns))
	for i, col := range columns {
		index[i] = findHeader(header, col.Header, col.Exact)
		if index[i] < 0 && col.Required {
			return nil, &ColumnError{Column: col.Header}
		}
	}
	return index, nil
}

func findHeader(header []string, name string, exact bool) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	if exact {
		return -1
	}
	for i, h := range header {
		if strings.Contains(h, name) {
			return i
		}
	}
	return -1
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func splitLine(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}
