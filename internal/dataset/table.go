package dataset

import (
	"strings"
)

// Table is a raw tabular extract: a header row plus string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// New builds a table from a header and rows.
func New(header []string, rows [][]string) Table {
	return Table{Header: header, Rows: rows}
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table carries no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Column returns the index of the first header matching any alias, or -1.
// Matching ignores case, spaces and punctuation.
func (t Table) Column(aliases ...string) int {
	if len(aliases) == 0 {
		return -1
	}
	targets := make(map[string]struct{}, len(aliases))
	for _, name := range aliases {
		targets[NormalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.Header {
		if _, ok := targets[NormalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// Value returns the trimmed cell at idx, or "" when out of range.
func Value(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "(", "", ")", "")

// NormalizeColumnName lowercases a header and strips separators so that
// "Quota Amount", "quota_amount" and "QUOTA-AMOUNT" compare equal.
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(strings.TrimPrefix(name, "\ufeff")))
	return columnNameSanitizer.Replace(name)
}
