package database

import "math"

// ColumnType is the portable type of a staged column
type ColumnType string

const (
	Text    ColumnType = "TEXT"
	Integer ColumnType = "INTEGER"
	Real    ColumnType = "REAL"
)

// Column describes one column of a staged table
type Column struct {
	Name string
	Type ColumnType
}

// Table is a flat, named tabular artifact ready for staging. Rows hold
// string, int, float64 or nil values aligned with Columns.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns ...Column) *Table {
	return &Table{Name: name, Columns: columns}
}

// Append adds a row. NaN floats and nil float pointers are stored as NULL.
func (t *Table) Append(values ...any) {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = normalize(v)
	}
	t.Rows = append(t.Rows, row)
}

// ColumnNames returns the names of the table's columns in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func normalize(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case *float64:
		if x == nil {
			return nil
		}
		return normalize(*x)
	}
	return v
}
