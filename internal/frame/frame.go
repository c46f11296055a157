// Package frame provides the table capability the planner executes against:
// ordered named columns, projection by name, copy, and join by row key.
//
// Cells are cty values so task bodies can carry strings, numbers and booleans
// without a bespoke value model. Every row carries an integer key; rows that
// are exploded from the same source row share its key, which is what Join
// matches on.
package frame

import (
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// Table is the capability boundary between the executor and concrete data.
type Table interface {
	// Columns returns the column names in order.
	Columns() []string
	// Len returns the number of rows.
	Len() int
	// Keys returns the row keys in row order.
	Keys() []int64
	// Column returns the values of one column.
	Column(name string) ([]cty.Value, bool)
	// Copy returns an independent copy of the table.
	Copy() Table
	// Project returns a table holding only the named columns, in the given
	// order, plus the names that were not present.
	Project(names []string) (Table, []string)
	// Join left-joins right onto the table by row key. Right rows are
	// deduplicated by key (first wins) and right columns already present on
	// the left are skipped.
	Join(right Table) Table
}

// Column is one named column used to build a Frame.
type Column struct {
	Name   string
	Values []cty.Value
}

// Frame is the in-memory Table implementation.
type Frame struct {
	keys  []int64
	names []string
	cols  map[string][]cty.Value
}

var _ Table = (*Frame)(nil)

// New builds a frame. A nil keys slice numbers rows from zero. All columns must
// have the same length as keys, and names must be unique.
func New(keys []int64, columns ...Column) (*Frame, error) {
	if keys == nil {
		n := 0
		if len(columns) > 0 {
			n = len(columns[0].Values)
		}
		keys = Sequence(n)
	}
	rows := len(keys)

	f := &Frame{
		keys:  slices.Clone(keys),
		names: make([]string, 0, len(columns)),
		cols:  make(map[string][]cty.Value, len(columns)),
	}
	for _, c := range columns {
		if _, exists := f.cols[c.Name]; exists {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), rows)
		}
		f.names = append(f.names, c.Name)
		f.cols[c.Name] = slices.Clone(c.Values)
	}
	return f, nil
}

// MustNew is like New but panics on error. It is meant for tests and for task
// bodies building frames whose shape is known to be valid.
func MustNew(keys []int64, columns ...Column) *Frame {
	f, err := New(keys, columns...)
	if err != nil {
		panic(err)
	}
	return f
}

// Empty returns a frame with no rows and no columns.
func Empty() *Frame {
	return &Frame{cols: map[string][]cty.Value{}}
}

// Sequence returns the keys 0..n-1.
func Sequence(n int) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = int64(i)
	}
	return keys
}

// Strings builds a column of string values.
func Strings(name string, values ...string) Column {
	vals := make([]cty.Value, len(values))
	for i, v := range values {
		vals[i] = cty.StringVal(v)
	}
	return Column{Name: name, Values: vals}
}

func (f *Frame) Columns() []string { return slices.Clone(f.names) }

func (f *Frame) Len() int { return len(f.keys) }

func (f *Frame) Keys() []int64 { return slices.Clone(f.keys) }

func (f *Frame) Column(name string) ([]cty.Value, bool) {
	vals, ok := f.cols[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(vals), true
}

func (f *Frame) Copy() Table {
	out := &Frame{
		keys:  slices.Clone(f.keys),
		names: slices.Clone(f.names),
		cols:  make(map[string][]cty.Value, len(f.cols)),
	}
	for name, vals := range f.cols {
		out.cols[name] = slices.Clone(vals)
	}
	return out
}

func (f *Frame) Project(names []string) (Table, []string) {
	out := &Frame{
		keys: slices.Clone(f.keys),
		cols: make(map[string][]cty.Value, len(names)),
	}
	var missing []string
	for _, name := range names {
		vals, ok := f.cols[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if _, dup := out.cols[name]; dup {
			continue
		}
		out.names = append(out.names, name)
		out.cols[name] = slices.Clone(vals)
	}
	return out, missing
}

func (f *Frame) Join(right Table) Table {
	out := f.Copy().(*Frame)

	rightKeys := right.Keys()
	firstRow := make(map[int64]int, len(rightKeys))
	for i, k := range rightKeys {
		if _, seen := firstRow[k]; !seen {
			firstRow[k] = i
		}
	}

	for _, name := range right.Columns() {
		if _, exists := out.cols[name]; exists {
			continue
		}
		src, _ := right.Column(name)
		vals := make([]cty.Value, len(out.keys))
		for i, k := range out.keys {
			row, ok := firstRow[k]
			if !ok {
				vals[i] = cty.NullVal(cty.DynamicPseudoType)
				continue
			}
			vals[i] = src[row]
		}
		out.names = append(out.names, name)
		out.cols[name] = vals
	}
	return out
}
