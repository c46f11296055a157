package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ReadCSV reads a table whose first record is the header. Every cell is a
// string value and rows are keyed by their position.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return Empty(), nil
	}

	header := records[0]
	rows := records[1:]
	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Values: make([]cty.Value, len(rows))}
		for j, rec := range rows {
			columns[i].Values[j] = cty.StringVal(rec[i])
		}
	}
	return New(nil, columns...)
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frame, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// WriteCSV writes t with a header record. Null and unknown cells are written
// as empty fields.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	names := t.Columns()
	if err := writer.Write(names); err != nil {
		return err
	}

	cols := make([][]cty.Value, len(names))
	for i, name := range names {
		cols[i], _ = t.Column(name)
	}
	record := make([]string, len(names))
	for row := 0; row < t.Len(); row++ {
		for i := range names {
			record[i] = FormatValue(cols[i][row])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatValue renders a primitive cell as text.
func FormatValue(v cty.Value) string {
	if v.IsNull() || !v.IsKnown() {
		return ""
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return v.GoString()
	}
	return s.AsString()
}

// AsString converts a cell to a Go string, reporting false for null,
// unknown, or non-primitive cells.
func AsString(v cty.Value) (string, bool) {
	if v.IsNull() || !v.IsKnown() {
		return "", false
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", false
	}
	return s.AsString(), true
}
