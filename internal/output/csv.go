package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
)

// ErrNotTabular is returned when a CSV writer is given a value that does not
// implement Tabular.
var ErrNotTabular = errors.New("value cannot be written as CSV")

// CSVWriter writes Tabular values as CSV rows. The header row is written
// before the first value; later values must share its columns.
type CSVWriter struct {
	w       *csv.Writer
	header  bool
	columns []string
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer, header bool) *CSVWriter {
	return &CSVWriter{
		w:      csv.NewWriter(w),
		header: header,
	}
}

// Write writes the rows of a single value.
func (w *CSVWriter) Write(data any) error {
	t, ok := data.(Tabular)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotTabular, data)
	}

	cols := t.Columns()
	switch {
	case w.columns == nil:
		w.columns = cols
		if w.header {
			if err := w.w.Write(cols); err != nil {
				return err
			}
		}
	case !slices.Equal(w.columns, cols):
		return fmt.Errorf("%w: columns %v differ from %v", ErrNotTabular, cols, w.columns)
	}

	if err := w.w.WriteAll(t.Table()); err != nil {
		return err
	}
	return w.w.Error()
}

// WriteAll writes multiple values.
func (w *CSVWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
