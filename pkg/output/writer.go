// Package output encodes materialized rows for downstream consumers
package output

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// RowWriter writes rows whose values follow the column order given at
// construction
type RowWriter interface {
	WriteRow(row []any) error
	Flush() error
}

// Factory builds a RowWriter for a set of columns
type Factory func(w io.Writer, columns []string) RowWriter

// Registry maps format names to writer factories. Thread-safe for concurrent access.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry holding the built-in json and msgpack formats
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("json", NewJSONLinesWriter)
	r.Register("msgpack", NewMsgpackWriter)
	return r
}

// Register adds or replaces a format
func (r *Registry) Register(format string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[format] = f
}

// Writer creates a writer for format
func (r *Registry) Writer(format string, w io.Writer, columns []string) (RowWriter, error) {
	r.mu.RLock()
	f, ok := r.factories[format]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (have %v)", format, r.Formats())
	}
	return f(w, columns), nil
}

// Formats returns the registered format names, sorted
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSONLinesWriter writes one JSON object per row, keys in column order
type JSONLinesWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewJSONLinesWriter creates a JSON lines writer
func NewJSONLinesWriter(w io.Writer, columns []string) RowWriter {
	return &JSONLinesWriter{w: bufio.NewWriter(w), columns: columns}
}

// WriteRow writes one row
func (j *JSONLinesWriter) WriteRow(row []any) error {
	if len(row) != len(j.columns) {
		return fmt.Errorf("row has %d values for %d columns", len(row), len(j.columns))
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range j.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return fmt.Errorf("failed to encode column %q: %w", col, err)
		}
		val, err := json.Marshal(row[i])
		if err != nil {
			return fmt.Errorf("failed to encode column %q: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}\n")

	_, err := j.w.Write(buf.Bytes())
	return err
}

// Flush flushes buffered output
func (j *JSONLinesWriter) Flush() error {
	return j.w.Flush()
}

// MsgpackWriter writes each row as a msgpack array
type MsgpackWriter struct {
	w   *bufio.Writer
	enc *msgpack.Encoder
}

// NewMsgpackWriter creates a msgpack writer. Column names are not written.
func NewMsgpackWriter(w io.Writer, _ []string) RowWriter {
	bw := bufio.NewWriter(w)
	return &MsgpackWriter{w: bw, enc: msgpack.NewEncoder(bw)}
}

// WriteRow writes one row
func (m *MsgpackWriter) WriteRow(row []any) error {
	if err := m.enc.Encode(row); err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	return nil
}

// Flush flushes buffered output
func (m *MsgpackWriter) Flush() error {
	return m.w.Flush()
}
