// Package table reads and writes the flat CSV files exchanged between stages.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// Encoding selects how input files are decoded. Output is always UTF-8.
type Encoding string

const (
	UTF8  Encoding = "utf-8"
	CP949 Encoding = "cp949"
)

// ParseEncoding accepts the usual spellings of the supported encodings.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return UTF8, nil
	case "cp949", "euc-kr", "euckr", "ms949", "uhc":
		return CP949, nil
	}
	return "", fmt.Errorf("unknown encoding %q: %w", s, internalerr.ErrInvalidConfig)
}

const bom = "\ufeff"

// Frame is a CSV file held in memory: a header and string rows.
type Frame struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewFrame creates an empty frame with the given header.
func NewFrame(header ...string) *Frame {
	f := &Frame{Header: header}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Header))
	for i, h := range f.Header {
		if _, dup := f.index[h]; !dup {
			f.index[h] = i
		}
	}
}

// Append adds a row. It must have one field per header column.
func (f *Frame) Append(fields ...string) {
	f.Rows = append(f.Rows, fields)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Require checks that every named column exists.
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("columns %s (have %s): %w",
			strings.Join(missing, ", "), strings.Join(f.Header, ", "), internalerr.ErrMissingColumn)
	}
	return nil
}

// Column returns every value of a column.
func (f *Frame) Column(name string) ([]string, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, internalerr.ErrMissingColumn)
	}
	out := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Get returns the value of column name in row r.
func (f *Frame) Get(r int, name string) string {
	return f.Rows[r][f.index[name]]
}

// isIndexHeader matches the unnamed column pandas writes for a row index.
func isIndexHeader(h string) bool {
	return h == "" || strings.HasPrefix(h, "Unnamed: ")
}

// Read parses CSV from r. A leading unnamed index column is dropped. Rows
// must have exactly as many fields as the header.
func Read(r io.Reader, enc Encoding) (*Frame, error) {
	if enc == CP949 {
		r = transform.NewReader(r, korean.EUCKR.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file: %w", internalerr.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	skip := 0
	if len(header) > 1 && isIndexHeader(header[0]) {
		skip = 1
	}

	f := NewFrame(header[skip:]...)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, internalerr.ErrMalformedRow)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("line %d: %d fields, want %d: %w",
				line, len(record), len(header), internalerr.ErrMalformedRow)
		}
		f.Append(record[skip:]...)
	}
	return f, nil
}

// ReadFile reads a CSV file and checks the required columns.
func ReadFile(path string, enc Encoding, required ...string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	f, err := Read(file, enc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Require(required...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Write encodes the frame as UTF-8 CSV. When withIndex is set a leading
// unnamed column holds the 0-based row number.
func (f *Frame) Write(w io.Writer, withIndex bool) error {
	cw := csv.NewWriter(w)

	header := f.Header
	if withIndex {
		header = append([]string{""}, header...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range f.Rows {
		if withIndex {
			row = append([]string{fmt.Sprint(i)}, row...)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the frame to path, creating parent directories.
func (f *Frame) WriteFile(path string, withIndex bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Write(file, withIndex); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
