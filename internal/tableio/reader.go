// Package tableio loads tables from CSV/TSV and XLSX files and exports them
// back out.
package tableio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

var (
	// ErrUnsupported indicates a file extension no reader or writer handles.
	ErrUnsupported = errors.New("unsupported file format")
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("file has no header row")
	// ErrSheetNotFound is returned when the requested worksheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Options controls how files are read.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the header line.
	Delimiter rune
	// Parse controls number and NA handling.
	Parse table.ParseOptions
	// SheetName selects an XLSX worksheet by name; it wins over SheetIndex.
	SheetName string
	// SheetIndex selects an XLSX worksheet, 1-based. If 0, the first sheet is used.
	SheetIndex int
}

// DefaultOptions reads with delimiter sniffing and default NA values.
func DefaultOptions() Options {
	return Options{Parse: table.DefaultParseOptions(), SheetIndex: 1}
}

// Reader loads one file format.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*table.Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile selects a reader based on the file extension and loads the table.
func ReadFile(path string, opt Options) (*table.Table, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			t, err := r.Read(path, opt)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Supported reports whether any registered reader handles path.
func Supported(path string) bool {
	for _, r := range registry {
		if r.CanRead(path) {
			return true
		}
	}
	return false
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}
