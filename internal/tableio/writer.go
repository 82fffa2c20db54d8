package tableio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
)

// WriteOptions configures export.
type WriteOptions struct {
	// BOM prefixes CSV output with a UTF-8 byte order mark for Excel.
	BOM bool
	// Delimiter for CSV. If 0, ',' is used, or '\t' for .tsv paths.
	Delimiter rune
	// SheetName for XLSX output. If empty, "Sheet1".
	SheetName string
}

// WriteFile exports t to path, choosing the format from the extension. The
// file is replaced atomically.
func WriteFile(t *table.Table, path string, opt WriteOptions) error {
	if t == nil {
		return fmt.Errorf("export: no table")
	}
	var buf bytes.Buffer
	switch {
	case hasExt(path, ".csv", ".tsv", ".txt"):
		if opt.Delimiter == 0 && hasExt(path, ".tsv") {
			opt.Delimiter = '\t'
		}
		if err := WriteCSV(&buf, t, opt); err != nil {
			return err
		}
	case hasExt(path, ".xlsx"):
		if err := writeXLSX(&buf, t, opt); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return err
	}
	slog.Info("table exported",
		slog.String("path", path),
		slog.Int("rows", t.NumRows()),
		slog.Int("cols", t.NumCols()))
	return nil
}

// WriteCSV writes the header and every row; nulls become empty cells.
func WriteCSV(w io.Writer, t *table.Table, opt WriteOptions) error {
	if opt.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range t.Records() {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, t *table.Table, opt WriteOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opt.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	if first := f.GetSheetName(0); first != sheet {
		if err := f.SetSheetName(first, sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	header := make([]any, t.NumCols())
	for j, n := range t.Names() {
		header[j] = n
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]any, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, v := range t.Row(i) {
			row[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v table.Value) any {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.Float()
		return f
	case table.KindBool:
		b, _ := v.Boolean()
		return b
	case table.KindText:
		return v.String()
	default:
		return nil
	}
}
