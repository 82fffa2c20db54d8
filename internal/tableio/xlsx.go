package tableio

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return hasExt(filename, ".xlsx", ".xlsm")
}

// Read loads one worksheet. The first row is the header.
func (xlsxReader) Read(path string, opt Options) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	// Raw values keep number formats like "#,##0.00" from turning numbers
	// into display text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := restoreBools(f, sheet, rows); err != nil {
		return nil, err
	}
	slog.Debug("worksheet loaded", slog.String("sheet", sheet), slog.Int("rows", len(rows)))
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return table.FromRecords(rows[0], rows[1:], opt.Parse)
}

// restoreBools maps raw boolean cells ("1"/"0") back to TRUE/FALSE.
func restoreBools(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		for j, v := range row {
			if v != "1" && v != "0" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return fmt.Errorf("read sheet %q: %w", sheet, err)
			}
			if typ != excelize.CellTypeBool {
				continue
			}
			if v == "1" {
				row[j] = "TRUE"
			} else {
				row[j] = "FALSE"
			}
		}
	}
	return nil
}

// pickSheet resolves a sheet by exact name, then case-insensitive name, then
// by 1-based index.
func pickSheet(sheets []string, name string, index int) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if name = strings.TrimSpace(name); name != "" {
		for _, s := range sheets {
			if s == name {
				return s, nil
			}
		}
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s), name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, name, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("%w: index %d, workbook has %d", ErrSheetNotFound, index, len(sheets))
	}
	return sheets[index-1], nil
}
