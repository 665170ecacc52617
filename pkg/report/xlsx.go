package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/block/qualitychecker/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXSink writes each report to <Dir>/<name>.xlsx with a General and a
// Detail sheet whose first row holds the column names.
type XLSXSink struct {
	Dir    string
	Logger *slog.Logger
}

var _ Sink = (*XLSXSink)(nil)

func NewXLSXSink(dir string, logger *slog.Logger) *XLSXSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSink{Dir: dir, Logger: logger}
}

// Path is the file a report name is persisted to.
func (s *XLSXSink) Path(name string) string {
	return filepath.Join(s.Dir, name+".xlsx")
}

func (s *XLSXSink) Persist(ctx context.Context, name string, general, detail *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(name)
	priorGeneral, priorDetail, err := ReadXLSX(path)
	if err != nil {
		return err
	}
	general = Merge(priorGeneral, general)
	detail = Merge(priorDetail, detail)
	if err := WriteXLSX(path, general, detail); err != nil {
		return err
	}
	s.Logger.Debug("report persisted",
		"path", path,
		"general_rows", general.Len(),
		"detail_rows", detail.Len(),
	)
	return nil
}

// ReadXLSX loads both sheets of an existing report. A missing file reads
// as two nil tables.
func ReadXLSX(path string) (general, detail *Table, err error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open report %s: %w", path, err)
	}
	defer utils.CloseAndLog(f)
	if general, err = readSheet(f, GeneralSheet); err != nil {
		return nil, nil, err
	}
	if detail, err = readSheet(f, DetailSheet); err != nil {
		return nil, nil, err
	}
	return general, detail, nil
}

func readSheet(f *excelize.File, sheet string) (*Table, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := NewTable(sheet, rows[0])
	for r, cells := range rows[1:] {
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i >= len(cells) || cells[i] == "" {
				continue
			}
			v, err := readCell(f, sheet, i+1, r+2, cells[i])
			if err != nil {
				return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
			}
			row[col] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// readCell keeps text cells as written and converts only numeric ones.
func readCell(f *excelize.File, sheet string, col, row int, raw string) (any, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return nil, err
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return parseCell(raw), nil
	default:
		return raw, nil
	}
}

// WriteXLSX replaces the file at path with both tables.
func WriteXLSX(path string, general, detail *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer utils.CloseAndLog(f)
	if err := f.SetSheetName(defaultSheet, GeneralSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		return err
	}
	if err := writeSheet(f, GeneralSheet, general); err != nil {
		return err
	}
	if err := writeSheet(f, DetailSheet, detail); err != nil {
		return err
	}
	tmp := strings.TrimSuffix(path, ".xlsx") + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

func writeSheet(f *excelize.File, sheet string, t *Table) error {
	if t == nil {
		return nil
	}
	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i := range t.Rows {
		vals := t.Values(i)
		for j, v := range vals {
			vals[j] = cellValue(v)
		}
		if err := setRow(f, sheet, i+2, vals); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func cellValue(v any) any {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	case time.Time:
		return v.Format(time.DateTime)
	case []any:
		return fmt.Sprint(v...)
	default:
		return v
	}
}

// parseCell restores a number written by an earlier run.
func parseCell(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		return x
	}
	return s
}
