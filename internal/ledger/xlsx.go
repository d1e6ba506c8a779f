package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

const defaultXLSXSheet = "Candidates"

// XLSXTable appends rows to a local workbook, creating it with a header row when missing.
// Useful for development and for runs without Google credentials.
type XLSXTable struct {
	path   string
	sheet  string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewXLSXTable(path, sheet string, logger *slog.Logger) *XLSXTable {
	if sheet == "" {
		sheet = defaultXLSXSheet
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXTable{path: path, sheet: sheet, logger: logger}
}

func (t *XLSXTable) Append(_ context.Context, row entity.LedgerRow) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			t.logger.Warn("ledger.xlsx.close_error", "path", t.path, "error", cerr)
		}
	}()

	rows, err := f.GetRows(t.sheet)
	if err != nil {
		return fmt.Errorf("xlsx read rows: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	values := row.Values()
	if err := f.SetSheetRow(t.sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx write row: %w", err)
	}
	if err := f.SaveAs(t.path); err != nil {
		return fmt.Errorf("xlsx save: %w", err)
	}
	return nil
}

func (t *XLSXTable) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(t.path)
	switch {
	case err == nil:
		if idx, _ := f.GetSheetIndex(t.sheet); idx == -1 {
			if _, err := f.NewSheet(t.sheet); err != nil {
				return nil, err
			}
			if err := t.writeHeader(f); err != nil {
				return nil, err
			}
		}
		return f, nil
	case errors.Is(err, fs.ErrNotExist):
		if dir := filepath.Dir(t.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("xlsx mkdir: %w", err)
			}
		}
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
			return nil, err
		}
		if err := t.writeHeader(f); err != nil {
			return nil, err
		}
		// Widen a few columns
		_ = f.SetColWidth(t.sheet, "A", "A", 28) // name
		_ = f.SetColWidth(t.sheet, "B", "B", 32) // email
		_ = f.SetColWidth(t.sheet, "C", "C", 18) // phone
		_ = f.SetColWidth(t.sheet, "D", "D", 60) // companies
		t.logger.Info("ledger.xlsx.created", "path", t.path, "sheet", t.sheet)
		return f, nil
	default:
		return nil, fmt.Errorf("xlsx open: %w", err)
	}
}

func (t *XLSXTable) writeHeader(f *excelize.File) error {
	for i, h := range constants.LedgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(t.sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns every data row below the header. Empty cells come back as "".
func (t *XLSXTable) Rows() ([]entity.LedgerRow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := excelize.OpenFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("xlsx open: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(t.sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx read rows: %w", err)
	}
	out := make([]entity.LedgerRow, 0, len(rows))
	for i, r := range rows {
		if i == 0 {
			continue
		}
		cell := func(j int) string {
			if j < len(r) {
				return r[j]
			}
			return ""
		}
		out = append(out, entity.LedgerRow{Name: cell(0), Email: cell(1), Phone: cell(2), Companies: cell(3)})
	}
	return out, nil
}
