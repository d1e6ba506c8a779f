package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

const reportSheet = "Batch"

var reportHeaders = []string{
	"File",
	"Status",
	"Error Code",
	"Error",
	"Name",
	"Email",
	"Phone",
	"Companies",
}

// Report renders batch outcomes as an XLSX workbook, one row per input document.
type Report struct {
	logger *slog.Logger
}

func NewReport(logger *slog.Logger) *Report {
	if logger == nil {
		logger = slog.Default()
	}
	return &Report{logger: logger}
}

// OutcomesXLSX returns the workbook bytes. Rows follow outcome order.
func (r *Report) OutcomesXLSX(outcomes []entity.BatchOutcome) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reportSheet, cell, h)
	}

	failed := 0
	for i, oc := range outcomes {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(reportSheet, cell, v)
		}

		write(1, oc.Filename)
		write(2, string(oc.Status))
		write(3, oc.ErrorCode)
		msg := oc.Error
		if len(oc.Details) > 0 {
			msg += " (" + strings.Join(oc.Details, "; ") + ")"
		}
		write(4, truncate(msg, 240))
		if oc.Record != nil {
			write(5, oc.Record.Name)
			write(6, oc.Record.Email)
			write(7, oc.Record.Phone)
			write(8, strings.Join(oc.Record.Companies, constants.CompaniesSeparator))
		}
		if !oc.Succeeded() {
			failed++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(reportSheet, "A", "A", 36) // file
	_ = f.SetColWidth(reportSheet, "B", "C", 22) // status, code
	_ = f.SetColWidth(reportSheet, "D", "D", 60) // error
	_ = f.SetColWidth(reportSheet, "E", "G", 28) // name, email, phone
	_ = f.SetColWidth(reportSheet, "H", "H", 60) // companies

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	r.logger.Info("export.report.ok",
		"rows", len(outcomes),
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
