package ocr

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageCounter parses a PDF and reports how many pages it has.
type PageCounter interface {
	CountPages(pdf []byte) (int, error)
}

type pdfcpuCounter struct{}

// CountPages reads the PDF with relaxed validation, so slightly malformed
// exports from word processors are still accepted.
func (pdfcpuCounter) CountPages(pdf []byte) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(pdf), cfg)
}
