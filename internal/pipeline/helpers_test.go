package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedModel answers requests with fn and records every request it saw.
type scriptedModel struct {
	mu   sync.Mutex
	reqs []llm.Request
	fn   func(ctx context.Context, req llm.Request) (string, error)
}

func (m *scriptedModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	return m.fn(ctx, req)
}

func (m *scriptedModel) requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.reqs...)
}

// pagesOf builds n fake page images whose data is the page index byte.
func pagesOf(n int) []entity.PageImage {
	out := make([]entity.PageImage, n)
	for i := range out {
		out[i] = entity.PageImage{Index: i, Data: []byte{byte(i)}, MediaType: "image/jpeg"}
	}
	return out
}

type fakeRaster struct {
	pages []entity.PageImage
	err   error
	modes []entity.Mode
}

func (f *fakeRaster) Rasterize(ctx context.Context, doc entity.Document, mode entity.Mode) ([]entity.PageImage, error) {
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	if mode == entity.ModeFast && len(f.pages) > 1 {
		return f.pages[:1], nil
	}
	return f.pages, nil
}

type recordingLedger struct {
	mu   sync.Mutex
	rows []entity.LedgerRow
	err  error
}

func (l *recordingLedger) Append(ctx context.Context, row entity.LedgerRow) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, row)
	return nil
}
