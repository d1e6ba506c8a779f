package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chunkProbe records concurrency and checks the barrier between chunks.
type chunkProbe struct {
	mu        sync.Mutex
	inFlight  int
	peak      int
	finished  int
	violation string
	chunkSize int
	fn        func(ctx context.Context, idx int) (entity.ExtractedRecord, error)
}

func (p *chunkProbe) Process(ctx context.Context, doc entity.Document) (entity.ExtractedRecord, error) {
	idx, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(doc.Filename, "cv-"), ".pdf"))

	p.mu.Lock()
	if want := (idx / p.chunkSize) * p.chunkSize; p.finished < want && p.violation == "" {
		p.violation = fmt.Sprintf("document %d started with only %d finished", idx, p.finished)
	}
	p.inFlight++
	p.peak = max(p.peak, p.inFlight)
	p.mu.Unlock()

	time.Sleep(time.Duration(12-idx) * time.Millisecond)
	rec, err := p.fn(ctx, idx)

	p.mu.Lock()
	p.inFlight--
	p.finished++
	p.mu.Unlock()
	return rec, err
}

func docs(n int) []entity.Document {
	out := make([]entity.Document, n)
	for i := range out {
		out[i] = entity.NewDocument(fmt.Sprintf("cv-%d.pdf", i), constants.MediaTypePDF, []byte("%PDF"))
	}
	return out
}

func TestOrchestrator_TwoChunksAndIsolatedFailure(t *testing.T) {
	probe := &chunkProbe{chunkSize: 10, fn: func(ctx context.Context, idx int) (entity.ExtractedRecord, error) {
		if idx == 3 {
			return entity.ExtractedRecord{}, common.ValidationFailure("extracted record failed validation", common.FieldErrors{
				{Field: "phone", Value: "6281234567890", Message: "must match +628 followed by 8-11 digits"},
			})
		}
		return entity.ExtractedRecord{Name: fmt.Sprintf("cand-%d", idx), Email: "N/A", Phone: "N/A", Companies: []string{}}, nil
	}}
	o := NewOrchestrator(probe, quietLogger(), WithChunkSize(10))

	out := o.Process(context.Background(), docs(12))
	require.Len(t, out, 12)
	assert.Empty(t, probe.violation)
	assert.LessOrEqual(t, probe.peak, 10)
	assert.Greater(t, probe.peak, 1, "documents inside a chunk run in parallel")

	for i, oc := range out {
		assert.Equal(t, i, oc.Index)
		assert.Equal(t, fmt.Sprintf("cv-%d.pdf", i), oc.Filename)
		if i == 3 {
			assert.Equal(t, constants.OutcomeFailed, oc.Status)
			assert.Nil(t, oc.Record)
			assert.Equal(t, common.CodeValidation, oc.ErrorCode)
			assert.Equal(t, []string{"phone: must match +628 followed by 8-11 digits"}, oc.Details)
			continue
		}
		require.True(t, oc.Succeeded(), "doc %d: %s", i, oc.Error)
		assert.Equal(t, fmt.Sprintf("cand-%d", i), oc.Record.Name)
	}
}

func TestOrchestrator_PanicBecomesFailure(t *testing.T) {
	probe := &chunkProbe{chunkSize: 2, fn: func(ctx context.Context, idx int) (entity.ExtractedRecord, error) {
		if idx == 1 {
			panic("boom")
		}
		return entity.ExtractedRecord{Name: "ok"}, nil
	}}
	out := NewOrchestrator(probe, quietLogger(), WithChunkSize(2)).Process(context.Background(), docs(3))
	require.Len(t, out, 3)
	assert.True(t, out[0].Succeeded())
	assert.Equal(t, constants.OutcomeFailed, out[1].Status)
	assert.Equal(t, common.CodeInternal, out[1].ErrorCode)
	assert.True(t, out[2].Succeeded())
}

func TestOrchestrator_DocumentTimeout(t *testing.T) {
	probe := &chunkProbe{chunkSize: 10, fn: func(ctx context.Context, idx int) (entity.ExtractedRecord, error) {
		<-ctx.Done()
		return entity.ExtractedRecord{}, common.ExtractionError("model call failed", ctx.Err())
	}}
	out := NewOrchestrator(probe, quietLogger(), WithDocumentTimeout(20*time.Millisecond)).Process(context.Background(), docs(2))
	for _, oc := range out {
		assert.Equal(t, common.CodeExtraction, oc.ErrorCode)
		assert.Contains(t, oc.Error, "deadline exceeded")
	}
}

func TestOrchestrator_Empty(t *testing.T) {
	out := NewOrchestrator(&chunkProbe{chunkSize: 10}, quietLogger()).Process(context.Background(), nil)
	assert.Empty(t, out)
}
