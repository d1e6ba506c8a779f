package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memTable records appended rows and tracks how many appends overlap.
type memTable struct {
	mu       sync.Mutex
	rows     []entity.LedgerRow
	attempts map[string]int

	inFlight atomic.Int32
	peak     atomic.Int32

	delay  time.Duration
	failOn func(row entity.LedgerRow, attempt int) error
}

func (m *memTable) Append(ctx context.Context, row entity.LedgerRow) error {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts == nil {
		m.attempts = map[string]int{}
	}
	m.attempts[row.Name]++
	if m.failOn != nil {
		if err := m.failOn(row, m.attempts[row.Name]); err != nil {
			return err
		}
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memTable) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Name
	}
	return out
}

func row(name string) entity.LedgerRow {
	return entity.LedgerRow{Name: name, Email: "N/A", Phone: "N/A"}
}

func TestWriter_FIFOAndIsolatedFailure(t *testing.T) {
	table := &memTable{
		delay: 5 * time.Millisecond,
		failOn: func(r entity.LedgerRow, _ int) error {
			if r.Name == "cv-3" {
				return errors.New("429 rate limited")
			}
			return nil
		},
	}
	w := NewWriter(table, quietLogger())
	ctx := context.Background()

	pending := make([]*Pending, 5)
	for i := range pending {
		pending[i] = w.Submit(ctx, row(fmt.Sprintf("cv-%d", i+1)))
	}

	errs := make([]error, 5)
	var wg sync.WaitGroup
	for i := range pending {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = pending[i].Wait(ctx)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if i == 2 {
			require.Error(t, err)
			assert.True(t, common.HasCode(err, common.CodeLedgerAppend))
			continue
		}
		assert.NoError(t, err, "request %d", i+1)
	}
	assert.Equal(t, []string{"cv-1", "cv-2", "cv-4", "cv-5"}, table.names())
	assert.Equal(t, int32(1), table.peak.Load())
	require.NoError(t, w.Shutdown(ctx))
}

func TestWriter_ConcurrentAppendsAreSingleFlight(t *testing.T) {
	table := &memTable{delay: time.Millisecond}
	w := NewWriter(table, quietLogger(), WithQueueSize(4))
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Append(ctx, row(fmt.Sprintf("cv-%02d", i))))
		}()
	}
	wg.Wait()

	assert.Len(t, table.names(), n)
	assert.Equal(t, int32(1), table.peak.Load())
	require.NoError(t, w.Shutdown(ctx))
}

func TestWriter_NoRetryByDefault(t *testing.T) {
	table := &memTable{failOn: func(entity.LedgerRow, int) error { return errors.New("503") }}
	w := NewWriter(table, quietLogger())

	err := w.Append(context.Background(), row("a"))
	require.Error(t, err)
	assert.Equal(t, 1, table.attempts["a"])
}

func TestWriter_RetriesWhenEnabled(t *testing.T) {
	table := &memTable{failOn: func(_ entity.LedgerRow, attempt int) error {
		if attempt < 3 {
			return errors.New("503")
		}
		return nil
	}}
	w := NewWriter(table, quietLogger(), WithRetries(3, time.Millisecond))

	require.NoError(t, w.Append(context.Background(), row("a")))
	assert.Equal(t, 3, table.attempts["a"])
	assert.Equal(t, []string{"a"}, table.names())
}

func TestWriter_ShutdownDrainsQueue(t *testing.T) {
	table := &memTable{delay: 5 * time.Millisecond}
	w := NewWriter(table, quietLogger())
	ctx := context.Background()

	var pending []*Pending
	for i := 0; i < 5; i++ {
		pending = append(pending, w.Submit(ctx, row(fmt.Sprintf("cv-%d", i))))
	}
	require.NoError(t, w.Shutdown(ctx))
	assert.Len(t, table.names(), 5)
	for _, p := range pending {
		assert.NoError(t, p.Wait(ctx))
	}

	err := w.Append(ctx, row("late"))
	assert.ErrorIs(t, err, common.ErrQueueClosed)
	assert.NoError(t, w.Shutdown(ctx), "second shutdown is a no-op")
}

func TestWriter_ShutdownWithoutSubmissions(t *testing.T) {
	w := NewWriter(&memTable{}, quietLogger())
	assert.NoError(t, w.Shutdown(context.Background()))
}

func TestWriter_CanceledRequestIsSkipped(t *testing.T) {
	block := make(chan struct{})
	table := &memTable{}
	gate := TableFunc(func(ctx context.Context, r entity.LedgerRow) error {
		if r.Name == "first" {
			<-block
		}
		return table.Append(ctx, r)
	})
	w := NewWriter(gate, quietLogger())

	first := w.Submit(context.Background(), row("first"))
	ctx, cancel := context.WithCancel(context.Background())
	second := w.Submit(ctx, row("second"))
	cancel()
	close(block)

	assert.NoError(t, first.Wait(context.Background()))
	err := second.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, table.names())
}

func TestWriter_FullQueueHonorsCallerAndShutdownDeadlines(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	table := &memTable{}
	gate := TableFunc(func(ctx context.Context, r entity.LedgerRow) error {
		if r.Name == "first" {
			close(started)
			<-block
		}
		return table.Append(ctx, r)
	})
	w := NewWriter(gate, quietLogger(), WithQueueSize(1))
	bg := context.Background()

	first := w.Submit(bg, row("first"))
	<-started
	second := w.Submit(bg, row("second")) // fills the single slot

	ctx, cancel := context.WithTimeout(bg, 20*time.Millisecond)
	defer cancel()
	third := make(chan *Pending, 1)
	go func() { third <- w.Submit(ctx, row("third")) }()

	var p *Pending
	select {
	case p = <-third:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit kept blocking after its context expired")
	}
	err := p.Wait(bg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, common.CodeLedgerAppend, common.CodeOf(err))

	sctx, scancel := context.WithTimeout(bg, 20*time.Millisecond)
	defer scancel()
	assert.ErrorIs(t, w.Shutdown(sctx), context.DeadlineExceeded)

	close(block)
	assert.NoError(t, first.Wait(bg))
	assert.NoError(t, second.Wait(bg))
	assert.Equal(t, []string{"first", "second"}, table.names())
}
