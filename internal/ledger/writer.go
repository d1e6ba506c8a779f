package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
	"github.com/joseph-ayodele/cv-intake/internal/metrics"
)

// Writer funnels appends from any number of goroutines into one worker, so at most one
// append is in flight against the table and rows land in submission order.
// A failed append resolves only its own Pending.
type Writer struct {
	table   Table
	logger  *slog.Logger
	metrics *metrics.Pipeline

	timeout    time.Duration
	maxRetries int
	backoff    time.Duration

	ch      chan *request
	wg      sync.WaitGroup // worker
	senders sync.WaitGroup // Submit calls between the closed check and the send
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type request struct {
	ctx     context.Context
	row     entity.LedgerRow
	pending *Pending
}

// Pending is the handle returned by Submit.
type Pending struct {
	done chan struct{}
	err  error
}

func resolved(err error) *Pending {
	p := &Pending{done: make(chan struct{}), err: err}
	close(p.done)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Wait blocks until the append finished or ctx is done. It may be called more than once.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the append has finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

type Option func(*Writer)

func WithQueueSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.ch = make(chan *request, n)
		}
	}
}

func WithAppendTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithRetries enables bounded exponential backoff for failed appends.
// The default is no retry: a failed append surfaces immediately.
func WithRetries(max int, backoff time.Duration) Option {
	return func(w *Writer) {
		if max > 0 {
			w.maxRetries = max
		}
		if backoff > 0 {
			w.backoff = backoff
		}
	}
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(w *Writer) { w.metrics = m }
}

func NewWriter(table Table, logger *slog.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		table:   table,
		logger:  logger,
		timeout: 30 * time.Second,
		backoff: 500 * time.Millisecond,
		ch:      make(chan *request, 256),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Writer) start() {
	w.once.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.logger.Info("ledger.worker.started")
			for req := range w.ch {
				w.metrics.LedgerQueued(-1)
				req.pending.resolve(w.handle(req))
			}
			w.logger.Info("ledger.worker.stopped")
		}()
	})
}

// Submit enqueues row and returns immediately unless the queue is full, in which case it
// blocks until there is room or ctx is done. Submissions after Shutdown resolve with
// ErrQueueClosed.
func (w *Writer) Submit(ctx context.Context, row entity.LedgerRow) *Pending {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("ledger.submit.rejected", "reason", "shutting down", "name", row.Name)
		return resolved(common.LedgerAppendError("ledger is shutting down", common.ErrQueueClosed))
	}
	w.start()
	w.senders.Add(1)
	w.mu.Unlock()
	defer w.senders.Done()

	req := &request{ctx: ctx, row: row, pending: &Pending{done: make(chan struct{})}}
	w.metrics.LedgerQueued(1)
	select {
	case w.ch <- req:
		return req.pending
	default:
	}

	w.logger.Warn("ledger.queue.full", "capacity", cap(w.ch), "name", row.Name)
	select {
	case w.ch <- req:
	case <-ctx.Done():
		w.metrics.LedgerQueued(-1)
		w.logger.Warn("ledger.submit.canceled", "name", row.Name, "error", ctx.Err())
		req.pending.resolve(common.LedgerAppendError("canceled while waiting for queue space", ctx.Err()))
	}
	return req.pending
}

// Append submits row and waits for its result.
func (w *Writer) Append(ctx context.Context, row entity.LedgerRow) error {
	return w.Submit(ctx, row).Wait(ctx)
}

func (w *Writer) handle(req *request) error {
	if err := req.ctx.Err(); err != nil {
		w.logger.Warn("ledger.append.skipped", "name", req.row.Name, "error", err)
		return common.LedgerAppendError("request canceled before append", err)
	}

	start := time.Now()
	var err error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			wait := w.backoff << (attempt - 1)
			w.logger.Warn("ledger.append.retry", "name", req.row.Name, "attempt", attempt, "wait_ms", wait.Milliseconds(), "error", err)
			select {
			case <-time.After(wait):
			case <-req.ctx.Done():
				return common.LedgerAppendError("append canceled during backoff", req.ctx.Err())
			}
		}
		ctx, cancel := common.WithOptionalTimeout(req.ctx, w.timeout)
		err = w.table.Append(ctx, req.row)
		cancel()
		if err == nil {
			break
		}
	}

	w.metrics.LedgerAppend(err == nil)
	if err != nil {
		w.logger.Error("ledger.append.failed",
			"name", req.row.Name,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return common.LedgerAppendError("append row", err)
	}
	w.logger.Info("ledger.append.ok",
		"name", req.row.Name,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Shutdown stops accepting rows and waits for every queued append to finish, or for ctx.
// Submitters still waiting for queue space are let through before the queue closes.
func (w *Writer) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.senders.Wait()
		close(w.ch)
		w.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		w.logger.Warn("ledger.shutdown.interrupted", "pending", len(w.ch))
		return ctx.Err()
	case <-done:
		w.logger.Info("ledger.shutdown.drained")
		return nil
	}
}
