package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/models"
)

// ErrWriterClosed is returned by Save after Close
var ErrWriterClosed = errors.New("writer closed")

// Writer queues saves and writes them from a background goroutine. Saves that
// arrive while a write is in flight coalesce: only the newest snapshot is
// written next, so the backend always ends on the latest state.
type Writer struct {
	next    *Adapter
	log     zerolog.Logger
	timeout time.Duration

	mu       sync.Mutex
	pending  *models.Snapshot
	queued   uint64 // saves accepted
	written  uint64 // saves covered by a finished write
	progress chan struct{}
	closed   bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithWriterLogger sets the logger
func WithWriterLogger(log zerolog.Logger) WriterOption {
	return func(w *Writer) { w.log = log }
}

// WithWriteTimeout bounds a single background write
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *Writer) { w.timeout = d }
}

// NewWriter starts the background writer around next
func NewWriter(next *Adapter, opts ...WriterOption) *Writer {
	w := &Writer{
		next:     next,
		log:      zerolog.Nop(),
		timeout:  5 * time.Second,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Load reads synchronously from the underlying adapter
func (w *Writer) Load(ctx context.Context) (*models.Snapshot, error) {
	return w.next.Load(ctx)
}

// Save enqueues snap and returns immediately. Write failures are logged.
func (w *Writer) Save(ctx context.Context, snap models.Snapshot) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	w.pending = &snap
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush waits until every accepted save has been written
func (w *Writer) Flush(ctx context.Context) error {
	for {
		w.mu.Lock()
		if w.written >= w.queued {
			w.mu.Unlock()
			return nil
		}
		ch := w.progress
		w.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes pending saves, stops the goroutine and closes the slot
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	flushErr := w.Flush(ctx)
	close(w.stop)

	select {
	case <-w.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	return errors.Join(flushErr, w.next.Close())
}

// Name returns the backend name
func (w *Writer) Name() string { return w.next.Name() }

func (w *Writer) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		snap, target := w.pending, w.queued
		w.pending = nil
		w.mu.Unlock()

		if snap == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.next.Save(ctx, *snap)
		cancel()
		if err != nil {
			w.log.Warn().Err(err).Msg("background save failed")
		}

		w.mu.Lock()
		w.written = target
		done := w.progress
		w.progress = make(chan struct{})
		w.mu.Unlock()
		close(done)
	}
}
