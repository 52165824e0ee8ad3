package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// WriteFunc performs catalog writes inside a transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// ErrBatchWriterClosed is returned by Submit after Close.
var ErrBatchWriterClosed = errors.New("batch writer closed")

// BatchWriter groups writes into transactions of up to size items and
// commits them on a background goroutine in submission order. A failing
// write rolls back its whole batch; later batches still run.
type BatchWriter struct {
	db   *sql.DB
	size int

	mu     sync.Mutex
	buf    []WriteFunc
	closed bool

	commitCh chan []WriteFunc
	wg       sync.WaitGroup

	// OnError is called for each failed batch.
	OnError func(error)

	errMu   sync.Mutex
	lastErr error
	batches int
}

// NewBatchWriter starts a writer committing to conn in batches of size.
// A nil conn runs the writes with a nil transaction, which tests use.
func NewBatchWriter(conn *sql.DB, size int) *BatchWriter {
	if size <= 0 {
		size = 100
	}
	bw := &BatchWriter{
		db:       conn,
		size:     size,
		buf:      make([]WriteFunc, 0, size),
		commitCh: make(chan []WriteFunc, 2),
	}
	bw.wg.Add(1)
	go bw.committer()
	return bw
}

// Submit queues w, handing a full batch to the committer.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.size {
		bw.flushLocked()
	}
	return nil
}

// flushLocked assumes bw.mu is held. It blocks while the committer is
// behind, which throttles Submit.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.size)
	bw.commitCh <- batch
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		err := bw.executeBatch(batch)
		bw.errMu.Lock()
		bw.batches++
		if err != nil && bw.lastErr == nil {
			bw.lastErr = err
		}
		bw.errMu.Unlock()
		if err != nil && bw.OnError != nil {
			bw.OnError(err)
		}
	}
}

func (bw *BatchWriter) executeBatch(batch []WriteFunc) error {
	ctx := context.Background()
	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

// Batches returns how many batches the committer has processed.
func (bw *BatchWriter) Batches() int {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.batches
}

// Close flushes pending writes, waits for the committer and returns the
// first batch error, if any.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	bw.flushLocked()
	bw.mu.Unlock()

	close(bw.commitCh)
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}
