package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"math-log-server/models"
)

// ErrLoggerClosed is returned by LogRequest once Close has been called.
var ErrLoggerClosed = errors.New("operation logger is closed")

// LogStore is the persistence side of the operation logger.
type LogStore interface {
	InsertLog(ctx context.Context, operation, inputData, result string, timestamp time.Time) (int64, error)
	ListLogs(ctx context.Context, operation string) ([]models.OperationLog, error)
}

// OperationLogger persists every computed result, then fans it out to the
// stream. The store write is required; the publish is best effort.
type OperationLogger struct {
	store          LogStore
	publisher      Publisher
	publishTimeout time.Duration
	now            func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewOperationLogger(store LogStore, publisher Publisher, publishTimeout time.Duration) *OperationLogger {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &OperationLogger{
		store:          store,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		now:            time.Now,
	}
}

// LogRequest stores the record and, once it is committed, launches the
// publish in a detached goroutine. Only store errors are returned.
func (l *OperationLogger) LogRequest(ctx context.Context, operation, inputData, result string) (*models.OperationLog, error) {
	if !l.acquire() {
		return nil, fmt.Errorf("log %s request: %w", operation, ErrLoggerClosed)
	}
	defer l.wg.Done()

	ts := l.now()
	id, err := l.store.InsertLog(ctx, operation, inputData, result, ts)
	if err != nil {
		return nil, fmt.Errorf("log %s request: %w", operation, err)
	}

	l.publishAsync(ctx, models.StreamEvent{
		Operation: operation,
		Input:     inputData,
		Result:    result,
	})

	return &models.OperationLog{
		ID:        id,
		Operation: operation,
		InputData: inputData,
		Result:    result,
		Timestamp: ts.Format(TimestampLayout),
	}, nil
}

// ListLogs reads back the stored records, newest first.
func (l *OperationLogger) ListLogs(ctx context.Context, operation string) ([]models.OperationLog, error) {
	return l.store.ListLogs(ctx, operation)
}

// Wait blocks until every in-flight insert and publish has finished.
func (l *OperationLogger) Wait() {
	l.wg.Wait()
}

// Close rejects new requests, then waits for in-flight work. The store can
// be closed safely once it returns.
func (l *OperationLogger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.wg.Wait()
}

// acquire registers one unit of work unless the logger is closed.
func (l *OperationLogger) acquire() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	l.wg.Add(1)
	return true
}

func (l *OperationLogger) publishAsync(parent context.Context, event models.StreamEvent) {
	// The request may finish (and cancel its context) before the publish does.
	ctx := context.WithoutCancel(parent)

	// the caller still holds its own unit, so the counter is above zero here
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("stream publish panicked",
					"operation", event.Operation,
					"panic", r,
				)
			}
		}()

		if l.publishTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, l.publishTimeout)
			defer cancel()
		}

		if err := l.publisher.Publish(ctx, event); err != nil {
			slog.Warn("failed to push to stream",
				"operation", event.Operation,
				"error", err,
			)
		}
	}()
}
