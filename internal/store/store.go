package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/pointcast/internal/metrics"
)

// ErrDocumentNotFound indicates the named document does not exist in the
// store. Readers treat malformed documents the same way: start from empty.
var ErrDocumentNotFound = errors.New("store: document not found")

// DocumentStore persists whole JSON documents by name. Writes replace the
// full document; there is no partial update. The single-writer job schedule
// is what makes read-modify-write safe here — a concurrent deployment would
// need a compare-and-swap guard.
type DocumentStore interface {
	ReadDocument(ctx context.Context, name string) ([]byte, error)
	WriteDocument(ctx context.Context, name string, content []byte) error
}

const writeAttempts = 3

// writeRetryDelay is fixed by contract; a var only so tests can shorten it.
var writeRetryDelay = 5 * time.Second

// WriteWithRetry writes a document with the fixed persistence retry policy:
// 3 attempts, 5 seconds apart, no jitter or growth. Exhausting the attempts
// surfaces the last error to the caller.
func WriteWithRetry(ctx context.Context, ds DocumentStore, name string, content []byte) error {
	operation := func() error {
		return ds.WriteDocument(ctx, name, content)
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(writeRetryDelay), writeAttempts-1),
		ctx,
	)

	notify := func(err error, _ time.Duration) {
		metrics.DocumentWriteRetriesTotal.Inc()
		log.Printf("store: write %s failed, retrying: %v", name, err)
	}

	if err := backoff.RetryNotify(operation, bo, notify); err != nil {
		metrics.DocumentWritesTotal.WithLabelValues(name, "error").Inc()
		return err
	}
	metrics.DocumentWritesTotal.WithLabelValues(name, "ok").Inc()
	return nil
}
