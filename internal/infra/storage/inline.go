// Package storage provides the two places uploaded entry files can live:
// embedded in the entry record itself, or in an S3-compatible bucket.
// The backend is chosen once at startup.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"contest-api/internal/domain/entity"
	"contest-api/internal/observability/metrics"
)

// InlineStore keeps file bytes inside the entry. Saving is a no-op beyond
// checking the bytes are there; the repository persists them with the entry.
type InlineStore struct{}

// NewInlineStore returns the inline backend.
func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

// Name identifies the backend in health checks and metrics.
func (*InlineStore) Name() string { return "inline" }

// Save leaves the bytes in file.Data.
func (s *InlineStore) Save(_ context.Context, _ string, file *entity.FileRef) error {
	if file == nil || len(file.Data) == 0 {
		return fmt.Errorf("inline store: %w", entity.ErrNotFound)
	}
	file.StorageKey = ""
	return nil
}

// Open returns the embedded bytes, or entity.ErrNotFound when there are none.
func (s *InlineStore) Open(_ context.Context, file *entity.FileRef) (io.ReadCloser, error) {
	start := time.Now()
	defer func() { metrics.RecordFileStore(s.Name(), "get", time.Since(start)) }()

	if !file.Inline() {
		return nil, entity.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(file.Data)), nil
}

// Remove has nothing to do; the bytes go away with the entry.
func (*InlineStore) Remove(context.Context, *entity.FileRef) error { return nil }

// Check always succeeds; there is nothing external to reach.
func (*InlineStore) Check(context.Context) error { return nil }
