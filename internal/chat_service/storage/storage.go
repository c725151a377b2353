package storage

import (
	"context"
	"io"
)

// FileStore defines the interface for uploaded file storage. Files are
// written once at upload time, localized to a filesystem path for the PDF
// parser at ingestion time, and the whole store is wiped at process startup.
type FileStore interface {
	// Save stores the file content under the given (already collision-free) name.
	Save(ctx context.Context, name string, r io.Reader, size int64) error

	// Localize returns a local filesystem path holding the named file's content.
	Localize(ctx context.Context, name string) (string, error)

	// Clear removes every stored file.
	Clear(ctx context.Context) error
}
