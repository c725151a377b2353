package loaders

import (
	"context"
	"fmt"
	"path/filepath"

	"docchat/internal/rag/interfaces"
	"docchat/internal/rag/schema"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// PdfLoader implements the Loader interface for reading PDF files.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load reads a PDF file and returns one Document per page, in page order.
// Any read or parse failure is reported as a *LoadError.
func (l *PdfLoader) Load(ctx context.Context, path string) (docs []*schema.Document, err error) {
	// The underlying parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = &LoadError{Path: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}

		docs = append(docs, &schema.Document{
			ID:   uuid.New().String(),
			Text: text,
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName:  filepath.Base(path),
				schema.MetadataKeyPageLabel: fmt.Sprintf("%d", i),
			},
		})
	}

	return docs, nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
