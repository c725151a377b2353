package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"docchat/internal/rag/interfaces"
)

// LoadError reports a file that could not be read or parsed. Ingestion treats
// it as fatal for the whole batch.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ForPath selects a loader based on the file extension. Unknown extensions
// fall back to the plain text loader.
func ForPath(path string) interfaces.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPdfLoader()
	default:
		return NewTxtLoader()
	}
}
