package splitters

import (
	"context"
	"strings"
	"unicode/utf8"

	"docchat/internal/rag/interfaces"
	"docchat/internal/rag/schema"

	"github.com/google/uuid"
)

// defaultSeparators is the hierarchy tried from coarsest to finest: paragraph,
// line, sentence, word, and finally single characters.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveSplitter implements the Splitter interface by recursively splitting
// text on a separator hierarchy so that every chunk stays within ChunkSize
// runes while using the coarsest separator that satisfies the bound.
//
// Splitting is deterministic: the same input and chunk size always produce the
// same chunk text sequence, in source order.
type RecursiveSplitter struct {
	ChunkSize  int
	separators []string
}

// NewRecursiveSplitter creates a RecursiveSplitter. A non-positive chunkSize
// defaults to 1000 runes.
func NewRecursiveSplitter(chunkSize int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &RecursiveSplitter{
		ChunkSize:  chunkSize,
		separators: defaultSeparators,
	}
}

// Split splits a list of documents into chunk documents. Each chunk carries a
// copy of its source document's metadata plus its chunk_number within that
// source.
func (s *RecursiveSplitter) Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	var chunks []*schema.Document

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		number := 0
		for _, piece := range s.split(doc.Text, s.separators) {
			text := strings.TrimSpace(piece)
			if text == "" {
				continue
			}
			number++

			chunk := &schema.Document{
				ID:       uuid.New().String(),
				Text:     text,
				Metadata: copyMetadata(doc.Metadata),
			}
			chunk.Metadata[schema.MetadataKeyChunkNumber] = number
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// split breaks text into pieces of at most ChunkSize runes. It finds the
// coarsest separator present in the text, splits on it keeping the separator
// attached, and greedily merges adjacent pieces back together while they fit.
// Pieces still over the bound recurse with the finer separators.
func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.ChunkSize {
		return []string{text}
	}

	sep := ""
	rest := []string{}
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return s.hardSplit(text)
	}

	parts := strings.SplitAfter(text, sep)

	var out []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			out = append(out, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, part := range parts {
		n := utf8.RuneCountInString(part)
		if n == 0 {
			continue
		}
		if n > s.ChunkSize {
			flush()
			out = append(out, s.split(part, rest)...)
			continue
		}
		if currentLen+n > s.ChunkSize {
			flush()
		}
		current.WriteString(part)
		currentLen += n
	}
	flush()

	return out
}

// hardSplit is the character-level last resort: fixed windows of ChunkSize runes.
func (s *RecursiveSplitter) hardSplit(text string) []string {
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+s.ChunkSize-1)/s.ChunkSize)
	for start := 0; start < len(runes); start += s.ChunkSize {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(md)+1)
	for k, v := range md {
		out[k] = v
	}
	return out
}

// compile-time check to ensure RecursiveSplitter implements the Splitter interface
var _ interfaces.Splitter = (*RecursiveSplitter)(nil)
