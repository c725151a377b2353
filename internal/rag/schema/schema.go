package schema

const (
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "file_name"
	// MetadataKeyPageLabel is the key for the page number from the source document.
	MetadataKeyPageLabel = "page_label"
	// MetadataKeyChunkNumber is the key for the chunk position within its page.
	MetadataKeyChunkNumber = "chunk_number"
	// MetadataKeyScore is the key under which the index reports similarity scores.
	MetadataKeyScore = "score"
)

// Document is the central data structure carried through the retrieval
// pipeline. Loaders produce one Document per page; the splitter turns pages
// into chunk Documents; the index stores chunk Documents with embeddings.
type Document struct {
	// ID is the unique identifier for this document or chunk.
	ID string

	// Text is the string content.
	Text string

	// Embedding is the vector representation of the text.
	Embedding []float32

	// Metadata holds provenance such as file_name, page_label and chunk_number.
	Metadata map[string]interface{}
}
