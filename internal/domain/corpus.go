package domain

import "context"

// DocumentRef identifies one source document in the corpus.
type DocumentRef struct {
	// Path is the canonical storage path, unique per document.
	Path     string
	Title    string
	FileName string
}

// CorpusSource lists and fetches the raw PDF documents.
type CorpusSource interface {
	List(ctx context.Context) ([]DocumentRef, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// TextExtractor converts raw PDF bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (string, error)
}
