package index

import (
	"context"

	"github.com/hangarops/docsense/internal/domain"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
)

// CorpusSource lists and fetches raw documents from object storage.
type CorpusSource interface {
	List(ctx context.Context) ([]domain.DocumentRef, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// TextExtractor converts raw document bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Splitter cuts extracted text into overlapping chunks.
type Splitter interface {
	Split(text string) []string
}

// ChunkIndex is the in-memory vector index the manager populates.
type ChunkIndex interface {
	Insert(chunks []domain.Chunk)
	Clear()
	DocumentCount() int
}

// StatusRepo persists the vector store status singleton.
type StatusRepo interface {
	Get(ctx context.Context) (vectorstatus.Status, error)
	Update(ctx context.Context, mutate func(vectorstatus.Status) vectorstatus.Status) (vectorstatus.Status, error)
}
