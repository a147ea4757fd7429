package answer

import (
	"context"

	"github.com/hangarops/docsense/internal/domain"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
)

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Completer runs chat completions against the LLM provider.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// SearchIndex retrieves the nearest chunks for a query vector.
type SearchIndex interface {
	Search(vector []float32, topK int) []domain.Hit
}

// StatusReader reads the vector store status singleton.
type StatusReader interface {
	Get(ctx context.Context) (vectorstatus.Status, error)
}
