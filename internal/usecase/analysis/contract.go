package analysis

import (
	"context"

	"github.com/hangarops/docsense/internal/domain"
	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
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

// Completer runs chat completions against the LLM provider.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// RecordRepo persists analysis records in the catalog.
type RecordRepo interface {
	Upsert(ctx context.Context, rec domanalysis.Record) error
	List(ctx context.Context) ([]domanalysis.Record, error)
	Clear(ctx context.Context) (int, error)
}
