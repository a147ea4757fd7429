package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hangarops/docsense/internal/domain"
	"github.com/hangarops/docsense/internal/logger"
	"github.com/hangarops/docsense/internal/retry"
)

// Fixed responses for the two deterministic short-circuit branches.
const (
	NotInitializedAnswer = "The document index has not been built yet. Build the index first, then ask again."
	NoMatchAnswer        = "No relevant information was found in the indexed documents."
)

const answerSystemPrompt = `You answer questions about a document corpus. ` +
	`Use only the provided context excerpts. When the context does not contain ` +
	`the answer, say so plainly. Keep the answer short and factual.`

// Service answers questions via retrieval over the embedding index.
// Read-only and safe for arbitrary concurrency: index reads are snapshots,
// so a query sees either the pre- or post-reindex state, never a partial one.
type Service struct {
	embed  Embedder
	search SearchIndex
	status StatusReader
	llm    Completer

	topK          int
	minRelevance  float64
	answerTokens  int
	retryAttempts int
	retryDelay    time.Duration
}

// Response is one answered question with its supporting documents.
type Response struct {
	Answer    string
	Documents []domain.Citation
}

// New creates an answer engine.
func New(
	embed Embedder, search SearchIndex, status StatusReader, llm Completer,
	topK int, minRelevance float64, answerTokens, retryAttempts int,
) *Service {
	if topK < 1 {
		topK = 1
	}
	return &Service{
		embed:  embed,
		search: search,
		status: status,
		llm:    llm,

		topK:          topK,
		minRelevance:  minRelevance,
		answerTokens:  answerTokens,
		retryAttempts: retryAttempts,
		retryDelay:    retry.DefaultDelay,
	}
}

// WithRetryDelay overrides the initial backoff delay.
func (s *Service) WithRetryDelay(d time.Duration) *Service {
	s.retryDelay = d
	return s
}

// Answer retrieves relevant chunks for the question and asks the LLM for a
// grounded answer. Before the first index build it returns ErrNotInitialized
// without any retrieval or LLM work; an empty retrieval returns a fixed
// response without calling the LLM.
func (s *Service) Answer(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	st, err := s.status.Get(ctx)
	if err != nil {
		return Response{}, err
	}
	if !st.IsInitialized() {
		return Response{}, domain.ErrNotInitialized
	}

	var embResult domain.EmbeddingResult
	err = retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
		var embErr error
		embResult, embErr = s.embed.Embed(ctx, question)
		return embErr
	})
	if err != nil {
		return Response{}, fmt.Errorf("embed question: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)

	hits := s.search.Search(embResult.Embedding, s.topK)
	relevant := hits[:0:0]
	for _, h := range hits {
		if h.Score >= s.minRelevance {
			relevant = append(relevant, h)
		}
	}
	if len(relevant) == 0 {
		return Response{Answer: NoMatchAnswer}, nil
	}

	var answerText string
	err = retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
		result, compErr := s.llm.Complete(ctx, domain.CompletionRequest{
			System:    answerSystemPrompt,
			User:      contextPrompt(question, relevant),
			MaxTokens: s.answerTokens,
		})
		if compErr != nil {
			return compErr
		}
		domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)
		answerText = strings.TrimSpace(result.Content)
		return nil
	})
	if err != nil {
		return Response{}, fmt.Errorf("complete answer: %w", err)
	}

	citations := citeDocuments(relevant)
	logger.FromContext(ctx).Debug("question answered",
		zap.Int("chunks", len(relevant)),
		zap.Int("documents", len(citations)))

	return Response{Answer: answerText, Documents: citations}, nil
}

// contextPrompt renders the retrieved chunks as numbered excerpts.
func contextPrompt(question string, hits []domain.Hit) string {
	var b strings.Builder
	b.WriteString("Context excerpts:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, h.Chunk.Title, h.Chunk.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// citeDocuments collapses chunk hits to distinct documents, keeping the best
// score per document. Hits arrive ordered score desc then path asc, so the
// first occurrence of a path is its best chunk and the output order follows
// the same rule.
func citeDocuments(hits []domain.Hit) []domain.Citation {
	seen := make(map[string]bool, len(hits))
	citations := make([]domain.Citation, 0, len(hits))
	for _, h := range hits {
		if seen[h.Chunk.DocPath] {
			continue
		}
		seen[h.Chunk.DocPath] = true
		citations = append(citations, domain.Citation{
			Path:      h.Chunk.DocPath,
			Title:     h.Chunk.Title,
			Relevance: h.Score,
		})
	}
	return citations
}
