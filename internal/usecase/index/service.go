package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hangarops/docsense/internal/domain"
	"github.com/hangarops/docsense/internal/domain/batch"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
	"github.com/hangarops/docsense/internal/logger"
	"github.com/hangarops/docsense/internal/metrics"
	"github.com/hangarops/docsense/internal/retry"
)

// Service builds and maintains the in-memory embedding index over the
// document corpus. Mutations (Initialize, Clear, Reindex) are serialized by
// a manager mutex; a second concurrent mutator fails fast with ErrIndexBusy.
type Service struct {
	corpus  CorpusSource
	extract TextExtractor
	embed   Embedder
	split   Splitter
	index   ChunkIndex
	status  StatusRepo

	workers       int
	retryAttempts int
	retryDelay    time.Duration
	now           func() time.Time

	mu sync.Mutex
}

// BuildReport summarizes one index build.
type BuildReport struct {
	DocumentCount int
	Skipped       int
	Results       []batch.Result
}

// New creates an index manager service.
func New(
	corpus CorpusSource, extract TextExtractor, embed Embedder,
	split Splitter, index ChunkIndex, status StatusRepo,
	workers, retryAttempts int,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		corpus:  corpus,
		extract: extract,
		embed:   embed,
		split:   split,
		index:   index,
		status:  status,

		workers:       workers,
		retryAttempts: retryAttempts,
		retryDelay:    retry.DefaultDelay,
		now:           time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithRetryDelay overrides the initial backoff delay.
func (s *Service) WithRetryDelay(d time.Duration) *Service {
	s.retryDelay = d
	return s
}

// Status returns the persisted vector store status. Read-only, never blocks
// on the mutation mutex.
func (s *Service) Status(ctx context.Context) (vectorstatus.Status, error) {
	return s.status.Get(ctx)
}

// Initialize builds the index from the corpus. When the index is already
// initialized it is a no-op returning the current status. Per-document
// failures are recorded as batch item errors and do not abort the build.
func (s *Service) Initialize(ctx context.Context) (BuildReport, error) {
	if !s.mu.TryLock() {
		return BuildReport{}, domain.ErrIndexBusy
	}
	defer s.mu.Unlock()

	current, err := s.status.Get(ctx)
	if err != nil {
		return BuildReport{}, err
	}
	if current.IsInitialized() {
		logger.FromContext(ctx).Info("index already initialized",
			zap.Int("document_count", current.DocumentCount()))
		return BuildReport{DocumentCount: current.DocumentCount()}, nil
	}

	return s.build(ctx)
}

// Clear wipes the index and marks the status uninitialized. Idempotent.
func (s *Service) Clear(ctx context.Context) error {
	if !s.mu.TryLock() {
		return domain.ErrIndexBusy
	}
	defer s.mu.Unlock()

	s.index.Clear()
	metrics.IndexedDocuments.Set(0)

	if _, err := s.status.Update(ctx, func(cur vectorstatus.Status) vectorstatus.Status {
		return cur.Cleared(s.now())
	}); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("index cleared")
	return nil
}

// Reindex clears and rebuilds the index under one lock acquisition.
func (s *Service) Reindex(ctx context.Context) (BuildReport, error) {
	if !s.mu.TryLock() {
		return BuildReport{}, domain.ErrIndexBusy
	}
	defer s.mu.Unlock()

	s.index.Clear()
	metrics.IndexedDocuments.Set(0)

	report, err := s.build(ctx)
	if err != nil {
		// The old index is already gone; the status row must not keep
		// describing it. Record whatever the failed rebuild achieved.
		statusCtx := context.WithoutCancel(ctx)
		if _, stErr := s.status.Update(statusCtx, func(cur vectorstatus.Status) vectorstatus.Status {
			return cur.Built(s.index.DocumentCount(), s.now())
		}); stErr != nil {
			logger.FromContext(ctx).Error("status write after failed reindex",
				zap.Error(stErr))
		}
		return BuildReport{}, err
	}
	return report, nil
}

// build lists the corpus and indexes each document with bounded concurrency.
// The caller must hold s.mu. The status row is always written afterwards so
// it reflects what was actually indexed, including partial builds cut short
// by cancellation.
func (s *Service) build(ctx context.Context) (BuildReport, error) {
	docs, err := s.corpus.List(ctx)
	if err != nil {
		return BuildReport{}, fmt.Errorf("list corpus: %w", err)
	}

	results := make([]batch.Result, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				results[i] = batch.NewError(doc.Path, ctxErr)
				return nil
			}
			chunks, docErr := s.indexDocument(ctx, doc)
			if docErr != nil {
				logger.FromContext(ctx).Warn("document skipped",
					zap.String("path", doc.Path), zap.Error(docErr))
				results[i] = batch.NewError(doc.Path, docErr)
				return nil
			}
			s.index.Insert(chunks)
			results[i] = batch.NewOK(doc.Path)
			return nil
		})
	}
	_ = g.Wait()

	summary := batch.Summarize(results)
	count := s.index.DocumentCount()
	metrics.IndexedDocuments.Set(float64(count))

	// Record the achieved state even when ctx was cancelled mid-build.
	statusCtx := context.WithoutCancel(ctx)
	if _, err := s.status.Update(statusCtx, func(cur vectorstatus.Status) vectorstatus.Status {
		return cur.Built(count, s.now())
	}); err != nil {
		return BuildReport{}, err
	}

	logger.FromContext(ctx).Info("index built",
		zap.Int("document_count", count),
		zap.Int("skipped", summary.Failed))

	return BuildReport{
		DocumentCount: count,
		Skipped:       summary.Failed,
		Results:       results,
	}, nil
}

// indexDocument fetches, extracts, chunks, and embeds a single document.
func (s *Service) indexDocument(ctx context.Context, doc domain.DocumentRef) ([]domain.Chunk, error) {
	var data []byte
	err := retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
		var fetchErr error
		data, fetchErr = s.corpus.Fetch(ctx, doc.Path)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	var text string
	err = retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
		var exErr error
		text, exErr = s.extract.Extract(ctx, doc.FileName, data)
		return exErr
	})
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	parts := s.split.Split(text)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no extractable text: %w", domain.ErrDocumentUnreadable)
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for seq, part := range parts {
		var embResult domain.EmbeddingResult
		err = retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
			var embErr error
			embResult, embErr = s.embed.Embed(ctx, part)
			return embErr
		})
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", seq, err)
		}
		domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)
		chunks = append(chunks, domain.Chunk{
			DocPath: doc.Path,
			Title:   doc.Title,
			Seq:     seq,
			Text:    part,
			Vector:  embResult.Embedding,
		})
	}
	return chunks, nil
}
