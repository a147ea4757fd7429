package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hangarops/docsense/internal/domain"
	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
	"github.com/hangarops/docsense/internal/domain/batch"
	"github.com/hangarops/docsense/internal/logger"
	"github.com/hangarops/docsense/internal/metrics"
	"github.com/hangarops/docsense/internal/retry"
)

// Service runs the per-document risk analysis pipeline over the corpus.
// Each document is fault-isolated: a failure is persisted as a failed record
// and never aborts the batch. Documents have distinct paths, so concurrent
// workers never write the same row.
type Service struct {
	corpus   CorpusSource
	extract  TextExtractor
	complete Completer
	records  RecordRepo

	workers        int
	retryAttempts  int
	retryDelay     time.Duration
	summaryTokens  int
	analysisTokens int
	now            func() time.Time
}

// RunReport summarizes one analysis batch.
type RunReport struct {
	AnalyzedCount int
	FailedCount   int
	Results       []batch.Result
}

// New creates an analysis pipeline service.
func New(
	corpus CorpusSource, extract TextExtractor, complete Completer, records RecordRepo,
	workers, retryAttempts, summaryTokens, analysisTokens int,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		corpus:   corpus,
		extract:  extract,
		complete: complete,
		records:  records,

		workers:        workers,
		retryAttempts:  retryAttempts,
		retryDelay:     retry.DefaultDelay,
		summaryTokens:  summaryTokens,
		analysisTokens: analysisTokens,
		now:            time.Now,
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

// Run analyzes every document in the corpus with bounded concurrency.
// Completed documents overwrite any previous record for the same path.
func (s *Service) Run(ctx context.Context) (RunReport, error) {
	docs, err := s.corpus.List(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("list corpus: %w", err)
	}

	results := make([]batch.Result, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := s.analyzeDocument(ctx, doc); err != nil {
				logger.FromContext(ctx).Warn("analysis failed",
					zap.String("path", doc.Path), zap.Error(err))
				metrics.AnalysisRunsTotal.WithLabelValues("failed").Inc()
				results[i] = batch.NewError(doc.Path, err)
				return nil
			}
			metrics.AnalysisRunsTotal.WithLabelValues("completed").Inc()
			results[i] = batch.NewOK(doc.Path)
			return nil
		})
	}
	_ = g.Wait()

	summary := batch.Summarize(results)
	logger.FromContext(ctx).Info("analysis batch finished",
		zap.Int("analyzed", summary.Succeeded),
		zap.Int("failed", summary.Failed))

	return RunReport{
		AnalyzedCount: summary.Succeeded,
		FailedCount:   summary.Failed,
		Results:       results,
	}, nil
}

// List returns all persisted analysis records.
func (s *Service) List(ctx context.Context) ([]domanalysis.Record, error) {
	return s.records.List(ctx)
}

// Clear removes all analysis records, returning how many were removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	return s.records.Clear(ctx)
}

// analyzeDocument runs the full pipeline for one document. The pending row
// is written up front so a crash mid-analysis is visible in the catalog.
func (s *Service) analyzeDocument(ctx context.Context, doc domain.DocumentRef) error {
	rec, err := domanalysis.NewPending(doc.Path, doc.Title, doc.FileName, s.now())
	if err != nil {
		return err
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("persist pending record: %w", err)
	}

	completed, err := s.produceAnalysis(ctx, rec, doc)
	if err != nil {
		// Record the failure even when the run context was cancelled.
		failCtx := context.WithoutCancel(ctx)
		if persistErr := s.records.Upsert(failCtx, rec.Fail(err.Error(), s.now())); persistErr != nil {
			logger.FromContext(ctx).Error("persist failed record",
				zap.String("path", doc.Path), zap.Error(persistErr))
		}
		return err
	}

	if err := s.records.Upsert(ctx, completed); err != nil {
		return fmt.Errorf("persist completed record: %w", err)
	}
	return nil
}

func (s *Service) produceAnalysis(
	ctx context.Context, rec domanalysis.Record, doc domain.DocumentRef,
) (domanalysis.Record, error) {
	var data []byte
	err := retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
		var fetchErr error
		data, fetchErr = s.corpus.Fetch(ctx, doc.Path)
		return fetchErr
	})
	if err != nil {
		return domanalysis.Record{}, fmt.Errorf("fetch: %w", err)
	}

	var text string
	err = retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
		var exErr error
		text, exErr = s.extract.Extract(ctx, doc.FileName, data)
		return exErr
	})
	if err != nil {
		return domanalysis.Record{}, fmt.Errorf("extract: %w", err)
	}

	summary, err := s.completeWithRetry(ctx, domain.CompletionRequest{
		System:    summarySystemPrompt,
		User:      summaryUserPrompt(doc.Title, text),
		MaxTokens: s.summaryTokens,
	})
	if err != nil {
		return domanalysis.Record{}, fmt.Errorf("summarize: %w", err)
	}

	rawRisk, err := s.completeWithRetry(ctx, domain.CompletionRequest{
		System:    riskSystemPrompt,
		User:      riskUserPrompt(doc.Title, summary, text),
		JSONMode:  true,
		MaxTokens: s.analysisTokens,
	})
	if err != nil {
		return domanalysis.Record{}, fmt.Errorf("risk analysis: %w", err)
	}

	payload, err := parseRiskPayload(rawRisk)
	if err != nil {
		return domanalysis.Record{}, err
	}

	completed, err := rec.Complete(summary, payload.Narrative, payload.Risks, s.now())
	if err != nil {
		return domanalysis.Record{}, fmt.Errorf("%v: %w", err, domain.ErrMalformedOutput)
	}
	return completed, nil
}

func (s *Service) completeWithRetry(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var result domain.CompletionResult
	err := retry.Do(ctx, s.retryAttempts, s.retryDelay, func() error {
		var compErr error
		result, compErr = s.complete.Complete(ctx, req)
		return compErr
	})
	if err != nil {
		return "", err
	}
	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)
	return strings.TrimSpace(result.Content), nil
}

// parseRiskPayload strictly decodes the model's JSON risk object. Any parse
// failure is terminal for the document: partial risk data is never stored.
func parseRiskPayload(raw string) (riskPayload, error) {
	var payload riskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return riskPayload{}, fmt.Errorf("decode risk object: %v: %w", err, domain.ErrMalformedOutput)
	}
	if strings.TrimSpace(payload.Narrative) == "" {
		return riskPayload{}, fmt.Errorf("empty narrative: %w", domain.ErrMalformedOutput)
	}
	if payload.Risks == nil {
		payload.Risks = []domanalysis.RiskItem{}
	}
	return payload, nil
}
