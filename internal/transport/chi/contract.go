package chi

import (
	"context"

	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
	analysisuc "github.com/hangarops/docsense/internal/usecase/analysis"
	answeruc "github.com/hangarops/docsense/internal/usecase/answer"
	healthuc "github.com/hangarops/docsense/internal/usecase/health"
	indexuc "github.com/hangarops/docsense/internal/usecase/index"
)

// IndexManager drives the embedding index lifecycle.
type IndexManager interface {
	Status(ctx context.Context) (vectorstatus.Status, error)
	Initialize(ctx context.Context) (indexuc.BuildReport, error)
	Clear(ctx context.Context) error
	Reindex(ctx context.Context) (indexuc.BuildReport, error)
}

// AnalysisPipeline runs and manages document risk analyses.
type AnalysisPipeline interface {
	Run(ctx context.Context) (analysisuc.RunReport, error)
	List(ctx context.Context) ([]domanalysis.Record, error)
	Clear(ctx context.Context) (int, error)
}

// AnswerEngine answers questions over the indexed corpus.
type AnswerEngine interface {
	Answer(ctx context.Context, question string) (answeruc.Response, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
