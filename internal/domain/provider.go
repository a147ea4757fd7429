package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Completer is the shared chat-completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CompletionRequest is a single chat completion call.
type CompletionRequest struct {
	System string
	User   string
	// JSONMode forces the provider to return a single JSON object.
	JSONMode  bool
	MaxTokens int
}

// CompletionResult carries the model output and token usage.
type CompletionResult struct {
	Content     string
	TotalTokens int
}
