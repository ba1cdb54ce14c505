package interview

import (
	"context"

	"github.com/Divas-Gupta30/interview-agent/internal/graph"
	"github.com/Divas-Gupta30/interview-agent/internal/llm"
	"github.com/Divas-Gupta30/interview-agent/internal/report"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
)

// Dialogue is the language model as seen by the stage runners.
type Dialogue interface {
	// Complete is a one-shot side request.
	Complete(ctx context.Context, system, input string) result.Result[string]
	// Continue extends conv; its history grows only on success.
	Continue(ctx context.Context, conv *llm.Conversation, input string) result.Result[string]
	Model() string
	Temperature() float64
}

// Sampler picks questions from the question graph.
type Sampler interface {
	SampleByTag(ctx context.Context, tag string, excluded graph.IDSet) result.Result[graph.Question]
	SampleRelated(ctx context.Context, id string, excluded graph.IDSet, topK int) result.Result[graph.Question]
}

// ReportGenerator scores a closed transcript. It does not fail.
type ReportGenerator interface {
	Generate(ctx context.Context, dialogPath, summaryPath string) report.Evaluation
}
