package report

import (
	"context"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/metrics"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
)

// Archiver keeps a copy of every written report outside the data directory.
type Archiver interface {
	Save(ctx context.Context, sessionID, topic string, ev Evaluation) error
}

type Generator struct {
	scorer  Scorer
	archive Archiver
}

type GeneratorOption func(*Generator)

func WithArchive(a Archiver) GeneratorOption {
	return func(g *Generator) { g.archive = a }
}

func NewGenerator(scorer Scorer, opts ...GeneratorOption) *Generator {
	g := &Generator{scorer: scorer}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate scores the transcript at dialogPath and writes the evaluation
// to summaryPath. It never fails: a missing transcript, a scorer failure
// or unusable scorer output yields an empty evaluation and a log entry.
func (g *Generator) Generate(ctx context.Context, dialogPath, summaryPath string) Evaluation {
	s := &State{DialogPath: dialogPath, SummaryPath: summaryPath}
	nodes := []Node{LoaderNode, ScorerNode(g.scorer), CriticNode, WriterNode}
	if g.archive != nil {
		nodes = append(nodes, ArchiveNode(g.archive))
	}

	if err := RunWorkflow(ctx, s, nodes...); err != nil {
		applog.FromContext(ctx).Error("report generation failed", "topic", s.Topic(), "error", err)
		metrics.ReportsTotal.WithLabelValues("empty").Inc()
		return Evaluation{}
	}
	metrics.ReportsTotal.WithLabelValues("ok").Inc()
	return s.Eval
}

// WriteFailed records that the stage behind summaryPath did not complete.
func (g *Generator) WriteFailed(ctx context.Context, sessionID, summaryPath string, cause error) error {
	ev := Evaluation{Status: StatusFailed, ScoresByTurn: []Score{}}
	if cause != nil {
		ev.Error = cause.Error()
	}
	metrics.ReportsTotal.WithLabelValues(StatusFailed).Inc()
	if err := transcript.WriteJSON(summaryPath, ev); err != nil {
		return err
	}
	if g.archive != nil {
		s := &State{SummaryPath: summaryPath, Record: transcript.Record{SessionID: sessionID}, Eval: ev}
		_ = ArchiveNode(g.archive)(ctx, s)
	}
	return nil
}
