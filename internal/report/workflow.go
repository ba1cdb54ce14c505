package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
)

// State flows through the report nodes.
type State struct {
	DialogPath  string
	SummaryPath string

	Record transcript.Record
	Eval   Evaluation
}

// Topic is the summary file stem, e.g. "theory" or "project_商城".
func (s *State) Topic() string {
	return strings.TrimSuffix(filepath.Base(s.SummaryPath), ".json")
}

type Node func(ctx context.Context, s *State) error

// RunWorkflow runs nodes in order and stops at the first error.
func RunWorkflow(ctx context.Context, s *State, nodes ...Node) error {
	for _, n := range nodes {
		if err := n(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// LoaderNode reads the closed transcript.
func LoaderNode(ctx context.Context, s *State) error {
	rec, err := transcript.Load(s.DialogPath)
	if err != nil {
		return err
	}
	s.Record = rec
	return nil
}

// ScorerNode returns a node asking scorer for the evaluation.
func ScorerNode(scorer Scorer) Node {
	return func(ctx context.Context, s *State) error {
		res := scorer.Synthesize(ctx, s.Record)
		if !res.Ok() {
			if res.Err != nil {
				return fmt.Errorf("scoring %s (%s): %w", s.Topic(), res.Kind, res.Err)
			}
			return fmt.Errorf("scoring %s: %s", s.Topic(), res.Kind)
		}
		s.Eval = res.Value
		return nil
	}
}

// CriticNode keeps one score per transcript turn, ordered by turn id.
func CriticNode(ctx context.Context, s *State) error {
	turns := make(map[int]bool, len(s.Record.Conversations))
	for _, t := range s.Record.Conversations {
		turns[t.TurnID] = true
	}

	seen := map[int]bool{}
	kept := make([]Score, 0, len(s.Eval.ScoresByTurn))
	for _, sc := range s.Eval.ScoresByTurn {
		if !turns[sc.TurnID] || seen[sc.TurnID] {
			applog.FromContext(ctx).Warn("dropping score for unknown or repeated turn", "topic", s.Topic(), "turn_id", sc.TurnID)
			continue
		}
		seen[sc.TurnID] = true
		kept = append(kept, sc)
	}
	sorted := sort.SliceIsSorted(kept, func(i, j int) bool { return kept[i].TurnID < kept[j].TurnID })
	if !sorted {
		sort.Slice(kept, func(i, j int) bool { return kept[i].TurnID < kept[j].TurnID })
	}
	if !sorted || len(kept) != len(s.Eval.ScoresByTurn) {
		s.Eval.Raw = nil
	}
	s.Eval.ScoresByTurn = kept
	return nil
}

// WriterNode persists the evaluation, keeping the scorer's own JSON when
// it is still accurate.
func WriterNode(ctx context.Context, s *State) error {
	if len(s.Eval.Raw) > 0 {
		return transcript.WriteJSON(s.SummaryPath, json.RawMessage(s.Eval.Raw))
	}
	return transcript.WriteJSON(s.SummaryPath, s.Eval)
}

// ArchiveNode mirrors the evaluation into archive. Failures are logged only.
func ArchiveNode(archive Archiver) Node {
	return func(ctx context.Context, s *State) error {
		if err := archive.Save(ctx, s.Record.SessionID, s.Topic(), s.Eval); err != nil {
			applog.FromContext(ctx).Warn("archiving report failed", "topic", s.Topic(), "error", err)
		}
		return nil
	}
}
