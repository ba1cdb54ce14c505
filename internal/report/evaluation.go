// Package report turns a closed interview transcript into a scored
// evaluation and aggregates project evaluations into a final result.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StatusFailed marks a report written for a stage that did not complete.
const StatusFailed = "failed"

type Summary struct {
	OverallEvaluation   string   `json:"overall_evaluation"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	FinalRecommendation string   `json:"final_recommendation"`
}

// Score is the mark given to one turn, between 1 and 10.
type Score struct {
	TurnID int     `json:"turn_id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type Evaluation struct {
	Status       string  `json:"status,omitempty"`
	Error        string  `json:"error,omitempty"`
	Summary      Summary `json:"summary"`
	ScoresByTurn []Score `json:"scores_by_turn"`

	// Raw is the scorer output the evaluation was decoded from.
	Raw json.RawMessage `json:"-"`
}

var ErrInvalidScore = errors.New("invalid score")

// Empty reports whether the evaluation carries no assessment.
func (e Evaluation) Empty() bool {
	s := e.Summary
	return len(e.ScoresByTurn) == 0 && s.OverallEvaluation == "" && s.FinalRecommendation == "" &&
		len(s.Strengths) == 0 && len(s.AreasForImprovement) == 0
}

func (e Evaluation) Failed() bool { return e.Status == StatusFailed }

// Total sums the per-turn scores.
func (e Evaluation) Total() float64 {
	var sum float64
	for _, s := range e.ScoresByTurn {
		sum += s.Score
	}
	return sum
}

// FullScore is ten points for every turn up to the highest scored one.
func (e Evaluation) FullScore() int {
	last := 0
	for _, s := range e.ScoresByTurn {
		last = max(last, s.TurnID)
	}
	return last * 10
}

// Validate checks turn ids are positive and scores lie in [1, 10].
func (e Evaluation) Validate() error {
	for _, s := range e.ScoresByTurn {
		if s.TurnID < 1 {
			return fmt.Errorf("%w: turn id %d", ErrInvalidScore, s.TurnID)
		}
		if s.Score < 1 || s.Score > 10 {
			return fmt.Errorf("%w: turn %d scored %v", ErrInvalidScore, s.TurnID, s.Score)
		}
	}
	return nil
}

// Load reads an evaluation file.
func Load(path string) (Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Evaluation{}, fmt.Errorf("reading report %s: %w", path, err)
	}
	var ev Evaluation
	if err := json.Unmarshal(data, &ev); err != nil {
		return Evaluation{}, fmt.Errorf("decoding report %s: %w", path, err)
	}
	ev.Raw = data
	return ev, nil
}

// LoadAll returns every report in summaryDir keyed by file stem.
func LoadAll(summaryDir string) (map[string]json.RawMessage, error) {
	paths, err := filepath.Glob(filepath.Join(summaryDir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make(map[string]json.RawMessage, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading report %s: %w", p, err)
		}
		if !json.Valid(data) {
			continue
		}
		out[strings.TrimSuffix(filepath.Base(p), ".json")] = data
	}
	return out, nil
}
