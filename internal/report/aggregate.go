package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
)

// FinalFile is the aggregated result written by the final stage.
const FinalFile = "final.json"

type ProjectScore struct {
	Topic             string  `json:"topic"`
	TotalScore        float64 `json:"total_score"`
	FullScore         int     `json:"full_score"`
	OverallEvaluation string  `json:"overall_evaluation"`
}

type Final struct {
	Projects   []ProjectScore `json:"projects"`
	TotalScore float64        `json:"total_score"`
	FullScore  int            `json:"full_score"`
}

// Aggregate sums the project reports in summaryDir. Scores are not
// normalized; the full score of a project is ten times its last turn id.
// Empty, failed and unreadable reports are skipped.
func Aggregate(summaryDir string) (Final, error) {
	paths, err := filepath.Glob(filepath.Join(summaryDir, "project_*.json"))
	if err != nil {
		return Final{}, fmt.Errorf("listing project reports: %w", err)
	}
	sort.Strings(paths)

	final := Final{Projects: []ProjectScore{}}
	for _, p := range paths {
		ev, err := Load(p)
		if err != nil || ev.Failed() || ev.Empty() || len(ev.ScoresByTurn) == 0 {
			continue
		}
		ps := ProjectScore{
			Topic:             strings.TrimSuffix(filepath.Base(p), ".json"),
			TotalScore:        ev.Total(),
			FullScore:         ev.FullScore(),
			OverallEvaluation: ev.Summary.OverallEvaluation,
		}
		final.Projects = append(final.Projects, ps)
		final.TotalScore += ps.TotalScore
		final.FullScore += ps.FullScore
	}
	return final, nil
}

// WriteFinal stores f as summaryDir/final.json.
func WriteFinal(summaryDir string, f Final) error {
	return transcript.WriteJSON(filepath.Join(summaryDir, FinalFile), f)
}
