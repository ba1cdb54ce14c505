package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/Divas-Gupta30/interview-agent/internal/report"
)

// FinalRunner aggregates the project reports into summary/final.json and
// reads the result out to the candidate.
type FinalRunner struct{}

func (FinalRunner) Run(ctx context.Context, sess *Session) error {
	final, err := report.Aggregate(sess.Layout.Summary)
	if err != nil {
		return err
	}
	if err := report.WriteFinal(sess.Layout.Summary, final); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("面试结束，感谢参与。")
	for _, p := range final.Projects {
		fmt.Fprintf(&b, "\n项目名称：%s\n项目得分：%g\n项目满分：%d\n项目评价：%s\n",
			strings.TrimPrefix(p.Topic, "project_"), p.TotalScore, p.FullScore, p.OverallEvaluation)
	}
	return sess.Respondent.Say(ctx, b.String())
}
