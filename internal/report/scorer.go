package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Divas-Gupta30/interview-agent/internal/llm"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
	"github.com/Divas-Gupta30/interview-agent/prompts"
)

// Scorer synthesizes an evaluation from a transcript. It must accept a
// transcript with no turns.
type Scorer interface {
	Synthesize(ctx context.Context, rec transcript.Record) result.Result[Evaluation]
}

// Completer is the one-shot side of the language model client.
type Completer interface {
	Complete(ctx context.Context, system, input string) result.Result[string]
}

// LLMScorer asks the language model for the evaluation.
type LLMScorer struct {
	llm Completer
}

func NewLLMScorer(c Completer) *LLMScorer {
	return &LLMScorer{llm: c}
}

func (s *LLMScorer) Synthesize(ctx context.Context, rec transcript.Record) result.Result[Evaluation] {
	if len(rec.Conversations) == 0 {
		return result.Ok(Evaluation{ScoresByTurn: []Score{}})
	}

	system, err := prompts.Load(promptFor(rec.Type))
	if err != nil {
		return result.Fatal[Evaluation](err)
	}
	res := s.llm.Complete(ctx, system, formatRecord(rec))
	if !res.Ok() {
		err := res.Err
		if err == nil {
			err = fmt.Errorf("scorer returned nothing")
		}
		return result.Result[Evaluation]{Kind: res.Kind, Err: err}
	}

	var ev Evaluation
	raw, err := llm.DecodeJSON(res.Value, &ev)
	if err != nil {
		return result.Fatal[Evaluation](err)
	}
	if err := ev.Validate(); err != nil {
		return result.Fatal[Evaluation](err)
	}
	if ev.ScoresByTurn == nil {
		ev.ScoresByTurn = []Score{}
	}
	ev.Raw = raw
	return result.Ok(ev)
}

func promptFor(stage string) string {
	if stage == "project" {
		return prompts.ProjectReport
	}
	return prompts.TheoryReport
}

func formatRecord(rec transcript.Record) string {
	var b strings.Builder
	if rec.Type == "project" {
		b.WriteString("面试项目：" + rec.Topic.Name + "\n")
		if len(rec.Topic.Details) > 0 {
			details, _ := json.MarshalIndent(rec.Topic.Details, "", "    ")
			b.WriteString("项目描述：\n" + string(details) + "\n")
		}
		b.WriteString("\n对话记录：\n")
	} else {
		fields := append([]string{rec.Topic.CodingLanguage}, rec.Topic.PotentialPosition...)
		b.WriteString("考察领域：" + strings.Join(fields, "、") + "\n\n以下是问答对话记录：\n")
	}
	for _, t := range rec.Conversations {
		fmt.Fprintf(&b, "第 %d 轮\n问题：%s\n回答：%s\n\n", t.TurnID, t.Question, t.Answer)
	}
	return b.String()
}
