package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/ingestion"
	"github.com/Divas-Gupta30/interview-agent/internal/llm"
	"github.com/Divas-Gupta30/interview-agent/internal/processing"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
	"github.com/Divas-Gupta30/interview-agent/prompts"
)

const (
	projectOpening = "我看到你做了一个%s的项目是吗，你来介绍一下吧"
	// DefaultProjectTurns bounds a project stage.
	DefaultProjectTurns = 10
)

// ProjectTopic is the dialog and summary file stem for a project.
func ProjectTopic(name string) string {
	return "project_" + processing.SanitizeName(name)
}

// ProjectRunner interviews the candidate about one resume project.
type ProjectRunner struct {
	Dialogue Dialogue
	Reports  ReportGenerator
	MaxTurns int

	mu  sync.Mutex
	rng *rand.Rand
}

// SetRand makes project choice reproducible.
func (p *ProjectRunner) SetRand(r *rand.Rand) {
	p.mu.Lock()
	p.rng = r
	p.mu.Unlock()
}

func (p *ProjectRunner) Run(ctx context.Context, sess *Session) error {
	_, path, ok := sess.Resume()
	if !ok {
		return fmt.Errorf("project stage: %w", ErrGuard)
	}
	resume, err := ingestion.ReadResume(path)
	if err != nil {
		return err
	}
	logger := applog.FromContext(ctx)
	if len(resume.Projects) == 0 {
		logger.Info("resume lists no projects, skipping project stage")
		return nil
	}
	proj := p.choose(resume)
	topic := ProjectTopic(proj.Name)

	dialogPath := sess.Layout.DialogFile(topic)
	tr, err := transcript.Open(dialogPath, sess.ID, string(StageProject), transcript.Config{
		ModelName:   p.Dialogue.Model(),
		Temperature: p.Dialogue.Temperature(),
	})
	if err != nil {
		return err
	}
	if tr.Discarded() {
		logger.Warn("discarded transcript left by another session", "path", dialogPath)
	}
	if err := tr.Describe(transcript.Topic{Name: proj.Name, Details: proj.Details}); err != nil {
		return err
	}

	system, err := prompts.Load(prompts.Project)
	if err != nil {
		return err
	}
	details, _ := json.MarshalIndent(proj.Details, "", "  ")
	conv := llm.NewConversation(system + "\n-Project: " + string(details))

	question := fmt.Sprintf(projectOpening, proj.Name)
	conv.AddAssistant(question)

	maxTurns := p.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultProjectTurns
	}
	exited := false
	for turn := 1; turn <= maxTurns; turn++ {
		answer, err := sess.Respondent.Ask(ctx, question)
		if err != nil {
			return err
		}
		if _, err := tr.AddTurn(question, answer); err != nil {
			return err
		}
		if IsExit(answer) {
			exited = true
			break
		}
		if turn == maxTurns {
			break
		}
		res := p.Dialogue.Continue(ctx, conv, answer)
		if !res.Ok() {
			logger.Warn("no next project question, ending project stage", "kind", res.Kind, "error", res.Err)
			break
		}
		question = res.Value
	}

	if err := tr.End(); err != nil {
		return err
	}
	logger.Info("project dialogue finished", "project", proj.Name, "turns", len(tr.Turns()), "messages", len(conv.History()))
	if err := ingestion.MarkAssessed(path, proj.Name); err != nil {
		logger.Warn("marking project assessed failed", "project", proj.Name, "error", err)
	}
	p.Reports.Generate(ctx, dialogPath, sess.Layout.SummaryFile(topic))
	if exited {
		return ErrExit
	}
	return nil
}

// choose picks uniformly among the unassessed projects, or among all of
// them when every project has been covered.
func (p *ProjectRunner) choose(r *ingestion.Resume) ingestion.Project {
	pool := r.Unassessed()
	if len(pool) == 0 {
		pool = r.Projects
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rng == nil {
		return pool[rand.IntN(len(pool))]
	}
	return pool[p.rng.IntN(len(pool))]
}
