package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/graph"
	"github.com/Divas-Gupta30/interview-agent/internal/ingestion"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
	"github.com/Divas-Gupta30/interview-agent/prompts"
)

const (
	languageQuestion = "你熟悉哪个开发语言？"
	cppQuestion      = "有了解c++的一些新特性吗？"
	theoryOpening    = "好，那先来看看你对这个语言的掌握程度。"
	theoryTopic      = "theory"
)

// TheoryRunner asks knowledge questions sampled from the question graph,
// one model follow-up after each, and hops to related questions.
type TheoryRunner struct {
	Graph    Sampler
	Dialogue Dialogue
	Reports  ReportGenerator
	// TopK bounds the related questions a hop chooses from.
	TopK int
	// Hops is the number of related questions asked after each tag question.
	Hops int
}

func (t *TheoryRunner) Run(ctx context.Context, sess *Session) error {
	_, path, ok := sess.Resume()
	if !ok {
		return fmt.Errorf("theory stage: %w", ErrGuard)
	}
	resume, err := ingestion.ReadResume(path)
	if err != nil {
		return err
	}

	dialogPath := sess.Layout.DialogFile(theoryTopic)
	tr, err := transcript.Open(dialogPath, sess.ID, string(StageTheory), transcript.Config{
		ModelName:   t.Dialogue.Model(),
		Temperature: t.Dialogue.Temperature(),
	})
	if err != nil {
		return err
	}
	logger := applog.FromContext(ctx)
	if tr.Discarded() {
		logger.Warn("discarded transcript left by another session", "path", dialogPath)
	}

	// the language intake is not a scored turn, but an exit during it
	// still closes the stage
	exited := false
	lang, err := t.intake(ctx, sess.Respondent, resume.Language)
	switch {
	case errors.Is(err, ErrExit):
		exited = true
		if err := tr.Describe(transcript.Topic{Name: theoryTopic}); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := tr.Describe(transcript.Topic{
			Name:              theoryTopic,
			CodingLanguage:    lang,
			PotentialPosition: resume.Positions,
		}); err != nil {
			return err
		}
		exited, err = t.ask(ctx, sess.Respondent, tr, TagGroups(lang, resume.Positions))
		if err != nil {
			return err
		}
	}

	if err := tr.End(); err != nil {
		return err
	}
	t.Reports.Generate(ctx, dialogPath, sess.Layout.SummaryFile(theoryTopic))
	if exited {
		return ErrExit
	}
	return nil
}

// intake asks which language the candidate prefers and normalizes the
// answer with the model, falling back to the resume's language.
func (t *TheoryRunner) intake(ctx context.Context, resp Respondent, fallback string) (string, error) {
	answer, err := resp.Ask(ctx, languageQuestion)
	if err != nil {
		return "", err
	}
	if IsExit(answer) {
		return "", ErrExit
	}
	if fallback == "" {
		fallback = strings.ToLower(strings.TrimSpace(answer))
	}
	lang := t.normalize(ctx, prompts.Language, answer, fallback)

	if lang == "c++" {
		refine, err := resp.Ask(ctx, cppQuestion)
		if err != nil {
			return "", err
		}
		if IsExit(refine) {
			return "", ErrExit
		}
		lang = t.normalize(ctx, prompts.CppVersion, answer+" "+refine, "c++")
	}

	if err := resp.Say(ctx, theoryOpening); err != nil {
		return "", err
	}
	return lang, nil
}

func (t *TheoryRunner) normalize(ctx context.Context, prompt, input, fallback string) string {
	system, err := prompts.Load(prompt)
	if err != nil {
		return fallback
	}
	res := t.Dialogue.Complete(ctx, system, input)
	if !res.Ok() {
		applog.FromContext(ctx).Warn("normalizing answer failed, using fallback", "kind", res.Kind, "error", res.Err, "fallback", fallback)
		return fallback
	}
	out := strings.ToLower(strings.TrimSpace(strings.SplitN(res.Value, "\n", 2)[0]))
	if out == "" {
		return fallback
	}
	return out
}

// ask walks the tag groups. It reports whether the candidate asked to stop.
func (t *TheoryRunner) ask(ctx context.Context, resp Respondent, tr *transcript.Transcript, groups [][]string) (bool, error) {
	logger := applog.FromContext(ctx)
	asked := graph.IDSet{}

	for _, group := range groups {
		for _, tag := range group {
			res := t.Graph.SampleByTag(ctx, tag, asked)
			switch res.Kind {
			case result.KindNotFound:
				logger.Info("no question left for tag, skipping", "tag", tag)
				continue
			case result.KindTransient:
				logger.Warn("question graph unavailable, skipping tag", "tag", tag, "error", res.Err)
				continue
			case result.KindFatal:
				logger.Error("question graph failed, ending theory questions", "tag", tag, "error", res.Err)
				return false, nil
			}

			cur := res.Value
			asked.Add(cur.ID)
			exited, err := t.exchange(ctx, resp, tr, cur.Text)
			if exited || err != nil {
				return exited, err
			}

			for range t.Hops {
				rel := t.Graph.SampleRelated(ctx, cur.ID, asked, t.TopK)
				if rel.Kind == result.KindFatal {
					logger.Error("question graph failed, ending theory questions", "question_id", cur.ID, "error", rel.Err)
					return false, nil
				}
				if !rel.Ok() {
					logger.Info("no related question, leaving tag", "tag", tag, "question_id", cur.ID)
					break
				}
				cur = rel.Value
				asked.Add(cur.ID)
				exited, err := t.exchange(ctx, resp, tr, cur.Text)
				if exited || err != nil {
					return exited, err
				}
			}
		}
	}
	return false, nil
}

// exchange asks question and then one model follow-up. Every answered
// question becomes a turn, including the one answered with an exit word.
func (t *TheoryRunner) exchange(ctx context.Context, resp Respondent, tr *transcript.Transcript, question string) (bool, error) {
	answer, err := t.turn(ctx, resp, tr, question)
	if err != nil || IsExit(answer) {
		return err == nil, err
	}

	system, err := prompts.Load(prompts.TheoryFollowUp)
	if err != nil {
		return false, err
	}
	input := fmt.Sprintf("面试官问题：%s\n候选人回答：%s\n\n请生成一个追问问题：", question, answer)
	fu := t.Dialogue.Complete(ctx, system, input)
	if !fu.Ok() {
		applog.FromContext(ctx).Warn("follow-up skipped", "kind", fu.Kind, "error", fu.Err)
		return false, nil
	}

	answer, err = t.turn(ctx, resp, tr, fu.Value)
	if err != nil {
		return false, err
	}
	return IsExit(answer), nil
}

func (t *TheoryRunner) turn(ctx context.Context, resp Respondent, tr *transcript.Transcript, question string) (string, error) {
	answer, err := resp.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	if _, err := tr.AddTurn(question, answer); err != nil {
		return "", err
	}
	return answer, nil
}
