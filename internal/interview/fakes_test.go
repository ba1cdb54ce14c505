package interview

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/graph"
	"github.com/Divas-Gupta30/interview-agent/internal/ingestion"
	"github.com/Divas-Gupta30/interview-agent/internal/llm"
	"github.com/Divas-Gupta30/interview-agent/internal/report"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
	"github.com/Divas-Gupta30/interview-agent/prompts"
)

// scripted answers questions from a table, falling back to a default.
type scripted struct {
	mu       sync.Mutex
	answers  map[string]string
	fallback string
	asked    []string
	said     []string
}

func newScripted(fallback string) *scripted {
	return &scripted{
		answers: map[string]string{
			languageQuestion: "我比较熟悉 python",
			introRequest:     "我是张三",
		},
		fallback: fallback,
	}
}

func (s *scripted) Say(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
	return nil
}

func (s *scripted) Ask(ctx context.Context, q string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.asked = append(s.asked, q)
	if a, ok := s.answers[q]; ok {
		return a, nil
	}
	return s.fallback, nil
}

func (s *scripted) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.asked)
}

// fakeDialogue answers the language intake and fails everything else
// unless told otherwise.
type fakeDialogue struct {
	mu        sync.Mutex
	followUp  result.Result[string]
	next      []string
	completes int
}

func (f *fakeDialogue) Complete(_ context.Context, system, _ string) result.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
	switch system {
	case prompts.MustLoad(prompts.Language):
		return result.Ok("Python")
	case prompts.MustLoad(prompts.TheoryFollowUp):
		return f.followUp
	}
	return result.None[string]()
}

func (f *fakeDialogue) Continue(_ context.Context, conv *llm.Conversation, _ string) result.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.next) == 0 {
		return result.None[string]()
	}
	q := f.next[0]
	f.next = f.next[1:]
	return result.Ok(q)
}

func (f *fakeDialogue) Model() string        { return "fake" }
func (f *fakeDialogue) Temperature() float64 { return 0.5 }

// turnScorer gives every turn a 7.
type turnScorer struct{}

func (turnScorer) Synthesize(_ context.Context, rec transcript.Record) result.Result[report.Evaluation] {
	ev := report.Evaluation{Summary: report.Summary{OverallEvaluation: "尚可"}, ScoresByTurn: []report.Score{}}
	for _, t := range rec.Conversations {
		ev.ScoresByTurn = append(ev.ScoresByTurn, report.Score{TurnID: t.TurnID, Score: 7})
	}
	return result.Ok(ev)
}

type fakeParser struct {
	doc map[string]any
	err error
}

func (p fakeParser) Parse(context.Context, string) (*ingestion.Parsed, error) {
	if p.err != nil {
		return nil, p.err
	}
	raw, _ := json.Marshal(p.doc)
	var r ingestion.Resume
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &ingestion.Parsed{Resume: &r, Raw: raw}, nil
}

func zhangSan() map[string]any {
	return map[string]any{
		"基本信息": map[string]any{"姓名": "张三"},
		"项目经历": []any{map[string]any{"项目名称": "X"}},
		"技术总结": map[string]any{"语言": "python", "岗位": []any{"后端"}},
	}
}

// recordingMirror keeps every published status.
type recordingMirror struct {
	mu     sync.Mutex
	stages []Stage
	last   map[string]Status
}

func (m *recordingMirror) Publish(_ context.Context, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		m.last = map[string]Status{}
	}
	m.stages = append(m.stages, st.Status)
	m.last[st.SessionID] = st
	return nil
}

func (m *recordingMirror) Lookup(_ context.Context, id string) (Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.last[id]
	return st, ok, nil
}

func (m *recordingMirror) Stages() []Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.stages)
}

type fakeArchive struct {
	reports map[string]map[string]json.RawMessage
	err     error
}

func (a fakeArchive) Reports(_ context.Context, id string) (map[string]json.RawMessage, error) {
	return a.reports[id], a.err
}

func attachResume(sess *Session, name, path string) {
	sess.setResume(name, path)
	sess.Ready.Set()
}

type harness struct {
	svc      *Service
	mirror   *recordingMirror
	dialogue *fakeDialogue
}

func newHarness(t *testing.T, backend graph.Backend, parser ResumeParser, opts ...ServiceOption) *harness {
	t.Helper()
	logger := applog.Discard()
	dialogue := &fakeDialogue{followUp: result.None[string]()}
	reports := report.NewGenerator(turnScorer{})
	mirror := &recordingMirror{}

	machine := NewMachine(
		WithRunner(StageInitial, InitialRunner{}),
		WithRunner(StageTheory, &TheoryRunner{
			Graph:    graph.New(backend, graph.WithLogger(logger)),
			Dialogue: dialogue,
			Reports:  reports,
			TopK:     graph.DefaultTopK,
			Hops:     1,
		}),
		WithRunner(StageProject, &ProjectRunner{Dialogue: dialogue, Reports: reports, MaxTurns: 3}),
		WithRunner(StageFinal, FinalRunner{}),
		WithFailureReporter(reports),
		WithStatusMirror(mirror),
		WithMachineLogger(logger),
	)
	opts = append([]ServiceOption{WithMirror(mirror), WithServiceLogger(logger)}, opts...)
	svc := NewService(t.TempDir(), machine, parser, opts...)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return &harness{svc: svc, mirror: mirror, dialogue: dialogue}
}

func requireMonotonic(t *testing.T, stages []Stage) {
	t.Helper()
	for i := 1; i < len(stages); i++ {
		require.GreaterOrEqual(t, stages[i].Index(), stages[i-1].Index(), "stage sequence %v", stages)
	}
}
