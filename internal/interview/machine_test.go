package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/report"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	layout := NewLayout(t.TempDir(), "s1")
	require.NoError(t, layout.Create())
	return NewSession("s1", layout, newScripted("ok"))
}

func noop(context.Context, *Session) error { return nil }

func TestStageOrder(t *testing.T) {
	assert.Equal(t, StageInitial, StageNotStarted.Next())
	assert.Equal(t, StageTheory, StageInitial.Next())
	assert.Equal(t, StageProject, StageTheory.Next())
	assert.Equal(t, StageFinal, StageProject.Next())
	assert.Equal(t, StageEnd, StageFinal.Next())
	assert.Equal(t, StageEnd, StageEnd.Next())
	assert.Equal(t, -1, Stage("coding").Index())
}

func TestCanProceed(t *testing.T) {
	sess := newTestSession(t)
	assert.False(t, CanProceed(sess, StageInitial))
	assert.True(t, CanProceed(sess, StageTheory))
	assert.True(t, CanProceed(sess, StageProject))
	assert.True(t, CanProceed(sess, "coding"))

	attachResume(sess, "张三", "/tmp/cv.json")
	assert.True(t, CanProceed(sess, StageInitial))
	assert.True(t, sess.Ready.IsSet())
}

func TestAdvanceRespectsGuard(t *testing.T) {
	sess := newTestSession(t)
	var ran []Stage
	record := func(st Stage) Runner {
		return RunnerFunc(func(context.Context, *Session) error {
			ran = append(ran, st)
			return nil
		})
	}
	m := NewMachine(
		WithRunner(StageTheory, record(StageTheory)),
		WithRunner(StageProject, record(StageProject)),
		WithMachineLogger(applog.Discard()),
	)

	st, err := m.Advance(t.Context(), sess)
	require.NoError(t, err)
	assert.Equal(t, StageInitial, st)

	st, err = m.Advance(t.Context(), sess)
	assert.ErrorIs(t, err, ErrGuard)
	assert.Equal(t, StageInitial, st)
	assert.Equal(t, StageInitial, sess.Stage())

	attachResume(sess, "张三", "/tmp/cv.json")
	st, err = m.Advance(t.Context(), sess)
	require.NoError(t, err)
	assert.Equal(t, StageTheory, st)
	assert.Equal(t, []Stage{StageTheory}, ran)
}

func TestRunVisitsEveryStage(t *testing.T) {
	sess := newTestSession(t)
	attachResume(sess, "张三", "/tmp/cv.json")
	mirror := &recordingMirror{}
	m := NewMachine(WithStatusMirror(mirror), WithMachineLogger(applog.Discard()))

	m.Run(t.Context(), sess)
	assert.Equal(t, []Stage{StageInitial, StageTheory, StageProject, StageFinal, StageEnd}, mirror.Stages())
	assert.Equal(t, 5, sess.StageCount())

	// end is absorbing
	st, err := m.Advance(t.Context(), sess)
	require.NoError(t, err)
	assert.Equal(t, StageEnd, st)
	assert.Equal(t, 5, sess.StageCount())
}

func TestRunnerFailureWritesFailedReport(t *testing.T) {
	cases := map[string]RunnerFunc{
		"error": func(context.Context, *Session) error { return errors.New("transcript disk full") },
		"panic": func(context.Context, *Session) error { panic("nil resume") },
	}
	for name, runner := range cases {
		t.Run(name, func(t *testing.T) {
			sess := newTestSession(t)
			attachResume(sess, "张三", "/tmp/cv.json")
			mirror := &recordingMirror{}
			projectRan := false
			m := NewMachine(
				WithRunner(StageInitial, RunnerFunc(noop)),
				WithRunner(StageTheory, runner),
				WithRunner(StageProject, RunnerFunc(func(context.Context, *Session) error {
					projectRan = true
					return nil
				})),
				WithFailureReporter(report.NewGenerator(nil)),
				WithStatusMirror(mirror),
				WithMachineLogger(applog.Discard()),
			)

			m.Run(t.Context(), sess)
			assert.Equal(t, StageEnd, sess.Stage())
			assert.False(t, projectRan)
			assert.Equal(t, []Stage{StageInitial, StageTheory, StageEnd}, mirror.Stages())

			ev, err := report.Load(sess.Layout.SummaryFile("theory"))
			require.NoError(t, err)
			assert.True(t, ev.Failed())
			assert.NotEmpty(t, ev.Error)
		})
	}
}

func TestExitEndsWithoutFailedReport(t *testing.T) {
	sess := newTestSession(t)
	attachResume(sess, "张三", "/tmp/cv.json")
	m := NewMachine(
		WithRunner(StageTheory, RunnerFunc(func(context.Context, *Session) error { return ErrExit })),
		WithFailureReporter(report.NewGenerator(nil)),
		WithMachineLogger(applog.Discard()),
	)

	m.Run(t.Context(), sess)
	assert.Equal(t, StageEnd, sess.Stage())
	assert.NoFileExists(t, sess.Layout.SummaryFile("theory"))
}

func TestInitialRunnerWaitsForResume(t *testing.T) {
	sess := newTestSession(t)
	resp := sess.Respondent.(*scripted)
	done := make(chan error, 1)
	go func() { done <- InitialRunner{}.Run(t.Context(), sess) }()

	select {
	case <-done:
		t.Fatal("initial stage finished before the resume arrived")
	default:
	}
	attachResume(sess, "张三", "/tmp/cv.json")
	require.NoError(t, <-done)
	assert.Equal(t, []string{introRequest}, resp.Asked())
	assert.Equal(t, []string{resumeRequest}, resp.said)
}
