package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/metrics"
)

var (
	// ErrGuard is returned by Advance when the current stage may not be left.
	ErrGuard = errors.New("stage guard not satisfied")
	// ErrExit is returned by a runner when the candidate ends the interview.
	ErrExit = errors.New("candidate ended the interview")
)

// Runner executes one stage of a session.
type Runner interface {
	Run(ctx context.Context, sess *Session) error
}

type RunnerFunc func(ctx context.Context, sess *Session) error

func (f RunnerFunc) Run(ctx context.Context, sess *Session) error { return f(ctx, sess) }

// FailureReporter writes the report of a stage that did not complete.
type FailureReporter interface {
	WriteFailed(ctx context.Context, sessionID, summaryPath string, cause error) error
}

// StatusMirror keeps a copy of session status outside the process.
type StatusMirror interface {
	Publish(ctx context.Context, st Status) error
	Lookup(ctx context.Context, id string) (Status, bool, error)
}

// CanProceed reports whether a session may leave stage current. Leaving
// initial requires the resume to be attached.
func CanProceed(sess *Session, current Stage) bool {
	switch current {
	case StageNotStarted, StageTheory, StageProject, StageFinal, "coding":
		return true
	case StageInitial:
		_, _, ok := sess.Resume()
		return ok
	default:
		return false
	}
}

// Machine drives a session through its stages.
type Machine struct {
	runners  map[Stage]Runner
	failures FailureReporter
	mirror   StatusMirror
	logger   *slog.Logger
}

type MachineOption func(*Machine)

func WithRunner(stage Stage, r Runner) MachineOption {
	return func(m *Machine) { m.runners[stage] = r }
}

func WithFailureReporter(f FailureReporter) MachineOption {
	return func(m *Machine) { m.failures = f }
}

func WithStatusMirror(s StatusMirror) MachineOption {
	return func(m *Machine) { m.mirror = s }
}

func WithMachineLogger(l *slog.Logger) MachineOption {
	return func(m *Machine) { m.logger = l }
}

func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{runners: map[Stage]Runner{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Advance moves sess to the next stage when the guard of its current
// stage holds, and runs the new stage. The stage label is updated before
// the runner starts.
func (m *Machine) Advance(ctx context.Context, sess *Session) (Stage, error) {
	cur := sess.Stage()
	if cur == StageEnd {
		return StageEnd, nil
	}
	if !CanProceed(sess, cur) {
		return cur, fmt.Errorf("%w: leaving %s", ErrGuard, cur)
	}

	next := cur.Next()
	m.enter(ctx, sess, next)
	if next == StageEnd {
		return StageEnd, nil
	}
	return next, m.runStage(ctx, sess, next)
}

// Run advances sess until it reaches end. A runner failure writes a failed
// report for that stage and ends the session; so does a candidate exit,
// without the report.
func (m *Machine) Run(ctx context.Context, sess *Session) {
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	logger := m.logger.With("session_id", sess.ID)
	logger.Info("state machine started")

	for {
		stage, err := m.Advance(ctx, sess)
		if stage == StageEnd {
			break
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, ErrExit):
			logger.Info("candidate ended the interview", "stage", stage)
		case errors.Is(err, ErrGuard):
			logger.Warn("cannot leave stage", "stage", stage, "error", err)
		case ctx.Err() != nil:
			logger.Warn("session aborted", "stage", stage, "error", err)
		default:
			logger.Error("stage failed", "stage", stage, "error", err)
			if m.failures != nil {
				path := sess.Layout.SummaryFile(string(stage))
				if werr := m.failures.WriteFailed(ctx, sess.ID, path, err); werr != nil {
					logger.Error("writing failed report", "stage", stage, "error", werr)
				}
			}
		}
		m.enter(ctx, sess, StageEnd)
		break
	}
	logger.Info("state machine finished", "transitions", sess.StageCount())
}

func (m *Machine) runStage(ctx context.Context, sess *Session, stage Stage) (err error) {
	r, ok := m.runners[stage]
	if !ok {
		return nil
	}
	logger := m.logger.With("session_id", sess.ID, "stage", stage)
	ctx = applog.WithLogger(ctx, logger)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("stage panicked", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("stage %s panicked: %v", stage, p)
		}
	}()
	return r.Run(ctx, sess)
}

func (m *Machine) enter(ctx context.Context, sess *Session, stage Stage) {
	if !sess.setStage(stage) {
		return
	}
	metrics.StageTransitionsTotal.WithLabelValues(string(stage)).Inc()
	m.logger.Info("state transition", "session_id", sess.ID, "stage", stage)
	if m.mirror != nil {
		if err := m.mirror.Publish(context.WithoutCancel(ctx), sess.Snapshot()); err != nil {
			m.logger.Warn("publishing session status failed", "session_id", sess.ID, "error", err)
		}
	}
}
