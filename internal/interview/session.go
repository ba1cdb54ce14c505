// Package interview runs interview sessions: the stage state machine, the
// stage runners and the service the HTTP layer and the console drive.
package interview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Stage string

const (
	StageNotStarted Stage = "not_started"
	StageInitial    Stage = "initial"
	StageTheory     Stage = "theory"
	StageProject    Stage = "project"
	StageFinal      Stage = "final"
	StageEnd        Stage = "end"
)

var stageOrder = []Stage{StageNotStarted, StageInitial, StageTheory, StageProject, StageFinal, StageEnd}

// Index is the position of s in the stage sequence, or -1.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next is the stage after s. End is absorbing.
func (s Stage) Next() Stage {
	i := s.Index()
	if i < 0 || i == len(stageOrder)-1 {
		return StageEnd
	}
	return stageOrder[i+1]
}

// Layout is the per-session directory tree.
type Layout struct {
	Root    string
	Dialog  string
	Summary string
}

func NewLayout(dataRoot, sessionID string) Layout {
	root := filepath.Join(dataRoot, sessionID)
	return Layout{
		Root:    root,
		Dialog:  filepath.Join(root, "dialog"),
		Summary: filepath.Join(root, "summary"),
	}
}

func (l Layout) Create() error {
	for _, dir := range []string{l.Root, l.Dialog, l.Summary} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}
	return nil
}

func (l Layout) DialogFile(topic string) string {
	return filepath.Join(l.Dialog, topic+".json")
}

func (l Layout) SummaryFile(topic string) string {
	return filepath.Join(l.Summary, topic+".json")
}

// Status is the externally visible state of a session.
type Status struct {
	SessionID     string  `json:"session_id"`
	Status        Stage   `json:"status"`
	ResumePath    *string `json:"resume_path"`
	CandidateName *string `json:"candidate_name"`
}

// Session is one interview. Its fields are read by the status surface
// while the state machine writes them.
type Session struct {
	ID         string
	Layout     Layout
	Ready      *Latch
	Respondent Respondent

	mu            sync.RWMutex
	stage         Stage
	stageCount    int
	candidateName *string
	resumePath    *string
	cancel        context.CancelFunc
}

func NewSession(id string, layout Layout, resp Respondent) *Session {
	return &Session{
		ID:         id,
		Layout:     layout,
		Ready:      NewLatch(),
		Respondent: resp,
		stage:      StageNotStarted,
	}
}

func (s *Session) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// StageCount is the number of transitions taken so far.
func (s *Session) StageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stageCount
}

// setStage moves forward to st. Moves backwards are refused.
func (s *Session) setStage(st Stage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Index() <= s.stage.Index() {
		return false
	}
	s.stage = st
	s.stageCount++
	return true
}

// setResume records the candidate name and resume path together. The
// caller releases Ready afterwards.
func (s *Session) setResume(name, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidateName = &name
	s.resumePath = &path
}

// Resume returns the candidate name and resume path, if attached.
func (s *Session) Resume() (name, path string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.candidateName == nil || s.resumePath == nil {
		return "", "", false
	}
	return *s.candidateName, *s.resumePath, true
}

func (s *Session) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{SessionID: s.ID, Status: s.stage}
	if s.resumePath != nil {
		p := *s.resumePath
		st.ResumePath = &p
	}
	if s.candidateName != nil {
		n := *s.candidateName
		st.CandidateName = &n
	}
	return st
}

func (s *Session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

// Abort cancels the session's running stage.
func (s *Session) Abort() {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}
