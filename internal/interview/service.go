package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Divas-Gupta30/interview-agent/internal/ingestion"
	"github.com/Divas-Gupta30/interview-agent/internal/processing"
	"github.com/Divas-Gupta30/interview-agent/internal/report"
	"github.com/Divas-Gupta30/interview-agent/internal/transcript"
)

var (
	ErrNotPDF     = errors.New("only PDF files are accepted")
	ErrNoExchange = errors.New("session is not answered over HTTP")
)

// ReportArchive serves the reports of sessions this process no longer holds.
type ReportArchive interface {
	Reports(ctx context.Context, sessionID string) (map[string]json.RawMessage, error)
}

// ResumeParser turns an uploaded PDF into a structured resume.
type ResumeParser interface {
	Parse(ctx context.Context, path string) (*ingestion.Parsed, error)
}

// Service owns the live sessions and the goroutines running them.
type Service struct {
	store    Store
	machine  *Machine
	parser   ResumeParser
	dataRoot string
	mirror   StatusMirror
	archive  ReportArchive
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type ServiceOption func(*Service)

func WithStore(s Store) ServiceOption {
	return func(svc *Service) { svc.store = s }
}

func WithMirror(m StatusMirror) ServiceOption {
	return func(svc *Service) { svc.mirror = m }
}

func WithReportArchive(a ReportArchive) ServiceOption {
	return func(svc *Service) { svc.archive = a }
}

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(svc *Service) { svc.logger = l }
}

func NewService(dataRoot string, machine *Machine, parser ResumeParser, opts ...ServiceOption) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		store:    NewMemoryStore(),
		machine:  machine,
		parser:   parser,
		dataRoot: dataRoot,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start creates a session with its directory layout and starts its state
// machine. A nil respondent gives the session an Exchange.
func (s *Service) Start(resp Respondent) (*Session, error) {
	if resp == nil {
		resp = NewExchange()
	}
	id := uuid.NewString()
	layout := NewLayout(s.dataRoot, id)
	if err := layout.Create(); err != nil {
		return nil, err
	}

	sess := NewSession(id, layout, resp)
	if err := s.store.Create(sess); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(s.ctx)
	sess.setCancel(cancel)

	s.logger.Info("session created", "session_id", id)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.machine.Run(ctx, sess)
	}()
	return sess, nil
}

func (s *Service) Session(id string) (*Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// IngestResume parses an uploaded PDF, saves the structured resume as
// <session root>/<upload stem>.json and attaches it to the session. On
// error the session is left untouched.
func (s *Service) IngestResume(ctx context.Context, id, filename string, r io.Reader) (*ingestion.Parsed, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, filename)
	}

	tmp, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("storing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	parsed, err := s.parser.Parse(ctx, tmp.Name())
	if err != nil {
		return nil, err
	}

	stem := processing.SanitizeName(strings.Split(filepath.Base(filename), ".")[0])
	savePath := filepath.Join(sess.Layout.Root, stem+".json")
	if err := transcript.WriteJSON(savePath, parsed.Raw); err != nil {
		return nil, err
	}

	// the mirror must hold the resume before the machine can leave initial
	sess.setResume(parsed.Resume.Name, savePath)
	if s.mirror != nil {
		if err := s.mirror.Publish(ctx, sess.Snapshot()); err != nil {
			s.logger.Warn("publishing session status failed", "session_id", id, "error", err)
		}
	}
	sess.Ready.Set()
	s.logger.Info("resume attached", "session_id", id, "path", savePath)
	return parsed, nil
}

// Status reports a session's state. Sessions unknown to this process are
// looked up in the status mirror.
func (s *Service) Status(ctx context.Context, id string) (Status, bool) {
	if sess, ok := s.store.Get(id); ok {
		return sess.Snapshot(), true
	}
	if s.mirror == nil {
		return Status{}, false
	}
	st, ok, err := s.mirror.Lookup(ctx, id)
	if err != nil {
		s.logger.Warn("status mirror lookup failed", "session_id", id, "error", err)
		return Status{}, false
	}
	return st, ok
}

// Exchange returns the HTTP respondent of a session.
func (s *Service) Exchange(id string) (*Exchange, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	ex, ok := sess.Respondent.(*Exchange)
	if !ok {
		return nil, ErrNoExchange
	}
	return ex, nil
}

// Reports returns the reports written so far, keyed by topic. Sessions
// unknown to this process are looked up in the report archive.
func (s *Service) Reports(ctx context.Context, id string) (map[string]json.RawMessage, error) {
	sess, err := s.Session(id)
	if err == nil {
		return report.LoadAll(sess.Layout.Summary)
	}
	if s.archive == nil {
		return nil, err
	}
	reports, aerr := s.archive.Reports(ctx, id)
	if aerr != nil {
		return nil, fmt.Errorf("reading archived reports: %w", aerr)
	}
	if len(reports) == 0 {
		return nil, err
	}
	return reports, nil
}

// Abort cancels a session; its machine moves it to end.
func (s *Service) Abort(id string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.Abort()
	return nil
}

// Wait blocks until every started session has reached end.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown aborts all sessions and waits for them, or for ctx.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
