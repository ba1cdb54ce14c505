package interview

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNoPendingQuestion = errors.New("no question is waiting for an answer")

// Message is one utterance in an Exchange.
type Message struct {
	Seq  int       `json:"seq"`
	Role string    `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

const (
	RoleInterviewer = "interviewer"
	RoleCandidate   = "candidate"
)

// Exchange is a Respondent driven over HTTP: the client polls Messages
// and posts answers with Answer.
type Exchange struct {
	mu       sync.Mutex
	messages []Message
	pending  string
	waiting  bool
	answers  chan string
}

func NewExchange() *Exchange {
	return &Exchange{answers: make(chan string, 1)}
}

func (e *Exchange) Say(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appendLocked(RoleInterviewer, text)
	return nil
}

func (e *Exchange) Ask(ctx context.Context, question string) (string, error) {
	e.mu.Lock()
	e.appendLocked(RoleInterviewer, question)
	e.pending = question
	e.waiting = true
	e.mu.Unlock()

	select {
	case a := <-e.answers:
		e.mu.Lock()
		e.waiting = false
		e.pending = ""
		e.appendLocked(RoleCandidate, a)
		e.mu.Unlock()
		return a, nil
	case <-ctx.Done():
		e.mu.Lock()
		e.waiting = false
		e.pending = ""
		e.mu.Unlock()
		return "", ctx.Err()
	}
}

// Answer delivers the candidate's answer to the pending question.
func (e *Exchange) Answer(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.waiting || len(e.answers) > 0 {
		return ErrNoPendingQuestion
	}
	e.answers <- text
	return nil
}

// Messages returns the messages with a sequence number above since, and
// the question currently awaiting an answer, if any.
func (e *Exchange) Messages(since int) ([]Message, string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := []Message{}
	for _, m := range e.messages {
		if m.Seq > since {
			out = append(out, m)
		}
	}
	waiting := e.waiting && len(e.answers) == 0
	if !waiting {
		return out, "", false
	}
	return out, e.pending, true
}

func (e *Exchange) appendLocked(role, text string) {
	e.messages = append(e.messages, Message{
		Seq:  len(e.messages) + 1,
		Role: role,
		Text: text,
		Time: time.Now().UTC(),
	})
}
