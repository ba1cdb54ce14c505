// Package transcript persists the question/answer record of one
// (session, topic) pair as a single JSON file.
package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config records which model conducted the dialogue.
type Config struct {
	ModelName   string  `json:"model_name"`
	Temperature float64 `json:"temperature"`
}

// Topic describes what the transcript is about.
type Topic struct {
	Name              string         `json:"name"`
	CodingLanguage    string         `json:"coding_language,omitempty"`
	PotentialPosition []string       `json:"potential_position,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
}

// Turn is one question and the answer given to it.
type Turn struct {
	TurnID    int       `json:"turn_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the on-disk form of a transcript.
type Record struct {
	SessionID     string     `json:"session_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Config        Config     `json:"config"`
	Type          string     `json:"type"`
	Topic         Topic      `json:"topic"`
	Conversations []Turn     `json:"conversations"`
}

// ErrCorrupt reports a transcript file that is not valid JSON.
var ErrCorrupt = errors.New("corrupt transcript")

// Transcript is an append-only turn log flushed to disk after every change.
type Transcript struct {
	mu        sync.Mutex
	path      string
	rec       Record
	discarded bool
}

// Open resumes the transcript at path when it belongs to sessionID.
// A file written by a different session, or one that cannot be decoded,
// is discarded and a fresh transcript replaces it.
func Open(path, sessionID, stage string, cfg Config) (*Transcript, error) {
	t := &Transcript{path: path}

	prev, err := Load(path)
	switch {
	case err == nil && prev.SessionID == sessionID:
		if prev.Conversations == nil {
			prev.Conversations = []Turn{}
		}
		t.rec = prev
		return t, nil
	case err == nil, errors.Is(err, ErrCorrupt):
		t.discarded = true
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	t.rec = Record{
		SessionID:     sessionID,
		StartTime:     time.Now().UTC(),
		Config:        cfg,
		Type:          stage,
		Conversations: []Turn{},
	}
	if err := t.flush(); err != nil {
		return nil, err
	}
	return t, nil
}

// Describe sets the topic block.
func (t *Transcript) Describe(topic Topic) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rec.Topic = topic
	return t.flush()
}

// AddTurn appends a turn with the next dense 1-based id.
func (t *Transcript) AddTurn(question, answer string) (Turn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	turn := Turn{
		TurnID:    len(t.rec.Conversations) + 1,
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now().UTC(),
	}
	t.rec.Conversations = append(t.rec.Conversations, turn)
	if err := t.flush(); err != nil {
		return Turn{}, err
	}
	return turn, nil
}

// End stamps the end time. Later calls keep the first stamp.
func (t *Transcript) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rec.EndTime != nil {
		return nil
	}
	now := time.Now().UTC()
	t.rec.EndTime = &now
	return t.flush()
}

// Record returns a copy of the current state.
func (t *Transcript) Record() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.rec
	rec.Conversations = append([]Turn{}, t.rec.Conversations...)
	if t.rec.EndTime != nil {
		end := *t.rec.EndTime
		rec.EndTime = &end
	}
	return rec
}

func (t *Transcript) Turns() []Turn {
	return t.Record().Conversations
}

// Discarded reports whether Open replaced another session's file or a
// corrupt one.
func (t *Transcript) Discarded() bool { return t.discarded }

// Load reads a transcript file.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading transcript %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return rec, nil
}

func (t *Transcript) flush() error {
	return WriteJSON(t.path, t.rec)
}

// WriteJSON writes v as indented JSON, replacing path atomically.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
