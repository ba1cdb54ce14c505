package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryBackend keeps the question bank in process. It is used for tests,
// the console mode and deployments without Postgres.
type MemoryBackend struct {
	mu        sync.RWMutex
	questions map[string]Question
}

func NewMemoryBackend(qs ...Question) *MemoryBackend {
	m := &MemoryBackend{questions: map[string]Question{}}
	for _, q := range qs {
		m.questions[q.ID] = q
	}
	return m
}

func (m *MemoryBackend) Tagged(ctx context.Context, tag string, excluded []string) ([]Question, error) {
	skip := toSet(excluded)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Question
	for _, q := range m.questions {
		if skip.Has(q.ID) {
			continue
		}
		for _, t := range q.Tags {
			if t == tag {
				out = append(out, q)
				break
			}
		}
	}
	sortByID(out)
	return out, nil
}

func (m *MemoryBackend) Related(ctx context.Context, id string, excluded []string) ([]Candidate, error) {
	skip := toSet(excluded)
	m.mu.RLock()
	defer m.mu.RUnlock()

	cur, ok := m.questions[id]
	if !ok {
		return nil, nil
	}
	tags := toSet(cur.Tags)

	var out []Candidate
	for _, q := range m.questions {
		if q.ID == id || skip.Has(q.ID) {
			continue
		}
		shared := 0
		for _, t := range uniq(q.Tags) {
			if tags.Has(t) {
				shared++
			}
		}
		if shared > 0 {
			out = append(out, Candidate{Question: q, Shared: shared})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryBackend) ReplaceAll(ctx context.Context, qs []Question) error {
	next := make(map[string]Question, len(qs))
	for _, q := range qs {
		if _, dup := next[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		next[q.ID] = q
	}
	m.mu.Lock()
	m.questions = next
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.questions)
}

func toSet(ids []string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func uniq(tags []string) []string {
	return toSet(tags).Slice()
}

func sortByID(qs []Question) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
}
