// Package graph selects interview questions from a tag-labelled question
// bank. A Backend answers the two query shapes the interview needs; Graph
// adds uniform random sampling and relatedness ranking on top of it.
package graph

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/metrics"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
)

// DefaultTopK is how many of the most related questions a hop chooses from.
const DefaultTopK = 5

type Question struct {
	ID     string   `json:"id"`
	Text   string   `json:"question"`
	Answer string   `json:"answer,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Candidate is a question sharing Shared tags with a reference question.
type Candidate struct {
	Question
	Shared int
}

// Backend is the storage behind a Graph. Implementations return every
// eligible row; ordering and randomness are applied by Graph.
type Backend interface {
	// Tagged returns questions carrying tag whose ids are not in excluded.
	Tagged(ctx context.Context, tag string, excluded []string) ([]Question, error)
	// Related returns questions sharing at least one tag with id, other
	// than id itself and the excluded ids.
	Related(ctx context.Context, id string, excluded []string) ([]Candidate, error)
}

// Importer replaces the whole question bank in one step.
type Importer interface {
	ReplaceAll(ctx context.Context, questions []Question) error
}

// IDSet is a set of question ids. It only grows during a stage.
type IDSet map[string]struct{}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the ids sorted, never nil.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type Option func(*Graph)

// WithRand makes sampling reproducible.
func WithRand(r *rand.Rand) Option {
	return func(g *Graph) { g.rng = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// Graph is safe for concurrent use.
type Graph struct {
	backend Backend
	logger  *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func New(b Backend, opts ...Option) *Graph {
	g := &Graph{backend: b}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

func (g *Graph) log(ctx context.Context) *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return applog.FromContext(ctx)
}

// SampleByTag picks uniformly among questions tagged tag that are not in
// excluded. It returns a not-found result when none remain.
func (g *Graph) SampleByTag(ctx context.Context, tag string, excluded IDSet) result.Result[Question] {
	qs, err := g.backend.Tagged(ctx, tag, excluded.Slice())
	if err != nil {
		res := result.FromError[Question](err)
		g.log(ctx).Error("sampling question by tag failed", "tag", tag, "kind", res.Kind, "error", err)
		metrics.ExternalCallsTotal.WithLabelValues("graph", res.Kind.String()).Inc()
		return res
	}

	eligible := qs[:0:0]
	for _, q := range qs {
		if !excluded.Has(q.ID) {
			eligible = append(eligible, q)
		}
	}
	if len(eligible) == 0 {
		metrics.ExternalCallsTotal.WithLabelValues("graph", result.KindNotFound.String()).Inc()
		return result.None[Question]()
	}
	metrics.ExternalCallsTotal.WithLabelValues("graph", result.KindOK.String()).Inc()
	return result.Ok(eligible[g.intN(len(eligible))])
}

// SampleRelated ranks questions sharing a tag with id by the number of
// shared tags, keeps the topK best and picks one of them uniformly. Ties
// at the cut-off are broken at random.
func (g *Graph) SampleRelated(ctx context.Context, id string, excluded IDSet, topK int) result.Result[Question] {
	if topK <= 0 {
		topK = DefaultTopK
	}
	cands, err := g.backend.Related(ctx, id, excluded.Slice())
	if err != nil {
		res := result.FromError[Question](err)
		g.log(ctx).Error("sampling related question failed", "question_id", id, "kind", res.Kind, "error", err)
		metrics.ExternalCallsTotal.WithLabelValues("graph", res.Kind.String()).Inc()
		return res
	}

	eligible := cands[:0:0]
	for _, c := range cands {
		if c.ID != id && c.Shared > 0 && !excluded.Has(c.ID) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		metrics.ExternalCallsTotal.WithLabelValues("graph", result.KindNotFound.String()).Inc()
		return result.None[Question]()
	}

	g.mu.Lock()
	g.rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	g.mu.Unlock()
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Shared > eligible[j].Shared
	})
	if len(eligible) > topK {
		eligible = eligible[:topK]
	}

	metrics.ExternalCallsTotal.WithLabelValues("graph", result.KindOK.String()).Inc()
	return result.Ok(eligible[g.intN(len(eligible))].Question)
}

func (g *Graph) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}
