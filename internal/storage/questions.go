package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Divas-Gupta30/interview-agent/internal/graph"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
)

const questionSchema = `
CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	answer TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS question_tags (
	question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	tag TEXT NOT NULL,
	PRIMARY KEY (question_id, tag)
);

CREATE INDEX IF NOT EXISTS question_tags_tag_idx ON question_tags (tag);
`

const taggedQuery = `
SELECT q.id, q.text, q.answer,
	ARRAY(SELECT t.tag FROM question_tags t WHERE t.question_id = q.id ORDER BY t.tag)
FROM questions q
JOIN question_tags qt ON qt.question_id = q.id
WHERE qt.tag = $1 AND NOT (q.id = ANY($2))
ORDER BY q.id`

const relatedQuery = `
SELECT q.id, q.text, q.answer, count(*) AS shared
FROM question_tags cur
JOIN question_tags rel ON rel.tag = cur.tag
JOIN questions q ON q.id = rel.question_id
WHERE cur.question_id = $1
	AND rel.question_id <> $1
	AND NOT (rel.question_id = ANY($2))
GROUP BY q.id, q.text, q.answer
ORDER BY q.id`

// QuestionStore is the Postgres question graph backend.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, questionSchema); err != nil {
		return fmt.Errorf("creating question tables: %w", err)
	}
	return nil
}

func (s *QuestionStore) Tagged(ctx context.Context, tag string, excluded []string) ([]graph.Question, error) {
	rows, err := s.pool.Query(ctx, taggedQuery, tag, nonNil(excluded))
	if err != nil {
		return nil, classify(fmt.Errorf("querying tagged questions: %w", err))
	}
	defer rows.Close()

	var out []graph.Question
	for rows.Next() {
		var q graph.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Answer, &q.Tags); err != nil {
			return nil, classify(err)
		}
		out = append(out, q)
	}
	return out, classify(rows.Err())
}

func (s *QuestionStore) Related(ctx context.Context, id string, excluded []string) ([]graph.Candidate, error) {
	rows, err := s.pool.Query(ctx, relatedQuery, id, nonNil(excluded))
	if err != nil {
		return nil, classify(fmt.Errorf("querying related questions: %w", err))
	}
	defer rows.Close()

	var out []graph.Candidate
	for rows.Next() {
		var c graph.Candidate
		if err := rows.Scan(&c.ID, &c.Text, &c.Answer, &c.Shared); err != nil {
			return nil, classify(err)
		}
		out = append(out, c)
	}
	return out, classify(rows.Err())
}

// ReplaceAll swaps the whole question bank in one transaction.
func (s *QuestionStore) ReplaceAll(ctx context.Context, questions []graph.Question) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE question_tags, questions"); err != nil {
		return fmt.Errorf("clearing questions: %w", err)
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue("INSERT INTO questions (id, text, answer) VALUES ($1, $2, $3)", q.ID, q.Text, q.Answer)
		for _, tag := range q.Tags {
			batch.Queue("INSERT INTO question_tags (question_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING", q.ID, tag)
		}
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("importing questions: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("importing questions: %w", err)
	}
	return tx.Commit(ctx)
}

// nonNil keeps "= ANY($2)" from comparing against NULL.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// classify marks errors pgx considers safe to retry as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", result.ErrTransient, err)
	}
	return err
}
