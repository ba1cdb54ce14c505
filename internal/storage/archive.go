package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Divas-Gupta30/interview-agent/internal/report"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS stage_reports (
	id SERIAL PRIMARY KEY,
	session_id VARCHAR(64) NOT NULL,
	topic VARCHAR(255) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'ok',
	overall_evaluation TEXT,
	strengths TEXT[],
	areas_for_improvement TEXT[],
	final_recommendation TEXT,
	total_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	full_score INTEGER NOT NULL DEFAULT 0,
	report JSONB NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (session_id, topic)
);`

const upsertReport = `
INSERT INTO stage_reports
	(session_id, topic, status, overall_evaluation, strengths, areas_for_improvement,
	 final_recommendation, total_score, full_score, report)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (session_id, topic) DO UPDATE SET
	status = EXCLUDED.status,
	overall_evaluation = EXCLUDED.overall_evaluation,
	strengths = EXCLUDED.strengths,
	areas_for_improvement = EXCLUDED.areas_for_improvement,
	final_recommendation = EXCLUDED.final_recommendation,
	total_score = EXCLUDED.total_score,
	full_score = EXCLUDED.full_score,
	report = EXCLUDED.report`

// Archive mirrors stage reports into Postgres through database/sql.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenArchive connects and creates the reports table.
func OpenArchive(ctx context.Context, url string, logger *slog.Logger) (*Archive, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to report archive: %w", err)
	}
	if _, err := db.ExecContext(ctx, archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating report archive table: %w", err)
	}
	logger.Info("connected to report archive")
	return &Archive{db: db, logger: logger}, nil
}

func (a *Archive) Save(ctx context.Context, sessionID, topic string, ev report.Evaluation) error {
	row, err := archiveRow(sessionID, topic, ev)
	if err != nil {
		return err
	}
	if _, err := a.db.ExecContext(ctx, upsertReport, row...); err != nil {
		return fmt.Errorf("archiving %s/%s: %w", sessionID, topic, err)
	}
	a.logger.Debug("report archived", "session_id", sessionID, "topic", topic)
	return nil
}

// Reports returns the archived reports of a session keyed by topic.
func (a *Archive) Reports(ctx context.Context, sessionID string) (map[string]json.RawMessage, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT topic, report
		FROM stage_reports
		WHERE session_id = $1
		ORDER BY topic`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var topic string
		var raw []byte
		if err := rows.Scan(&topic, &raw); err != nil {
			return nil, err
		}
		out[topic] = raw
	}
	return out, rows.Err()
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func archiveRow(sessionID, topic string, ev report.Evaluation) ([]any, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	status := ev.Status
	if status == "" {
		status = "ok"
	}
	s := ev.Summary
	return []any{
		sessionID, topic, status, s.OverallEvaluation,
		pq.Array(s.Strengths), pq.Array(s.AreasForImprovement),
		s.FinalRecommendation, ev.Total(), ev.FullScore(), body,
	}, nil
}
