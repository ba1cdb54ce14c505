package storage

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/interview-agent/internal/report"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
)

func TestStatusKey(t *testing.T) {
	assert.Equal(t, "interview:status:abc", statusKey("abc"))
}

func TestNonNil(t *testing.T) {
	assert.Equal(t, []string{}, nonNil(nil))
	assert.Equal(t, []string{"a"}, nonNil([]string{"a"}))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := errors.New("syntax")
	assert.Equal(t, plain, classify(plain))
	assert.NotErrorIs(t, classify(plain), result.ErrTransient)

	pgErr := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, result.KindFatal, result.Classify(classify(pgErr)))
}

func TestArchiveRow(t *testing.T) {
	ev := report.Evaluation{
		Summary: report.Summary{
			OverallEvaluation: "扎实",
			Strengths:         []string{"基础好"},
		},
		ScoresByTurn: []report.Score{{TurnID: 1, Score: 6}, {TurnID: 2, Score: 8}},
	}
	row, err := archiveRow("s1", "theory", ev)
	require.NoError(t, err)
	require.Len(t, row, 10)
	assert.Equal(t, "s1", row[0])
	assert.Equal(t, "theory", row[1])
	assert.Equal(t, "ok", row[2])
	assert.Equal(t, "扎实", row[3])
	assert.Equal(t, 14.0, row[7])
	assert.Equal(t, 20, row[8])

	var back report.Evaluation
	require.NoError(t, json.Unmarshal(row[9].([]byte), &back))
	assert.Equal(t, ev.ScoresByTurn, back.ScoresByTurn)

	row, err = archiveRow("s1", "project_X", report.Evaluation{Status: report.StatusFailed, Error: "boom"})
	require.NoError(t, err)
	assert.Equal(t, report.StatusFailed, row[2])
}
