package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLLedger stores attempt records in the attempts table. The UNIQUE
// (assessment_id, learner_id, attempt_number) constraint is what enforces the
// no-reuse invariant when several gateway instances share one database.
type SQLLedger struct {
	db *sql.DB
}

func NewSQLLedger(db *sql.DB) *SQLLedger { return &SQLLedger{db: db} }

func (s *SQLLedger) AttemptsFor(ctx context.Context, learnerID, assessmentID string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,assessment_id,learner_id,attempt_number,started_at,completed_at,score_percent,passed,breakdown_json,expired,pending_manual
		FROM attempts WHERE learner_id=$1 AND assessment_id=$2 ORDER BY attempt_number`,
		learnerID, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AttemptRecord{}
	for rows.Next() {
		rec, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLLedger) Append(ctx context.Context, rec AttemptRecord) error {
	var bj []byte
	if rec.Breakdown != nil {
		var err error
		if bj, err = json.Marshal(rec.Breakdown); err != nil {
			return err
		}
	}
	var completed, score, passed any
	if rec.CompletedAt != nil {
		completed = rec.CompletedAt.Unix()
	}
	if rec.ScorePercent != nil {
		score = *rec.ScorePercent
	}
	if rec.Passed != nil {
		passed = *rec.Passed
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,assessment_id,learner_id,attempt_number,started_at,completed_at,score_percent,passed,breakdown_json,expired,pending_manual)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.AssessmentID, rec.LearnerID, rec.AttemptNumber,
		rec.StartedAt.Unix(), completed, score, passed, string(bj), rec.Expired, rec.PendingManual)
	if isUniqueViolation(err) {
		return ErrDuplicateAttempt
	}
	return err
}

func (s *SQLLedger) BestScore(ctx context.Context, learnerID, assessmentID string) (int, bool, error) {
	var best sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(score_percent) FROM attempts
		WHERE learner_id=$1 AND assessment_id=$2 AND completed_at IS NOT NULL`,
		learnerID, assessmentID).Scan(&best)
	if err != nil {
		return 0, false, err
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (AttemptRecord, error) {
	var rec AttemptRecord
	var started int64
	var completed, score sql.NullInt64
	var passed sql.NullBool
	var bj sql.NullString
	if err := row.Scan(&rec.ID, &rec.AssessmentID, &rec.LearnerID, &rec.AttemptNumber,
		&started, &completed, &score, &passed, &bj, &rec.Expired, &rec.PendingManual); err != nil {
		return AttemptRecord{}, err
	}
	rec.StartedAt = time.Unix(started, 0).UTC()
	if completed.Valid {
		t := time.Unix(completed.Int64, 0).UTC()
		rec.CompletedAt = &t
	}
	if score.Valid {
		v := int(score.Int64)
		rec.ScorePercent = &v
	}
	if passed.Valid {
		v := passed.Bool
		rec.Passed = &v
	}
	if bj.Valid && bj.String != "" {
		if err := json.Unmarshal([]byte(bj.String), &rec.Breakdown); err != nil {
			return AttemptRecord{}, err
		}
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// modernc sqlite reports constraint failures by message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
