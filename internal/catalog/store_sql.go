package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore persists definitions with questions as a JSON column, one row per
// assessment. Works against sqlite and postgres (placeholders are $n; the
// modernc sqlite driver accepts them).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutDefinition(d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	qj, err := json.Marshal(d.Questions)
	if err != nil {
		return err
	}
	var deadline *int64
	if d.Deadline != nil {
		u := d.Deadline.Unix()
		deadline = &u
	}
	_, err = s.db.Exec(`INSERT INTO assessments
		(id,course_id,title,type,questions_json,time_limit_sec,max_attempts,passing_score_percent,deadline,retake_cooldown_days,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
		  course_id=EXCLUDED.course_id, title=EXCLUDED.title, type=EXCLUDED.type,
		  questions_json=EXCLUDED.questions_json, time_limit_sec=EXCLUDED.time_limit_sec,
		  max_attempts=EXCLUDED.max_attempts, passing_score_percent=EXCLUDED.passing_score_percent,
		  deadline=EXCLUDED.deadline, retake_cooldown_days=EXCLUDED.retake_cooldown_days`,
		d.ID, d.CourseID, d.Title, string(d.Type), string(qj), d.TimeLimitSec,
		d.MaxAttempts, d.PassingScorePercent, deadline, d.RetakeCooldownDays, time.Now().Unix())
	return err
}

func (s *SQLStore) GetDefinition(id string) (Definition, error) {
	row := s.db.QueryRow(`SELECT id,course_id,title,type,questions_json,time_limit_sec,max_attempts,passing_score_percent,deadline,retake_cooldown_days
		FROM assessments WHERE id=$1`, id)
	var d Definition
	var typ, qjson string
	var deadline sql.NullInt64
	if err := row.Scan(&d.ID, &d.CourseID, &d.Title, &typ, &qjson, &d.TimeLimitSec,
		&d.MaxAttempts, &d.PassingScorePercent, &deadline, &d.RetakeCooldownDays); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Definition{}, ErrNotFound
		}
		return Definition{}, err
	}
	d.Type = AssessmentType(typ)
	if deadline.Valid {
		t := time.Unix(deadline.Int64, 0).UTC()
		d.Deadline = &t
	}
	if err := json.Unmarshal([]byte(qjson), &d.Questions); err != nil {
		return Definition{}, err
	}
	return d, nil
}

func (s *SQLStore) ListDefinitions(opts ListOpts) ([]Summary, error) {
	q := `SELECT id,course_id,title,type,questions_json,time_limit_sec FROM assessments`
	args := []any{}
	if opts.CourseID != "" {
		q += ` WHERE course_id=$1`
		args = append(args, opts.CourseID)
	}
	q += ` ORDER BY id`
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var typ, qjson string
		if err := rows.Scan(&sm.ID, &sm.CourseID, &sm.Title, &typ, &qjson, &sm.TimeLimitSec); err != nil {
			return nil, err
		}
		sm.Type = AssessmentType(typ)
		var qs []Question
		if err := json.Unmarshal([]byte(qjson), &qs); err == nil {
			sm.QuestionCount = len(qs)
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page(out, opts.Limit, opts.Offset), nil
}
