package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mbolis/field-survey/model"
)

// Store is the local journal: the operator identity and a log of every
// submission attempt made from this device.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

// LoadOperator returns the last saved operator, or ok=false on a fresh device.
func (s *Store) LoadOperator(ctx context.Context) (op model.Operator, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT surveyor_name, surveyor_mobile
		FROM operator
		WHERE id = 1`,
	).Scan(&op.SurveyorName, &op.SurveyorMobile)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Operator{}, false, nil
	}
	if err != nil {
		return model.Operator{}, false, fmt.Errorf("db.load_operator: %w", err)
	}
	return op, true, nil
}

func (s *Store) SaveOperator(ctx context.Context, op model.Operator) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operator (id, surveyor_name, surveyor_mobile)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			surveyor_name = excluded.surveyor_name,
			surveyor_mobile = excluded.surveyor_mobile,
			updated_at = CURRENT_TIMESTAMP`,
		op.SurveyorName, op.SurveyorMobile,
	)
	if err != nil {
		return fmt.Errorf("db.save_operator: %w", err)
	}
	return nil
}

func (s *Store) RecordAttempt(ctx context.Context, a model.SubmissionAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submission_attempt
			(id, session_id, attempted_at, outcome, message, interviewer_name, ward)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.Time.UTC(), string(a.Outcome), a.Message, a.InterviewerName, a.Ward,
	)
	if err != nil {
		return fmt.Errorf("db.record_attempt: %w", err)
	}
	return nil
}

// RecentAttempts lists up to limit attempts, newest first.
func (s *Store) RecentAttempts(ctx context.Context, limit int) ([]model.SubmissionAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, attempted_at, outcome, message, interviewer_name, ward
		FROM submission_attempt
		ORDER BY attempted_at DESC, rowid DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("db.recent_attempts: %w", err)
	}
	defer rows.Close()

	attempts := []model.SubmissionAttempt{}
	for rows.Next() {
		var a model.SubmissionAttempt
		var outcome string
		err = rows.Scan(&a.ID, &a.SessionID, &a.Time, &outcome, &a.Message, &a.InterviewerName, &a.Ward)
		if err != nil {
			return nil, fmt.Errorf("db.recent_attempts.scan: %w", err)
		}
		a.Outcome = model.Outcome(outcome)
		attempts = append(attempts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.recent_attempts: %w", err)
	}
	return attempts, nil
}
