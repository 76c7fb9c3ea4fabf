package store

import (
	"database/sql"
	"time"

	"github.com/mindwellhq/mindwell/internal/model"
)

// CreateAttempt inserts an attempt with its ordered answers in one
// transaction.
func (s *Store) CreateAttempt(a model.TestAttempt) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO test_attempts
		 (id, user_id, test_type, mcq_completed, mcq_skipped, subjective_completed, is_real_patient_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.TestType, a.MCQCompleted, a.MCQSkipped,
		a.SubjectiveCompleted, a.IsRealPatientData, a.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i, ans := range a.MCQAnswers {
		_, err := tx.Exec(
			`INSERT INTO mcq_answers (attempt_id, position, question_id, answer, score)
			 VALUES (?, ?, ?, ?, ?)`,
			a.ID, i, ans.QuestionID, ans.Answer, ans.Score,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetAttempt returns an attempt with its answers, or nil if not found.
func (s *Store) GetAttempt(id string) (*model.TestAttempt, error) {
	var a model.TestAttempt
	var completedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, user_id, test_type, mcq_completed, mcq_skipped, subjective_completed,
		        is_real_patient_data, created_at, completed_at
		 FROM test_attempts WHERE id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.TestType, &a.MCQCompleted, &a.MCQSkipped,
		&a.SubjectiveCompleted, &a.IsRealPatientData, &a.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	if a.MCQAnswers, err = s.answersForAttempt(a.ID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) answersForAttempt(attemptID string) ([]model.MCQAnswer, error) {
	rows, err := s.db.Query(
		`SELECT question_id, answer, score FROM mcq_answers
		 WHERE attempt_id = ? ORDER BY position`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.MCQAnswer
	for rows.Next() {
		var ans model.MCQAnswer
		if err := rows.Scan(&ans.QuestionID, &ans.Answer, &ans.Score); err != nil {
			return nil, err
		}
		answers = append(answers, ans)
	}
	return answers, rows.Err()
}

// ListRecentAttempts returns the user's newest attempts, answers included.
func (s *Store) ListRecentAttempts(userID int64, limit int) ([]model.TestAttempt, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, test_type, mcq_completed, mcq_skipped, subjective_completed,
		        is_real_patient_data, created_at, completed_at
		 FROM test_attempts WHERE user_id = ?
		 ORDER BY created_at DESC, id LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.TestAttempt
	for rows.Next() {
		var a model.TestAttempt
		var completedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.UserID, &a.TestType, &a.MCQCompleted, &a.MCQSkipped,
			&a.SubjectiveCompleted, &a.IsRealPatientData, &a.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			a.CompletedAt = &completedAt.Time
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range attempts {
		if attempts[i].MCQAnswers, err = s.answersForAttempt(attempts[i].ID); err != nil {
			return nil, err
		}
	}
	return attempts, nil
}

// CompleteSubjective marks the attempt's subjective stage as done.
// Calling it again re-sets the same fields, so the operation is idempotent.
func (s *Store) CompleteSubjective(id string) error {
	_, err := s.db.Exec(
		`UPDATE test_attempts SET subjective_completed = 1, completed_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	return err
}

// ListAllAttempts returns every attempt, newest first. Used by export.
func (s *Store) ListAllAttempts() ([]model.TestAttempt, error) {
	rows, err := s.db.Query(
		`SELECT id FROM test_attempts ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var attempts []model.TestAttempt
	for _, id := range ids {
		a, err := s.GetAttempt(id)
		if err != nil {
			return nil, err
		}
		if a != nil {
			attempts = append(attempts, *a)
		}
	}
	return attempts, nil
}
