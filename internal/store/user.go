package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/mindwellhq/mindwell/internal/model"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(u model.User) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO users (name, email, password_hash, age, gender, consent_accepted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.Age, u.Gender, u.ConsentAccepted, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "email", u.Email)
	return id, nil
}

// GetUserByEmail returns a user by email, or nil if not found.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	return s.getUser(`SELECT id, name, email, password_hash, age, gender, consent_accepted, consent_accepted_at, created_at
		 FROM users WHERE email = ?`, email)
}

// GetUserByID returns a user by ID, or nil if not found.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	return s.getUser(`SELECT id, name, email, password_hash, age, gender, consent_accepted, consent_accepted_at, created_at
		 FROM users WHERE id = ?`, id)
}

func (s *Store) getUser(query string, arg any) (*model.User, error) {
	var u model.User
	var consentAt sql.NullTime
	err := s.db.QueryRow(query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Age, &u.Gender,
		&u.ConsentAccepted, &consentAt, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if consentAt.Valid {
		u.ConsentAcceptedAt = &consentAt.Time
	}
	return &u, nil
}

// AcceptConsent marks the user's consent as accepted. The mutation is
// one-shot in practice; repeating it only refreshes the timestamp.
func (s *Store) AcceptConsent(userID int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET consent_accepted = 1, consent_accepted_at = ? WHERE id = ?`,
		time.Now(), userID,
	)
	return err
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
