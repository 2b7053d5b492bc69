package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/forerkortet/forerkortet/internal/model"
)

// CreateIssuedTest records a test handed out to a user.
func (s *Store) CreateIssuedTest(t model.IssuedTest) error {
	qs, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO issued_tests (id, user_id, questions, started_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.UserID, string(qs), t.StartedAt.UTC(),
	)
	return err
}

// GetIssuedTest returns an open test by ID.
func (s *Store) GetIssuedTest(id string) (model.IssuedTest, error) {
	var t model.IssuedTest
	var qs string
	err := s.db.QueryRow(
		`SELECT id, user_id, questions, started_at FROM issued_tests WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &qs, &t.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("test %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(qs), &t.Questions); err != nil {
		return t, fmt.Errorf("decode questions for test %s: %w", id, err)
	}
	return t, nil
}

// CleanupIssuedTests removes open tests started before cutoff.
func (s *Store) CleanupIssuedTests(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM issued_tests WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SubmitIssuedTest closes the open test r.ID and saves its result in one
// transaction. It returns ErrNotFound when the test is no longer open, so a
// test can be submitted only once.
func (s *Store) SubmitIssuedTest(r model.TestResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM issued_tests WHERE id = ? AND user_id = ?`, r.ID, r.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("test %s: %w", r.ID, model.ErrNotFound)
	}
	if err := insertResult(tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteUserIssuedTests removes every open test of a user.
func (s *Store) DeleteUserIssuedTests(userID int64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM issued_tests WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
