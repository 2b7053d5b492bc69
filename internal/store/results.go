package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/forerkortet/forerkortet/internal/model"
)

const resultColumns = `id, user_id, date, score, total_questions, duration_ms, answers, category_breakdown`

func scanResult(row scanner) (model.TestResult, error) {
	var r model.TestResult
	var answers, breakdown string
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &r.Score, &r.TotalQuestions, &r.Duration, &answers, &breakdown); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return r, fmt.Errorf("decode answers for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(breakdown), &r.CategoryBreakdown); err != nil {
		return r, fmt.Errorf("decode category breakdown for %s: %w", r.ID, err)
	}
	return r, nil
}

func insertResult(tx *sql.Tx, r model.TestResult) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	if r.Answers == nil {
		answers = []byte("[]")
	}
	breakdown, err := json.Marshal(r.CategoryBreakdown)
	if err != nil {
		return err
	}
	if r.CategoryBreakdown == nil {
		breakdown = []byte("{}")
	}
	_, err = tx.Exec(
		`INSERT INTO test_results (`+resultColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Date.UTC(), r.Score, r.TotalQuestions, r.Duration, string(answers), string(breakdown),
	)
	return err
}

// GetResult returns a finished test by ID.
func (s *Store) GetResult(id string) (model.TestResult, error) {
	r, err := scanResult(s.db.QueryRow(`SELECT `+resultColumns+` FROM test_results WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("result %s: %w", id, model.ErrNotFound)
	}
	return r, err
}

// ListResults returns a user's finished tests, newest first.
func (s *Store) ListResults(userID int64) ([]model.TestResult, error) {
	rows, err := s.db.Query(
		`SELECT `+resultColumns+` FROM test_results WHERE user_id = ? ORDER BY date DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.TestResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
