package model

import "time"

// Submission is one answer as sent by a client; correctness is decided server side.
type Submission struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer int    `json:"selected_answer"`
	TimeSpent      int64  `json:"time_spent_ms"`
}

// NewTestResult grades submissions against questions and builds a finished test.
// Submissions for unknown questions are dropped. The total is the number of
// questions presented, so unanswered questions count as wrong.
func NewTestResult(id string, userID int64, questions []Question, subs []Submission, started, finished time.Time) TestResult {
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	res := TestResult{
		ID:                id,
		UserID:            userID,
		Date:              finished,
		TotalQuestions:    len(questions),
		CategoryBreakdown: make(map[string]CategoryScore),
	}
	if d := finished.Sub(started).Milliseconds(); d > 0 {
		res.Duration = d
	}

	seen := make(map[string]bool, len(subs))
	for _, s := range subs {
		q, ok := byID[s.QuestionID]
		if !ok || seen[s.QuestionID] {
			continue
		}
		seen[s.QuestionID] = true

		a := Answer{
			QuestionID:     s.QuestionID,
			SelectedAnswer: s.SelectedAnswer,
			IsCorrect:      q.Grade(s.SelectedAnswer),
			TimeSpent:      s.TimeSpent,
		}
		res.Answers = append(res.Answers, a)

		cs := res.CategoryBreakdown[q.Category]
		cs.Total++
		if a.IsCorrect {
			cs.Correct++
			res.Score++
		}
		res.CategoryBreakdown[q.Category] = cs
	}
	return res
}
