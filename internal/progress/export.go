package progress

import (
	"fmt"
	"time"

	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/scoring"
)

// ResultSource lists users and their finished tests.
type ResultSource interface {
	ListUsers() ([]model.User, error)
	ListResults(userID int64) ([]model.TestResult, error)
}

// Export collects every user's results with computed score facts.
// Users without finished tests are left out. Each user's tests are listed
// newest first.
func Export(src ResultSource, now time.Time) (model.ResultsExport, error) {
	out := model.ResultsExport{ExportedAt: now.UTC(), Results: []model.UserResults{}}

	users, err := src.ListUsers()
	if err != nil {
		return out, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		results, err := src.ListResults(u.ID)
		if err != nil {
			return out, fmt.Errorf("list results for %s: %w", u.Username, err)
		}
		if len(results) == 0 {
			continue
		}
		SortNewestFirst(results)

		ur := model.UserResults{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Stats:       Stats(results, now),
			Tests:       make([]model.ResultExport, 0, len(results)),
		}
		for _, r := range results {
			pct := scoring.Percentage(r.Score, r.TotalQuestions)
			ur.Tests = append(ur.Tests, model.ResultExport{
				TestResult: r,
				Percentage: pct,
				Passed:     scoring.Passed(pct),
				Color:      scoring.ScoreColor(pct),
			})
		}
		out.Results = append(out.Results, ur)
		out.NumResults += len(results)
	}
	return out, nil
}
