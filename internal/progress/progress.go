// Package progress aggregates a user's finished tests into statistics and
// unlocks achievements.
package progress

import (
	"context"
	"sort"
	"time"

	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/scoring"
)

// Stats aggregates results. now anchors the practice streak.
func Stats(results []model.TestResult, now time.Time) model.UserStats {
	st := model.UserStats{
		TotalTests:        len(results),
		CategoryBreakdown: make(map[string]model.CategoryScore),
	}
	for _, r := range results {
		st.TotalQuestions += r.TotalQuestions
		st.CorrectAnswers += r.Score
		st.TotalTime += r.Duration
		if r.TotalQuestions > 0 && r.Score == r.TotalQuestions {
			st.PerfectTests++
		}
		if pct := scoring.Percentage(r.Score, r.TotalQuestions); pct > st.BestScore {
			st.BestScore = pct
		}
		for cat, cs := range r.CategoryBreakdown {
			agg := st.CategoryBreakdown[cat]
			agg.Correct += cs.Correct
			agg.Total += cs.Total
			st.CategoryBreakdown[cat] = agg
		}
	}
	st.AverageScore = scoring.Percentage(st.CorrectAnswers, st.TotalQuestions)
	st.Streak = Streak(results, now)
	return st
}

// Streak counts consecutive UTC calendar days with at least one test. The
// run must include today or yesterday, otherwise the streak is broken.
func Streak(results []model.TestResult, now time.Time) int {
	if len(results) == 0 {
		return 0
	}
	days := make(map[time.Time]bool, len(results))
	for _, r := range results {
		days[truncateDay(r.Date)] = true
	}

	day := truncateDay(now)
	if !days[day] {
		day = day.AddDate(0, 0, -1)
		if !days[day] {
			return 0
		}
	}
	streak := 0
	for days[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StreakLabel renders a streak as localized text.
func StreakLabel(ctx context.Context, days int) string {
	return appI18n.Tp(ctx, "StreakDays", days)
}

var resultMessages = []struct {
	min   int
	msgID string
}{
	{90, "ResultExcellent"},
	{80, "ResultGreat"},
	{70, "ResultGood"},
	{60, "ResultFair"},
	{50, "ResultHalfway"},
}

// ResultMessage returns the celebration text shown for a single finished test.
func ResultMessage(ctx context.Context, score, total int) string {
	pct := scoring.Percentage(score, total)
	if pct == 100 {
		return appI18n.T(ctx, "ResultPerfect")
	}
	for _, m := range resultMessages {
		if pct >= m.min {
			return appI18n.T(ctx, m.msgID)
		}
	}
	return appI18n.T(ctx, "ResultKeepGoing")
}

// SortNewestFirst orders results by date, newest first.
func SortNewestFirst(results []model.TestResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Date.After(results[j].Date)
	})
}
