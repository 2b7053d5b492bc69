package progress

import (
	"context"
	"testing"
	"time"

	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
	"github.com/forerkortet/forerkortet/internal/model"
)

var now = time.Date(2026, 5, 17, 15, 0, 0, 0, time.UTC)

func nbCtx(t *testing.T) context.Context {
	t.Helper()
	if err := appI18n.Init("nb"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer("nb"))
}

func result(daysAgo, score, total int) model.TestResult {
	return model.TestResult{
		Date:           now.AddDate(0, 0, -daysAgo),
		Score:          score,
		TotalQuestions: total,
		Duration:       60000,
	}
}

func TestStats(t *testing.T) {
	results := []model.TestResult{
		result(0, 10, 10),
		result(1, 8, 10),
		result(1, 7, 9),
		result(5, 0, 0),
	}
	results[0].CategoryBreakdown = map[string]model.CategoryScore{"skilt": {Correct: 4, Total: 4}}
	results[1].CategoryBreakdown = map[string]model.CategoryScore{"skilt": {Correct: 2, Total: 3}, "fart": {Correct: 6, Total: 7}}

	st := Stats(results, now)

	if st.TotalTests != 4 {
		t.Errorf("TotalTests = %d, want 4", st.TotalTests)
	}
	if st.PerfectTests != 1 {
		t.Errorf("PerfectTests = %d, want 1 (0/0 is not perfect)", st.PerfectTests)
	}
	if st.TotalQuestions != 29 || st.CorrectAnswers != 25 {
		t.Errorf("questions = %d/%d, want 25/29", st.CorrectAnswers, st.TotalQuestions)
	}
	if st.AverageScore != 86 {
		t.Errorf("AverageScore = %d, want 86", st.AverageScore)
	}
	if st.BestScore != 100 {
		t.Errorf("BestScore = %d, want 100", st.BestScore)
	}
	if st.TotalTime != 240000 {
		t.Errorf("TotalTime = %d, want 240000", st.TotalTime)
	}
	if st.Streak != 2 {
		t.Errorf("Streak = %d, want 2", st.Streak)
	}
	if got := st.CategoryBreakdown["skilt"]; got != (model.CategoryScore{Correct: 6, Total: 7}) {
		t.Errorf("skilt = %+v", got)
	}
}

func TestStatsEmpty(t *testing.T) {
	st := Stats(nil, now)
	if st.TotalTests != 0 || st.AverageScore != 0 || st.Streak != 0 {
		t.Errorf("empty stats = %+v", st)
	}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo []int
		want    int
	}{
		{"none", nil, 0},
		{"today only", []int{0}, 1},
		{"yesterday keeps streak", []int{1, 2, 3}, 3},
		{"broken two days ago", []int{2, 3}, 0},
		{"gap", []int{0, 1, 3, 4}, 2},
		{"several per day", []int{0, 0, 1, 1, 2}, 3},
		{"week", []int{0, 1, 2, 3, 4, 5, 6}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rs []model.TestResult
			for _, d := range tt.daysAgo {
				rs = append(rs, result(d, 1, 1))
			}
			if got := Streak(rs, now); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreakLabel(t *testing.T) {
	ctx := nbCtx(t)
	if got := StreakLabel(ctx, 1); got != "1 dag på rad" {
		t.Errorf("StreakLabel(1) = %q", got)
	}
	if got := StreakLabel(ctx, 7); got != "7 dager på rad" {
		t.Errorf("StreakLabel(7) = %q", got)
	}
}

func TestResultMessage(t *testing.T) {
	ctx := nbCtx(t)
	tests := []struct {
		score, total int
		want         string
	}{
		{10, 10, "🏆 Perfekt! Du klarte alle riktig!"},
		{9, 10, "🌟 Fremragende! Nesten perfekt!"},
		{8, 10, "✨ Veldig bra! Du mestrer dette!"},
		{7, 10, "💪 Godt jobbet! Fortsett slik!"},
		{6, 10, "👍 Bra innsats! Rom for forbedring."},
		{5, 10, "📚 Halvveis der! Øv litt mer."},
		{4, 10, "🎯 Ikke gi opp! Øvelse gjør mester!"},
		{0, 10, "🎯 Ikke gi opp! Øvelse gjør mester!"},
		{0, 0, "🎯 Ikke gi opp! Øvelse gjør mester!"},
	}
	for _, tt := range tests {
		if got := ResultMessage(ctx, tt.score, tt.total); got != tt.want {
			t.Errorf("ResultMessage(%d, %d) = %q, want %q", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestSortNewestFirst(t *testing.T) {
	rs := []model.TestResult{result(3, 1, 1), result(0, 1, 1), result(1, 1, 1)}
	SortNewestFirst(rs)
	for i := 1; i < len(rs); i++ {
		if rs[i].Date.After(rs[i-1].Date) {
			t.Fatalf("results not sorted newest first: %v", rs)
		}
	}
}
