package progress

import (
	"context"

	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
	"github.com/forerkortet/forerkortet/internal/model"
)

type achievementDef struct {
	id        string
	msgPrefix string
	icon      string
	color     string
	unlocked  func(model.UserStats) bool
}

var achievementDefs = []achievementDef{
	{"first_test", "AchievementFirstTest", "🎯", "#3b82f6", func(s model.UserStats) bool { return s.TotalTests >= 1 }},
	{"perfect_score", "AchievementPerfectScore", "⭐", "#f59e0b", func(s model.UserStats) bool { return s.PerfectTests >= 1 }},
	{"five_tests", "AchievementFiveTests", "📚", "#10b981", func(s model.UserStats) bool { return s.TotalTests >= 5 }},
	{"ten_tests", "AchievementTenTests", "🏆", "#8b5cf6", func(s model.UserStats) bool { return s.TotalTests >= 10 }},
	{"high_average", "AchievementHighAverage", "💎", "#06b6d4", func(s model.UserStats) bool {
		return s.TotalTests >= 5 && s.AverageScore >= 90
	}},
	{"hundred_questions", "AchievementHundredQuestions", "🧠", "#ec4899", func(s model.UserStats) bool { return s.TotalQuestions >= 100 }},
	{"three_day_streak", "AchievementThreeDayStreak", "🔥", "#ef4444", func(s model.UserStats) bool { return s.Streak >= 3 }},
	{"week_streak", "AchievementWeekStreak", "🌟", "#eab308", func(s model.UserStats) bool { return s.Streak >= 7 }},
}

// Achievement is one achievement evaluated against a user's stats.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Unlocked    bool   `json:"unlocked"`
}

func (d achievementDef) evaluate(ctx context.Context, s model.UserStats) Achievement {
	return Achievement{
		ID:          d.id,
		Title:       appI18n.T(ctx, d.msgPrefix+"Title"),
		Description: appI18n.T(ctx, d.msgPrefix+"Description"),
		Icon:        d.icon,
		Color:       d.color,
		Unlocked:    d.unlocked(s),
	}
}

// CheckAchievements evaluates every achievement, in a fixed order.
func CheckAchievements(ctx context.Context, s model.UserStats) []Achievement {
	out := make([]Achievement, len(achievementDefs))
	for i, d := range achievementDefs {
		out[i] = d.evaluate(ctx, s)
	}
	return out
}

// NewlyUnlocked returns achievements unlocked by newStats but not by oldStats.
func NewlyUnlocked(ctx context.Context, oldStats, newStats model.UserStats) []Achievement {
	var out []Achievement
	for _, d := range achievementDefs {
		if d.unlocked(newStats) && !d.unlocked(oldStats) {
			out = append(out, d.evaluate(ctx, newStats))
		}
	}
	return out
}
