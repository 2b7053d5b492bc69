// Package scoring turns a finished test attempt into presentation-ready
// score facts: percentage, pass/fail, color band, tier message and
// formatted durations.
//
// Every function is pure and total. Zero totals yield 0 instead of a
// division error, and nothing here returns an error or panics.
package scoring

import (
	"context"
	"math"
	"time"

	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
)

// PassThreshold is the lowest percentage that passes a test. It is
// independent of the color band thresholds.
const PassThreshold = 85

// Band is the severity classification that drives the display color.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

var bandColors = map[Band]string{
	BandHigh:   "#10b981",
	BandMedium: "#f59e0b",
	BandLow:    "#ef4444",
}

// Color returns the display color for the band.
func (b Band) Color() string {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return bandColors[BandLow]
}

// Tier selects one of the motivational messages.
type Tier int

const (
	TierNeedsWork Tier = iota
	TierOnTrack
	TierDecent
	TierGood
	TierExcellent
	TierPerfect
)

var tierMessageIDs = [...]string{
	TierNeedsWork: "ScoreTierNeedsWork",
	TierOnTrack:   "ScoreTierOnTrack",
	TierDecent:    "ScoreTierDecent",
	TierGood:      "ScoreTierGood",
	TierExcellent: "ScoreTierExcellent",
	TierPerfect:   "ScoreTierPerfect",
}

// MessageID is the localization key of the tier's message.
func (t Tier) MessageID() string {
	if t < 0 || int(t) >= len(tierMessageIDs) {
		return tierMessageIDs[TierNeedsWork]
	}
	return tierMessageIDs[t]
}

// tierFloors lists the range tiers high to low with their inclusive lower bound.
var tierFloors = []struct {
	min  int
	tier Tier
}{
	{90, TierExcellent},
	{85, TierGood},
	{75, TierDecent},
	{50, TierOnTrack},
}

// round matches round-half-up: ties at .5 go toward +Inf.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Percentage returns correct/total as a rounded whole percentage.
// A zero total yields 0.
func Percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return round(float64(correct) / float64(total) * 100)
}

// ScoreBand classifies a percentage: >=90 high, >=75 medium, otherwise low.
// Out-of-range values are not clamped.
func ScoreBand(percentage int) Band {
	switch {
	case percentage >= 90:
		return BandHigh
	case percentage >= 75:
		return BandMedium
	default:
		return BandLow
	}
}

// ScoreColor returns the display color for a percentage.
func ScoreColor(percentage int) string {
	return ScoreBand(percentage).Color()
}

// Passed reports whether percentage meets PassThreshold.
func Passed(percentage int) bool {
	return percentage >= PassThreshold
}

// MessageTier picks the message tier for a percentage. Exactly 100 is its
// own tier, checked before the >=90 range.
func MessageTier(percentage int) Tier {
	if percentage == 100 {
		return TierPerfect
	}
	for _, f := range tierFloors {
		if percentage >= f.min {
			return f.tier
		}
	}
	return TierNeedsWork
}

// MotivationalMessage returns the localized message for a percentage using
// the localizer carried by ctx.
func MotivationalMessage(ctx context.Context, percentage int) string {
	return appI18n.T(ctx, MessageTier(percentage).MessageID())
}

// splitDuration breaks milliseconds into whole minutes and leftover seconds.
func splitDuration(elapsedMillis int64) (minutes, seconds int64) {
	if elapsedMillis < 0 {
		elapsedMillis = 0
	}
	return elapsedMillis / 60000, (elapsedMillis % 60000) / 1000
}

// FormatDuration renders elapsed milliseconds as "{m} min {s} sek" (in the
// context's language) without zero padding. Negative input renders as zero.
func FormatDuration(ctx context.Context, elapsedMillis int64) string {
	m, s := splitDuration(elapsedMillis)
	return appI18n.Td(ctx, "DurationMinSec", map[string]any{"Minutes": m, "Seconds": s})
}

// AverageSecondsPerQuestion returns the rounded mean seconds spent per
// question. A zero total yields 0.
func AverageSecondsPerQuestion(elapsedMillis int64, total int) int {
	if total == 0 {
		return 0
	}
	return round(float64(elapsedMillis) / float64(total) / 1000)
}

// Attempt is a finished test as counted by the quiz flow.
type Attempt struct {
	Correct int
	Total   int
	Elapsed time.Duration
}

// Report holds the score facts rendered for an attempt.
type Report struct {
	Percentage            int    `json:"percentage"`
	Passed                bool   `json:"passed"`
	Band                  Band   `json:"band"`
	Color                 string `json:"color"`
	Message               string `json:"message"`
	Duration              string `json:"duration"`
	AvgSecondsPerQuestion int    `json:"avg_seconds_per_question"`
}

// Score builds the full report for an attempt.
func Score(ctx context.Context, a Attempt) Report {
	pct := Percentage(a.Correct, a.Total)
	band := ScoreBand(pct)
	ms := a.Elapsed.Milliseconds()
	return Report{
		Percentage:            pct,
		Passed:                Passed(pct),
		Band:                  band,
		Color:                 band.Color(),
		Message:               MotivationalMessage(ctx, pct),
		Duration:              FormatDuration(ctx, ms),
		AvgSecondsPerQuestion: AverageSecondsPerQuestion(ms, a.Total),
	}
}
