// Package selection picks questions for a practice test.
package selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/forerkortet/forerkortet/internal/model"
)

// DefaultUnseenShare is the share of a test drawn from unseen questions
// while any remain.
const DefaultUnseenShare = 0.8

// Config describes one selection.
type Config struct {
	Target      int
	UnseenShare float64
	Questions   []model.Question
	Previous    []model.TestResult
}

// answeredIDs collects every question ID answered in previous results.
func answeredIDs(results []model.TestResult) map[string]bool {
	ids := make(map[string]bool)
	for _, r := range results {
		for _, a := range r.Answers {
			ids[a.QuestionID] = true
		}
	}
	return ids
}

// groupByCategory keeps category order stable so the shuffle is the only
// source of randomness.
func groupByCategory(qs []model.Question) ([]string, map[string][]model.Question) {
	groups := make(map[string][]model.Question)
	var order []string
	for _, q := range qs {
		if _, ok := groups[q.Category]; !ok {
			order = append(order, q.Category)
		}
		groups[q.Category] = append(groups[q.Category], q)
	}
	return order, groups
}

// orDefault returns rng, or a freshly seeded generator when rng is nil.
func orDefault(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func shuffled[T any](rng *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// balanced takes count questions spread evenly over categories. The
// remainder goes to randomly chosen categories. Categories with too few
// questions simply contribute what they have.
func balanced(rng *rand.Rand, qs []model.Question, count int) []model.Question {
	order, groups := groupByCategory(qs)
	if len(order) == 0 || count <= 0 {
		return nil
	}

	base := count / len(order)
	remainder := count % len(order)

	var out []model.Question
	for i, cat := range shuffled(rng, order) {
		take := base
		if i < remainder {
			take++
		}
		pool := shuffled(rng, groups[cat])
		if take > len(pool) {
			take = len(pool)
		}
		out = append(out, pool[:take]...)
	}
	return out
}

// Select picks up to cfg.Target questions. Unseen questions fill
// floor(Target*UnseenShare) slots (fewer if not enough remain), seen
// questions the rest, both balanced across categories. Shortfalls are
// filled from any unused question and the result is shuffled.
func Select(cfg Config, rng *rand.Rand) []model.Question {
	if cfg.Target <= 0 || len(cfg.Questions) == 0 {
		return nil
	}
	rng = orDefault(rng)

	answered := answeredIDs(cfg.Previous)
	var unseen, seen []model.Question
	for _, q := range cfg.Questions {
		if answered[q.ID] {
			seen = append(seen, q)
		} else {
			unseen = append(unseen, q)
		}
	}

	share := cfg.UnseenShare
	if share < 0 {
		share = 0
	} else if share > 1 {
		share = 1
	}
	unseenCount := int(math.Floor(float64(cfg.Target) * share))
	if unseenCount > len(unseen) {
		unseenCount = len(unseen)
	}
	seenCount := cfg.Target - unseenCount

	picked := balanced(rng, unseen, unseenCount)
	picked = append(picked, balanced(rng, seen, seenCount)...)

	if len(picked) < cfg.Target {
		used := make(map[string]bool, len(picked))
		for _, q := range picked {
			used[q.ID] = true
		}
		var rest []model.Question
		for _, q := range cfg.Questions {
			if !used[q.ID] {
				rest = append(rest, q)
			}
		}
		need := cfg.Target - len(picked)
		rest = shuffled(rng, rest)
		if need > len(rest) {
			need = len(rest)
		}
		picked = append(picked, rest[:need]...)
	}

	picked = shuffled(rng, picked)
	if len(picked) > cfg.Target {
		picked = picked[:cfg.Target]
	}
	return picked
}

// ReduceOptions keeps the correct option plus up to maxOptions-1 random
// incorrect ones, shuffles them and remaps CorrectAnswer. maxOptions <= 1 or
// a question already within the limit only has its options shuffled.
// Questions with an out-of-range CorrectAnswer are returned unchanged.
func ReduceOptions(q model.Question, maxOptions int, rng *rand.Rand) model.Question {
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return q
	}
	rng = orDefault(rng)

	wrong := make([]int, 0, len(q.Options)-1)
	for i := range q.Options {
		if i != q.CorrectAnswer {
			wrong = append(wrong, i)
		}
	}
	wrong = shuffled(rng, wrong)
	if maxOptions > 1 && len(wrong) > maxOptions-1 {
		wrong = wrong[:maxOptions-1]
	}

	idx := shuffled(rng, append([]int{q.CorrectAnswer}, wrong...))
	opts := make([]string, len(idx))
	newCorrect := 0
	for i, oi := range idx {
		opts[i] = q.Options[oi]
		if oi == q.CorrectAnswer {
			newCorrect = i
		}
	}

	out := q
	out.Options = opts
	out.CorrectAnswer = newCorrect
	return out
}

// ReduceAll applies ReduceOptions to every question.
func ReduceAll(qs []model.Question, maxOptions int, rng *rand.Rand) []model.Question {
	rng = orDefault(rng)
	out := make([]model.Question, len(qs))
	for i, q := range qs {
		out[i] = ReduceOptions(q, maxOptions, rng)
	}
	return out
}

// Coverage counts how many questions in one category have been answered.
type Coverage struct {
	Category string `json:"category"`
	Seen     int    `json:"seen"`
	Total    int    `json:"total"`
}

// Stats summarizes how much of the question pool a user has seen.
type Stats struct {
	TotalQuestions  int        `json:"total_questions"`
	SeenQuestions   int        `json:"seen_questions"`
	UnseenQuestions int        `json:"unseen_questions"`
	PercentageSeen  float64    `json:"percentage_seen"`
	Categories      []Coverage `json:"categories"`
}

// Statistics reports pool coverage. Categories are sorted by name.
func Statistics(questions []model.Question, results []model.TestResult) Stats {
	answered := answeredIDs(results)
	byCat := make(map[string]*Coverage)

	st := Stats{TotalQuestions: len(questions)}
	for _, q := range questions {
		c, ok := byCat[q.Category]
		if !ok {
			c = &Coverage{Category: q.Category}
			byCat[q.Category] = c
		}
		c.Total++
		if answered[q.ID] {
			c.Seen++
			st.SeenQuestions++
		}
	}
	st.UnseenQuestions = st.TotalQuestions - st.SeenQuestions
	if st.TotalQuestions > 0 {
		st.PercentageSeen = float64(st.SeenQuestions) / float64(st.TotalQuestions) * 100
	}

	st.Categories = make([]Coverage, 0, len(byCat))
	for _, c := range byCat {
		st.Categories = append(st.Categories, *c)
	}
	sort.Slice(st.Categories, func(i, j int) bool {
		return st.Categories[i].Category < st.Categories[j].Category
	})
	return st
}
