package selection

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/forerkortet/forerkortet/internal/model"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func pool(perCategory int, categories ...string) []model.Question {
	var qs []model.Question
	for _, c := range categories {
		for i := 0; i < perCategory; i++ {
			qs = append(qs, model.Question{
				ID:            fmt.Sprintf("%s-%d", c, i),
				Text:          "q",
				Options:       []string{"a", "b", "c", "d", "e", "f"},
				CorrectAnswer: i % 6,
				Category:      c,
			})
		}
	}
	return qs
}

func resultAnswering(ids ...string) model.TestResult {
	var r model.TestResult
	for _, id := range ids {
		r.Answers = append(r.Answers, model.Answer{QuestionID: id})
	}
	return r
}

func uniqueIDs(t *testing.T, qs []model.Question) map[string]bool {
	t.Helper()
	ids := make(map[string]bool, len(qs))
	for _, q := range qs {
		if ids[q.ID] {
			t.Fatalf("question %s selected twice", q.ID)
		}
		ids[q.ID] = true
	}
	return ids
}

func TestSelectBalancedUnseen(t *testing.T) {
	qs := pool(10, "skilt", "vikeplikt", "fart", "miljø")
	got := Select(Config{Target: 20, UnseenShare: 1, Questions: qs}, newRand())

	if len(got) != 20 {
		t.Fatalf("expected 20 questions, got %d", len(got))
	}
	uniqueIDs(t, got)

	perCat := make(map[string]int)
	for _, q := range got {
		perCat[q.Category]++
	}
	for cat, n := range perCat {
		if n != 5 {
			t.Errorf("category %s got %d questions, want 5", cat, n)
		}
	}
}

func TestSelectPrefersUnseen(t *testing.T) {
	qs := pool(10, "skilt", "fart")
	var seenIDs []string
	for _, q := range qs[:15] {
		seenIDs = append(seenIDs, q.ID)
	}
	prev := []model.TestResult{resultAnswering(seenIDs...)}

	got := Select(Config{Target: 10, UnseenShare: 0.8, Questions: qs, Previous: prev}, newRand())
	if len(got) != 10 {
		t.Fatalf("expected 10, got %d", len(got))
	}
	uniqueIDs(t, got)

	seen := make(map[string]bool)
	for _, id := range seenIDs {
		seen[id] = true
	}
	unseen := 0
	for _, q := range got {
		if !seen[q.ID] {
			unseen++
		}
	}
	// Only 5 unseen questions exist, so all of them are included.
	if unseen != 5 {
		t.Errorf("expected 5 unseen questions, got %d", unseen)
	}
}

func TestSelectFillsShortfall(t *testing.T) {
	// One category dominates; balanced selection alone cannot reach the target.
	qs := append(pool(1, "sjelden"), pool(12, "vanlig")...)
	got := Select(Config{Target: 10, UnseenShare: 1, Questions: qs}, newRand())
	if len(got) != 10 {
		t.Fatalf("expected 10, got %d", len(got))
	}
	uniqueIDs(t, got)
}

func TestSelectSmallPool(t *testing.T) {
	qs := pool(2, "skilt")
	got := Select(Config{Target: 10, UnseenShare: 0.8, Questions: qs}, newRand())
	if len(got) != 2 {
		t.Fatalf("expected whole pool of 2, got %d", len(got))
	}

	if got := Select(Config{Target: 0, Questions: qs}, newRand()); got != nil {
		t.Errorf("target 0 should select nothing, got %d", len(got))
	}
	if got := Select(Config{Target: 5}, nil); got != nil {
		t.Errorf("empty pool should select nothing, got %d", len(got))
	}
}

func TestReduceOptions(t *testing.T) {
	q := model.Question{
		ID:            "q",
		Options:       []string{"A", "B", "C", "D", "E", "F"},
		CorrectAnswer: 4,
	}
	rng := newRand()
	for i := 0; i < 50; i++ {
		got := ReduceOptions(q, 4, rng)
		if len(got.Options) != 4 {
			t.Fatalf("expected 4 options, got %d", len(got.Options))
		}
		if got.Options[got.CorrectAnswer] != "E" {
			t.Fatalf("correct answer remapped to %q, want E", got.Options[got.CorrectAnswer])
		}
		seen := make(map[string]bool)
		for _, o := range got.Options {
			if seen[o] {
				t.Fatalf("duplicate option %q", o)
			}
			seen[o] = true
		}
	}
	if len(q.Options) != 6 || q.CorrectAnswer != 4 {
		t.Error("input question was mutated")
	}
}

func TestReduceOptionsEdgeCases(t *testing.T) {
	short := model.Question{Options: []string{"ja", "nei"}, CorrectAnswer: 1}
	got := ReduceOptions(short, 4, newRand())
	if len(got.Options) != 2 || got.Options[got.CorrectAnswer] != "nei" {
		t.Errorf("two-option question = %+v", got)
	}

	all := ReduceOptions(model.Question{Options: []string{"a", "b", "c", "d", "e"}, CorrectAnswer: 0}, 0, newRand())
	if len(all.Options) != 5 || all.Options[all.CorrectAnswer] != "a" {
		t.Errorf("maxOptions 0 should keep all options, got %+v", all)
	}

	bad := model.Question{Options: []string{"a"}, CorrectAnswer: 3}
	if got := ReduceOptions(bad, 4, newRand()); got.CorrectAnswer != 3 || len(got.Options) != 1 {
		t.Errorf("invalid question should be returned unchanged, got %+v", got)
	}
}

func TestStatistics(t *testing.T) {
	qs := pool(4, "fart", "skilt")
	prev := []model.TestResult{
		resultAnswering("fart-0", "fart-1"),
		resultAnswering("fart-1", "skilt-3", "ukjent"),
	}

	st := Statistics(qs, prev)
	if st.TotalQuestions != 8 || st.SeenQuestions != 3 || st.UnseenQuestions != 5 {
		t.Errorf("counts = %+v", st)
	}
	if st.PercentageSeen != 37.5 {
		t.Errorf("PercentageSeen = %v, want 37.5", st.PercentageSeen)
	}
	want := []Coverage{{"fart", 2, 4}, {"skilt", 1, 4}}
	if len(st.Categories) != len(want) {
		t.Fatalf("categories = %+v", st.Categories)
	}
	for i := range want {
		if st.Categories[i] != want[i] {
			t.Errorf("category[%d] = %+v, want %+v", i, st.Categories[i], want[i])
		}
	}

	empty := Statistics(nil, prev)
	if empty.PercentageSeen != 0 || empty.TotalQuestions != 0 {
		t.Errorf("empty pool stats = %+v", empty)
	}
}
