package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/store"
)

const questionsJSON = `[
  {"id": "s1", "question": "Hva betyr skiltet?", "options": ["Stopp", "Vikeplikt"], "correct_answer": 0, "category": "skilt", "sign_id": "202"},
  {"id": "f1", "question": "Fartsgrense i tettbygd strøk?", "options": ["30", "50", "60"], "correct_answer": 1, "explanation": "50 km/t gjelder.", "category": "fart"}
]`

const questionsYAML = `
- id: m1
  question: Hva gir lavest utslipp?
  options: [Jevn fart, Hard akselerasjon]
  correct_answer: 0
  category: miljø
  difficulty: easy
`

type fakeExplainer struct {
	calls []string
	err   error
}

func (f *fakeExplainer) Explain(_ context.Context, q model.Question) (string, error) {
	f.calls = append(f.calls, q.ID)
	if f.err != nil {
		return "", f.err
	}
	return "Forklaring for " + q.ID, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestImportFileJSON(t *testing.T) {
	s := newTestStore(t)
	ex := &fakeExplainer{}
	im := New(s, Options{Explainer: ex})
	path := writeFile(t, "questions.json", questionsJSON)

	sum, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if sum.Imported != 2 || sum.Explained != 1 || sum.Skipped {
		t.Errorf("summary = %+v", sum)
	}
	if len(ex.calls) != 1 || ex.calls[0] != "s1" {
		t.Errorf("explainer calls = %v, want [s1]", ex.calls)
	}

	q, err := s.GetQuestion("s1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Explanation != "Forklaring for s1" || q.SignID != "202" {
		t.Errorf("stored question = %+v", q)
	}
	q, _ = s.GetQuestion("f1")
	if q.Explanation != "50 km/t gjelder." {
		t.Errorf("existing explanation overwritten: %q", q.Explanation)
	}

	// Second import of the same content is a no-op.
	sum, err = im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if !sum.Skipped || sum.Imported != 0 {
		t.Errorf("re-import summary = %+v", sum)
	}
}

func TestImportFileYAML(t *testing.T) {
	s := newTestStore(t)
	im := New(s, Options{})
	path := writeFile(t, "miljo.yaml", questionsYAML)

	sum, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if sum.Imported != 1 {
		t.Errorf("imported = %d, want 1", sum.Imported)
	}
	q, err := s.GetQuestion("m1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Category != "miljø" || q.Difficulty != model.DifficultyEasy || len(q.Options) != 2 {
		t.Errorf("stored question = %+v", q)
	}
}

func TestImportChangedFile(t *testing.T) {
	s := newTestStore(t)
	path := writeFile(t, "questions.json", questionsJSON)
	ctx := context.Background()

	if _, err := New(s, Options{}).ImportFile(ctx, path); err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	changed := `[{"id": "s1", "question": "Endret", "options": ["a", "b"], "correct_answer": 1, "category": "skilt"}]`
	if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, err := New(s, Options{}).ImportFile(ctx, path)
	if err != nil || !sum.Skipped {
		t.Fatalf("changed file without force: %+v, %v", sum, err)
	}
	if q, _ := s.GetQuestion("s1"); q.Text == "Endret" {
		t.Error("changed file should not be imported without force")
	}

	sum, err = New(s, Options{Force: true}).ImportFile(ctx, path)
	if err != nil || sum.Imported != 1 {
		t.Fatalf("forced import: %+v, %v", sum, err)
	}
	if q, _ := s.GetQuestion("s1"); q.Text != "Endret" {
		t.Errorf("forced import text = %q", q.Text)
	}
}

func TestImportExplainerFailureKeepsGoing(t *testing.T) {
	s := newTestStore(t)
	im := New(s, Options{Explainer: &fakeExplainer{err: errors.New("model offline")}})
	path := writeFile(t, "questions.json", questionsJSON)

	sum, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if sum.Imported != 2 || sum.Explained != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"one option", "q.json", `[{"id": "a", "question": "t", "options": ["x"], "correct_answer": 0}]`},
		{"index out of range", "q.json", `[{"id": "a", "question": "t", "options": ["x", "y"], "correct_answer": 2}]`},
		{"duplicate id", "q.json", `[
			{"id": "a", "question": "t", "options": ["x", "y"], "correct_answer": 0},
			{"id": "a", "question": "u", "options": ["x", "y"], "correct_answer": 1}]`},
		{"missing id", "q.yml", "- question: t\n  options: [x, y]\n  correct_answer: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.file, []byte(tt.data))
			if !errors.Is(err, model.ErrInvalidQuestion) {
				t.Errorf("err = %v, want ErrInvalidQuestion", err)
			}
		})
	}

	if _, err := Parse("q.json", []byte(`{"not": "a list"}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("decode err = %v, want ErrMalformed", err)
	}
	if _, err := Parse("q.json", []byte(`[{"id": "a", "rubric": "x"}]`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("unknown field err = %v, want ErrMalformed", err)
	}
}

func TestImportFilesStopsOnError(t *testing.T) {
	s := newTestStore(t)
	good := writeFile(t, "good.json", questionsJSON)
	bad := writeFile(t, "bad.json", `[{"id": "x"}]`)

	sums, err := New(s, Options{}).ImportFiles(context.Background(), []string{good, bad, good})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(sums) != 1 || sums[0].Imported != 2 {
		t.Errorf("summaries = %+v", sums)
	}
}
