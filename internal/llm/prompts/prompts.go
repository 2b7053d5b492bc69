package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/forerkortet/forerkortet/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

const maxFieldRunes = 2000

var questionTagRegex = regexp.MustCompile(`(?i)</?\s*question\b[^>]*>`)

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// ExplainData holds template data for explanation prompts.
type ExplainData struct {
	Question string
	Options  []string
	Correct  int
	Category string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		entries, err := templateFS.ReadDir("templates")
		if err != nil {
			loadErr = fmt.Errorf("read prompt templates: %w", err)
			return
		}
		for _, e := range entries {
			name := e.Name()
			content, err := templateFS.ReadFile("templates/" + name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[strings.TrimSuffix(name, ".txt")] = tmpl
		}
	})
	return loadErr
}

// HasLanguage reports whether an explanation template exists for lang.
func HasLanguage(lang string) bool {
	if err := load(); err != nil {
		return false
	}
	_, ok := templates["explain_"+lang]
	return ok
}

// BuildExplainPrompt renders the explanation prompt for q in lang.
func BuildExplainPrompt(lang string, q model.Question) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates["explain_"+lang]
	if !ok {
		return "", fmt.Errorf("no explanation prompt for language %q", lang)
	}
	if err := q.Validate(); err != nil {
		return "", err
	}

	data := ExplainData{
		Question: sanitize(q.Text),
		Correct:  q.CorrectAnswer,
		Category: sanitize(q.Category),
	}
	for _, o := range q.Options {
		data.Options = append(data.Options, sanitize(o))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize strips prompt delimiters from imported text and bounds its length.
func sanitize(s string) string {
	s = questionTagRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxFieldRunes {
		s = string([]rune(s)[:maxFieldRunes])
	}
	return s
}
