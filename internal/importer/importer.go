// Package importer loads question files into the store.
package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forerkortet/forerkortet/internal/model"
)

// ErrMalformed is returned for files that cannot be decoded as a question list.
var ErrMalformed = errors.New("malformed question file")

// Store is the persistence the importer needs.
type Store interface {
	GetImportedFileHash(path string) (string, error)
	SetImportedFileHash(path, hash string) error
	UpsertQuestion(q model.Question) error
}

// Explainer drafts an explanation for a question that has none.
type Explainer interface {
	Explain(ctx context.Context, q model.Question) (string, error)
}

// Options controls an import run.
type Options struct {
	// Force re-imports files whose content changed since the last import.
	Force bool
	// Explainer is optional. When nil, missing explanations stay empty.
	Explainer Explainer
}

// Summary describes the outcome of importing one file.
type Summary struct {
	Path      string `json:"path"`
	Imported  int    `json:"imported"`
	Explained int    `json:"explained"`
	Skipped   bool   `json:"skipped"`
}

// Importer reads question files and upserts their questions.
type Importer struct {
	store Store
	opts  Options
}

// New creates an importer backed by s.
func New(s Store, opts Options) *Importer {
	return &Importer{store: s, opts: opts}
}

// ImportFiles imports each path in order and stops at the first error.
func (im *Importer) ImportFiles(ctx context.Context, paths []string) ([]Summary, error) {
	summaries := make([]Summary, 0, len(paths))
	for _, path := range paths {
		sum, err := im.ImportFile(ctx, path)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// ImportFile imports a single JSON or YAML question file.
func (im *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{Path: path}, fmt.Errorf("read %s: %w", path, err)
	}
	return im.ImportData(ctx, path, data)
}

// ImportData imports question file content. path identifies the source for
// the re-import guard and picks the decoder by extension.
func (im *Importer) ImportData(ctx context.Context, path string, data []byte) (Summary, error) {
	sum := Summary{Path: path}

	hash := sha256sum(data)
	storedHash, err := im.store.GetImportedFileHash(path)
	if err != nil {
		return sum, fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash {
		slog.Info("questions file unchanged, skipping", "path", path)
		sum.Skipped = true
		return sum, nil
	}
	if storedHash != "" && !im.opts.Force {
		slog.Warn("questions file changed since last import, skipping (use --force to re-import)", "path", path)
		sum.Skipped = true
		return sum, nil
	}

	questions, err := Parse(path, data)
	if err != nil {
		return sum, err
	}

	for i := range questions {
		q := &questions[i]
		if q.Explanation == "" && im.opts.Explainer != nil {
			explanation, err := im.opts.Explainer.Explain(ctx, *q)
			if err != nil {
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				slog.Warn("could not draft explanation", "question_id", q.ID, "error", err)
			} else {
				q.Explanation = explanation
				sum.Explained++
			}
		}
		if err := im.store.UpsertQuestion(*q); err != nil {
			return sum, fmt.Errorf("store question %s from %s: %w", q.ID, path, err)
		}
		sum.Imported++
	}

	if err := im.store.SetImportedFileHash(path, hash); err != nil {
		return sum, fmt.Errorf("record import for %s: %w", path, err)
	}
	slog.Info("imported questions", "path", path, "count", sum.Imported, "explained", sum.Explained)
	return sum, nil
}

// Parse decodes a question file. Files ending in .yaml or .yml are read as
// YAML, .xlsx as a spreadsheet, everything else as JSON. Every question is
// validated and IDs must be unique within the file.
func Parse(path string, data []byte) ([]model.Question, error) {
	var questions []model.Question
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		qs, err := parseXLSX(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
		}
		questions = qs
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&questions); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
		}
	}

	var errs []error
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("question %d (%q): %w", i+1, q.ID, err))
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Errorf("question %d: %w: duplicate id %q", i+1, model.ErrInvalidQuestion, q.ID))
		}
		seen[q.ID] = true
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return questions, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
