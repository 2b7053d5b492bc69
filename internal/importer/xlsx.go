package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/forerkortet/forerkortet/internal/model"
)

// parseXLSX reads questions from the first sheet of a workbook. The first row
// holds column names: id, question, option columns (any name starting with
// "option", in sheet order), correct_answer (1-based), and optionally
// explanation, category, sign_id, image_url, difficulty. Blank rows are skipped.
// Option cells may be left blank only after the last filled one.
func parseXLSX(data []byte) ([]model.Question, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	var optionCols []int
	for i, name := range rows[0] {
		name = strings.ToLower(strings.TrimSpace(name))
		if strings.HasPrefix(name, "option") {
			optionCols = append(optionCols, i)
			continue
		}
		cols[name] = i
	}
	for _, required := range []string{"id", "question", "correct_answer"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var questions []model.Question
	for n, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		q := model.Question{
			ID:          cell(row, "id"),
			Text:        cell(row, "question"),
			Explanation: cell(row, "explanation"),
			Category:    cell(row, "category"),
			SignID:      cell(row, "sign_id"),
			ImageURL:    cell(row, "image_url"),
			Difficulty:  model.Difficulty(cell(row, "difficulty")),
		}
		// Trailing blank option cells shorten the list; a blank cell before a
		// filled one would shift correct_answer onto another column.
		blank := 0
		for _, i := range optionCols {
			opt := ""
			if i < len(row) {
				opt = strings.TrimSpace(row[i])
			}
			if opt == "" {
				blank++
				continue
			}
			if blank > 0 {
				return nil, fmt.Errorf("row %d: blank option before %q", n+2, opt)
			}
			q.Options = append(q.Options, opt)
		}
		correct, err := strconv.Atoi(cell(row, "correct_answer"))
		if err != nil {
			return nil, fmt.Errorf("row %d: correct_answer: %w", n+2, err)
		}
		q.CorrectAnswer = correct - 1
		questions = append(questions, q)
	}
	return questions, nil
}
