package progress

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/forerkortet/forerkortet/internal/model"
)

const xlsxSheet = "Sheet1"

var xlsxHeader = []interface{}{
	"username", "display_name", "result_id", "date", "score", "total_questions",
	"percentage", "passed", "duration_s",
}

// WriteXLSX writes an export as a workbook with one row per finished test.
func WriteXLSX(w io.Writer, exp model.ResultsExport) error {
	f := excelize.NewFile()
	defer f.Close()

	row := 1
	writeRow := func(values []interface{}) error {
		cellRef, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(xlsxSheet, cellRef, &values)
	}

	if err := writeRow(xlsxHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ur := range exp.Results {
		for _, t := range ur.Tests {
			err := writeRow([]interface{}{
				ur.Username, ur.DisplayName, t.ID, t.Date.UTC().Format("2006-01-02 15:04"),
				t.Score, t.TotalQuestions, t.Percentage, t.Passed, t.Duration / 1000,
			})
			if err != nil {
				return fmt.Errorf("write result %s: %w", t.ID, err)
			}
		}
	}
	return f.Write(w)
}
