package model

import "time"

// ResultsExport is the top-level JSON structure for result export.
type ResultsExport struct {
	ExportedAt time.Time     `json:"exported_at"`
	NumResults int           `json:"num_results"`
	Results    []UserResults `json:"results"`
}

// UserResults holds one user's finished tests for export.
type UserResults struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Stats       UserStats      `json:"stats"`
	Tests       []ResultExport `json:"tests"`
}

// ResultExport is a single finished test with its computed score facts.
type ResultExport struct {
	TestResult
	Percentage int    `json:"percentage"`
	Passed     bool   `json:"passed"`
	Color      string `json:"color"`
}
