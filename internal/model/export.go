package model

import "time"

// ResultsExport is the top-level JSON structure for the export subcommand.
type ResultsExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Attempts   []AttemptResult `json:"attempts"`
}

// AttemptResult holds one attempt's data for clinician review.
type AttemptResult struct {
	AttemptID         string           `json:"attempt_id"`
	UserEmail         string           `json:"user_email"`
	UserName          string           `json:"user_name"`
	TestType          TestType         `json:"test_type"`
	IsRealPatientData bool             `json:"is_real_patient_data"`
	Answers           []MCQAnswer      `json:"answers"`
	TotalScore        int              `json:"total_score"`
	MaxScore          int              `json:"max_score"`
	Percentage        float64          `json:"percentage"`
	Responses         []ResponseRecord `json:"responses,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
}
