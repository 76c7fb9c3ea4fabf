package store

import (
	"github.com/mindwellhq/mindwell/internal/model"
)

// InsertResponse stores a video response record.
func (s *Store) InsertResponse(r model.ResponseRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO response_records (id, test_id, question_id, video_path, recording_duration, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.TestID, r.QuestionID, r.VideoPath, r.RecordingDuration, r.Timestamp,
	)
	return err
}

// ListResponsesForTest returns all response records for an attempt in
// store order.
func (s *Store) ListResponsesForTest(testID string) ([]model.ResponseRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, test_id, question_id, video_path, recording_duration, created_at
		 FROM response_records WHERE test_id = ?`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.ResponseRecord
	for rows.Next() {
		var r model.ResponseRecord
		if err := rows.Scan(&r.ID, &r.TestID, &r.QuestionID, &r.VideoPath,
			&r.RecordingDuration, &r.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
