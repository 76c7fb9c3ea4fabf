// Package workflow drives the test-taking state progression:
// Selecting → MCQ-Completed → Subjective-InProgress → Subjective-Completed.
// Every operation that touches an existing attempt re-verifies that the
// caller owns it.
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/mindwellhq/mindwell/internal/catalog"
	"github.com/mindwellhq/mindwell/internal/model"
	"github.com/mindwellhq/mindwell/internal/scoring"
)

// DashboardLimit caps the attempts listed on the dashboard.
const DashboardLimit = 10

// Store is the persistence surface the controller needs.
type Store interface {
	CreateAttempt(a model.TestAttempt) error
	GetAttempt(id string) (*model.TestAttempt, error)
	ListRecentAttempts(userID int64, limit int) ([]model.TestAttempt, error)
	CompleteSubjective(id string) error
	InsertResponse(r model.ResponseRecord) error
	ListResponsesForTest(testID string) ([]model.ResponseRecord, error)
}

// Controller orchestrates attempt stage transitions against the catalog
// and the store.
type Controller struct {
	store   Store
	catalog *catalog.Catalog
	now     func() time.Time
	idGen   func() string
}

func New(s Store, c *catalog.Catalog) *Controller {
	return &Controller{
		store:   s,
		catalog: c,
		now:     time.Now,
		idGen:   uuid.NewString,
	}
}

// SubmitMCQ scores the ordered answers against the catalog and persists a
// new attempt with the MCQ stage completed. Returns the attempt ID.
func (c *Controller) SubmitMCQ(userID int64, testType model.TestType, answers []string, isRealPatientData bool) (string, error) {
	if testType == "" || len(answers) == 0 {
		return "", NewInvalidError("missing required fields")
	}
	def, ok := c.catalog.Get(testType)
	if !ok {
		return "", NewInvalidError("invalid test type")
	}

	mcqAnswers := make([]model.MCQAnswer, 0, len(def.MCQ))
	for i, q := range def.MCQ {
		var answer string
		if i < len(answers) {
			answer = answers[i]
		}
		mcqAnswers = append(mcqAnswers, model.MCQAnswer{
			QuestionID: q.ID,
			Answer:     answer,
			Score:      scoring.ResolveScore(q, answer),
		})
	}

	attempt := model.TestAttempt{
		ID:                c.idGen(),
		UserID:            userID,
		TestType:          testType,
		MCQAnswers:        mcqAnswers,
		MCQCompleted:      true,
		IsRealPatientData: isRealPatientData,
		CreatedAt:         c.now(),
	}
	if err := c.store.CreateAttempt(attempt); err != nil {
		return "", NewStorageError("failed to submit answers", err)
	}
	return attempt.ID, nil
}

// SkipMCQ creates an attempt that bypasses the questionnaire and goes
// straight to the video stage. Such attempts carry no scored answers.
func (c *Controller) SkipMCQ(userID int64, testType model.TestType, isRealPatientData bool) (string, error) {
	if testType == "" {
		return "", NewInvalidError("missing required fields")
	}
	if _, ok := c.catalog.Get(testType); !ok {
		return "", NewInvalidError("invalid test type")
	}

	attempt := model.TestAttempt{
		ID:                c.idGen(),
		UserID:            userID,
		TestType:          testType,
		MCQSkipped:        true,
		IsRealPatientData: isRealPatientData,
		CreatedAt:         c.now(),
	}
	if err := c.store.CreateAttempt(attempt); err != nil {
		return "", NewStorageError("failed to create attempt", err)
	}
	return attempt.ID, nil
}

// AttemptForUser is the consolidated ownership check: it loads an attempt
// and verifies the caller created it.
func (c *Controller) AttemptForUser(testID string, userID int64) (*model.TestAttempt, error) {
	attempt, err := c.store.GetAttempt(testID)
	if err != nil {
		return nil, NewStorageError("failed to load attempt", err)
	}
	if attempt == nil {
		return nil, NewNotFoundError("attempt not found")
	}
	if attempt.UserID != userID {
		return nil, NewForbiddenError("attempt belongs to another user")
	}
	return attempt, nil
}

// SubjectiveQuestions returns the subjective prompts for the attempt's
// test type after verifying ownership.
func (c *Controller) SubjectiveQuestions(testID string, userID int64) (*model.TestAttempt, []catalog.Question, error) {
	attempt, err := c.AttemptForUser(testID, userID)
	if err != nil {
		return nil, nil, err
	}
	def, ok := c.catalog.Get(attempt.TestType)
	if !ok || len(def.Subjective) == 0 {
		return nil, nil, NewNotFoundError("no subjective questions for this test")
	}
	return attempt, def.Subjective, nil
}

// SaveResponse records an uploaded video's metadata for an owned attempt.
// The caller is responsible for having written the file at videoPath and
// for removing it if this returns an error.
func (c *Controller) SaveResponse(testID string, userID int64, questionID, recordingDuration int, videoPath string) (string, error) {
	if _, err := c.AttemptForUser(testID, userID); err != nil {
		return "", err
	}
	rec := model.ResponseRecord{
		ID:                c.idGen(),
		TestID:            testID,
		QuestionID:        questionID,
		VideoPath:         videoPath,
		RecordingDuration: recordingDuration,
		Timestamp:         c.now(),
	}
	if err := c.store.InsertResponse(rec); err != nil {
		return "", NewStorageError("failed to save response", err)
	}
	return rec.ID, nil
}

// Complete marks the subjective stage finished. Idempotent: a repeat call
// re-sets the same fields.
func (c *Controller) Complete(testID string, userID int64) error {
	if _, err := c.AttemptForUser(testID, userID); err != nil {
		return err
	}
	if err := c.store.CompleteSubjective(testID); err != nil {
		return NewStorageError("failed to complete test", err)
	}
	return nil
}

// Results is the composed view-model for the results page.
type Results struct {
	Attempt   *model.TestAttempt
	TestName  string
	Summary   scoring.Summary
	Responses []model.ResponseRecord
}

// ResultsFor verifies ownership, computes the score summary, and collects
// the attempt's video responses.
func (c *Controller) ResultsFor(testID string, userID int64) (*Results, error) {
	attempt, err := c.AttemptForUser(testID, userID)
	if err != nil {
		return nil, err
	}
	responses, err := c.store.ListResponsesForTest(testID)
	if err != nil {
		return nil, NewStorageError("failed to load responses", err)
	}
	name := string(attempt.TestType)
	if def, ok := c.catalog.Get(attempt.TestType); ok {
		name = def.Name
	}
	return &Results{
		Attempt:   attempt,
		TestName:  name,
		Summary:   scoring.Summarize(attempt.MCQAnswers),
		Responses: responses,
	}, nil
}

// RecentAttempts returns the caller's newest attempts for the dashboard.
func (c *Controller) RecentAttempts(userID int64) ([]model.TestAttempt, error) {
	attempts, err := c.store.ListRecentAttempts(userID, DashboardLimit)
	if err != nil {
		return nil, NewStorageError("failed to list attempts", err)
	}
	return attempts, nil
}
