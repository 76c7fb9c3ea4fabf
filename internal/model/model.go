package model

import (
	"context"
	"time"
)

// TestType identifies one of the assessment questionnaires.
type TestType string

const (
	TestDepression TestType = "depression"
	TestAnxiety    TestType = "anxiety"
	TestStress     TestType = "stress"
	TestPTSD       TestType = "ptsd"
	TestBipolar    TestType = "bipolar"
	TestOCD        TestType = "ocd"
)

// ValidTestType reports whether t is one of the known assessment types.
func ValidTestType(t TestType) bool {
	switch t {
	case TestDepression, TestAnxiety, TestStress, TestPTSD, TestBipolar, TestOCD:
		return true
	}
	return false
}

// User represents a registered participant.
type User struct {
	ID                int64
	Name              string
	Email             string
	PasswordHash      string
	Age               int
	Gender            string
	ConsentAccepted   bool
	ConsentAcceptedAt *time.Time
	CreatedAt         time.Time
}

// AuthSession is a cookie-backed authentication session. The consent flag
// is a cache of User.ConsentAccepted, refreshed lazily from the user row.
type AuthSession struct {
	ID              string
	UserID          int64
	UserName        string
	ConsentAccepted bool
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// MCQAnswer is one scored multiple-choice answer within an attempt.
// Score is always resolved server-side from the catalog, never taken
// from client input.
type MCQAnswer struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
}

// TestAttempt is one user's run through a questionnaire. UserID is set at
// creation and immutable; every later access re-verifies it against the
// caller's session.
type TestAttempt struct {
	ID                  string      `json:"id"`
	UserID              int64       `json:"user_id"`
	TestType            TestType    `json:"test_type"`
	MCQAnswers          []MCQAnswer `json:"mcq_answers"`
	MCQCompleted        bool        `json:"mcq_completed"`
	MCQSkipped          bool        `json:"mcq_skipped"`
	SubjectiveCompleted bool        `json:"subjective_completed"`
	IsRealPatientData   bool        `json:"is_real_patient_data"`
	CreatedAt           time.Time   `json:"created_at"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty"`
}

// ResponseRecord stores the metadata of one recorded video answer.
// Immutable once written; many-to-one with TestAttempt.
type ResponseRecord struct {
	ID                string    `json:"id"`
	TestID            string    `json:"test_id"`
	QuestionID        int       `json:"question_id"`
	VideoPath         string    `json:"video_path"`
	RecordingDuration int       `json:"recording_duration"`
	Timestamp         time.Time `json:"timestamp"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	UploadDir     string // root directory for recorded video files
	BasePath      string // URL prefix for sub-path deployments (e.g. "/app")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type sessionCtxKey struct{}

// ContextWithSession stores the auth session in the request context.
func ContextWithSession(ctx context.Context, s *AuthSession) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext retrieves the auth session from context, or nil.
func SessionFromContext(ctx context.Context) *AuthSession {
	s, _ := ctx.Value(sessionCtxKey{}).(*AuthSession)
	return s
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
