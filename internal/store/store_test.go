package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/mindwellhq/mindwell/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Age:          30,
		Gender:       "other",
	})
	if err != nil {
		t.Fatalf("insertTestUser: %v", err)
	}
	return id
}

func insertTestAttempt(t *testing.T, s *Store, id string, userID int64, createdAt time.Time) {
	t.Helper()
	err := s.CreateAttempt(model.TestAttempt{
		ID:           id,
		UserID:       userID,
		TestType:     model.TestDepression,
		MCQCompleted: true,
		MCQAnswers: []model.MCQAnswer{
			{QuestionID: 1, Answer: "Never", Score: 0},
			{QuestionID: 2, Answer: "Often", Score: 2},
		},
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("insertTestAttempt: %v", err)
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := insertTestUser(t, s, "alice@example.com")

	u, err := s.GetUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != id {
		t.Errorf("expected id %d, got %d", id, u.ID)
	}
	if u.Name != "Test User" {
		t.Errorf("expected name 'Test User', got %q", u.Name)
	}
	if u.ConsentAccepted {
		t.Error("new user should not have accepted consent")
	}

	// Lookups that miss return nil, not an error.
	missing, err := s.GetUserByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown email, got %+v", missing)
	}

	byID, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID == nil || byID.Email != "alice@example.com" {
		t.Errorf("GetUserByID returned %+v", byID)
	}

	// Duplicate email is rejected by the unique constraint.
	if _, err := s.CreateUser(model.User{
		Name: "Dup", Email: "alice@example.com", PasswordHash: "x",
	}); err == nil {
		t.Error("expected error creating duplicate email")
	}
}

func TestAcceptConsent(t *testing.T) {
	s := newTestStore(t)
	id := insertTestUser(t, s, "bob@example.com")

	if err := s.AcceptConsent(id); err != nil {
		t.Fatalf("AcceptConsent: %v", err)
	}

	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !u.ConsentAccepted {
		t.Error("expected consent_accepted to be set")
	}
	if u.ConsentAcceptedAt == nil {
		t.Error("expected consent_accepted_at to be set")
	}
}

func TestAttemptCRUD(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "carol@example.com")

	insertTestAttempt(t, s, "attempt-1", userID, time.Now())

	a, err := s.GetAttempt("attempt-1")
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if a == nil {
		t.Fatal("expected attempt, got nil")
	}
	if a.UserID != userID {
		t.Errorf("expected user %d, got %d", userID, a.UserID)
	}
	if !a.MCQCompleted {
		t.Error("expected mcq_completed")
	}
	if a.SubjectiveCompleted {
		t.Error("subjective stage should not be complete yet")
	}
	if a.CompletedAt != nil {
		t.Error("completed_at should be nil before completion")
	}
	if len(a.MCQAnswers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(a.MCQAnswers))
	}
	if a.MCQAnswers[1].Answer != "Often" || a.MCQAnswers[1].Score != 2 {
		t.Errorf("answers not preserved in order: %+v", a.MCQAnswers)
	}

	missing, err := s.GetAttempt("no-such-attempt")
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown attempt, got %+v", missing)
	}
}

func TestCompleteSubjective(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "dave@example.com")
	insertTestAttempt(t, s, "attempt-1", userID, time.Now())

	if err := s.CompleteSubjective("attempt-1"); err != nil {
		t.Fatalf("CompleteSubjective: %v", err)
	}

	a, err := s.GetAttempt("attempt-1")
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if !a.SubjectiveCompleted {
		t.Error("expected subjective_completed")
	}
	if a.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	first := *a.CompletedAt

	// Repeating the completion only refreshes the timestamp.
	if err := s.CompleteSubjective("attempt-1"); err != nil {
		t.Fatalf("CompleteSubjective repeat: %v", err)
	}
	a, err = s.GetAttempt("attempt-1")
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if !a.SubjectiveCompleted || a.CompletedAt == nil {
		t.Error("repeat completion lost state")
	}
	if a.CompletedAt.Before(first) {
		t.Error("completed_at went backwards")
	}
}

func TestListRecentAttempts(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "erin@example.com")
	otherID := insertTestUser(t, s, "other@example.com")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		insertTestAttempt(t, s, fmt.Sprintf("attempt-%02d", i), userID, base.Add(time.Duration(i)*time.Minute))
	}
	insertTestAttempt(t, s, "foreign", otherID, time.Now())

	attempts, err := s.ListRecentAttempts(userID, 10)
	if err != nil {
		t.Fatalf("ListRecentAttempts: %v", err)
	}
	if len(attempts) != 10 {
		t.Fatalf("expected 10 attempts, got %d", len(attempts))
	}
	// Newest first.
	if attempts[0].ID != "attempt-11" {
		t.Errorf("expected newest attempt first, got %s", attempts[0].ID)
	}
	for i := 1; i < len(attempts); i++ {
		if attempts[i].CreatedAt.After(attempts[i-1].CreatedAt) {
			t.Errorf("attempts out of order at %d", i)
		}
	}
	for _, a := range attempts {
		if a.UserID != userID {
			t.Errorf("foreign attempt leaked into listing: %s", a.ID)
		}
		if len(a.MCQAnswers) != 2 {
			t.Errorf("attempt %s missing answers", a.ID)
		}
	}

	// A user with no attempts gets an empty list.
	empty, err := s.ListRecentAttempts(9999, 10)
	if err != nil {
		t.Fatalf("ListRecentAttempts: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty list, got %d", len(empty))
	}
}

func TestResponseRecords(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "frank@example.com")
	insertTestAttempt(t, s, "attempt-1", userID, time.Now())

	for i := 1; i <= 3; i++ {
		err := s.InsertResponse(model.ResponseRecord{
			ID:                fmt.Sprintf("resp-%d", i),
			TestID:            "attempt-1",
			QuestionID:        i,
			VideoPath:         fmt.Sprintf("/videos/depression/test_user_q%d.webm", i),
			RecordingDuration: 30 + i,
			Timestamp:         time.Now(),
		})
		if err != nil {
			t.Fatalf("InsertResponse: %v", err)
		}
	}

	records, err := s.ListResponsesForTest("attempt-1")
	if err != nil {
		t.Fatalf("ListResponsesForTest: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].QuestionID != 1 || records[0].RecordingDuration != 31 {
		t.Errorf("unexpected first record: %+v", records[0])
	}

	none, err := s.ListResponsesForTest("no-such-attempt")
	if err != nil {
		t.Fatalf("ListResponsesForTest: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records, got %d", len(none))
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "grace@example.com")

	token, err := s.CreateAuthSession(userID, "Grace", false)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.UserID != userID || sess.UserName != "Grace" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if sess.ConsentAccepted {
		t.Error("consent flag should start false")
	}

	if err := s.SetSessionConsent(token, true); err != nil {
		t.Fatalf("SetSessionConsent: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if !sess.ConsentAccepted {
		t.Error("consent flag not updated on session")
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil after delete, got %+v", sess)
	}

	// Unknown token is not an error.
	sess, err = s.GetAuthSession("bogus")
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil for unknown token, got %+v", sess)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "heidi@example.com")

	token, err := s.CreateAuthSession(userID, "Heidi", true)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	// Force the session into the past.
	_, err = s.db.Exec(`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`,
		time.Now().Add(-time.Minute), token)
	if err != nil {
		t.Fatalf("expire session: %v", err)
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Errorf("expected expired session to be rejected, got %+v", sess)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "ivan@example.com")

	live, err := s.CreateAuthSession(userID, "Ivan", true)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	stale, err := s.CreateAuthSession(userID, "Ivan", true)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`,
		time.Now().Add(-time.Minute), stale); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	if err := s.CleanupExpiredSessions(); err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM auth_sessions`).Scan(&count); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 surviving session, got %d", count)
	}
	sess, err := s.GetAuthSession(live)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil {
		t.Error("live session removed by cleanup")
	}
}

func TestListAllAttempts(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "judy@example.com")

	base := time.Now().Add(-time.Hour)
	insertTestAttempt(t, s, "older", userID, base)
	insertTestAttempt(t, s, "newer", userID, base.Add(time.Minute))

	attempts, err := s.ListAllAttempts()
	if err != nil {
		t.Fatalf("ListAllAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].ID != "newer" {
		t.Errorf("expected newest first, got %s", attempts[0].ID)
	}
	if len(attempts[0].MCQAnswers) != 2 {
		t.Error("answers not loaded for export listing")
	}
}
