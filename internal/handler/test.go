package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mindwellhq/mindwell/internal/handler/views"
	"github.com/mindwellhq/mindwell/internal/model"
	"github.com/mindwellhq/mindwell/internal/upload"
	"github.com/mindwellhq/mindwell/internal/workflow"
)

func (h *Handler) handleTestSelect(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "test_select", views.SelectPage{
		Page:  h.page(r, "Choose a Test"),
		Tests: h.catalog.Types(),
	})
}

func (h *Handler) handleMCQPage(w http.ResponseWriter, r *http.Request) {
	testType := model.TestType(chi.URLParam(r, "testType"))
	def, ok := h.catalog.Get(testType)
	if !ok {
		http.Redirect(w, r, h.path("/test/select"), http.StatusSeeOther)
		return
	}

	renderPage(w, "test_mcq", views.MCQPage{
		Page:              h.page(r, def.Name),
		TestType:          testType,
		Questions:         def.MCQ,
		IsRealPatientData: r.URL.Query().Get("verified") == "true",
	})
}

type mcqSubmission struct {
	TestType          model.TestType `json:"testType"`
	Answers           []string       `json:"answers"`
	IsRealPatientData bool           `json:"isRealPatientData"`
}

func (h *Handler) handleMCQSubmit(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var sub mcqSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	testID, err := h.workflow.SubmitMCQ(user.ID, sub.TestType, sub.Answers, sub.IsRealPatientData)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "testId": testID})
}

type mcqSkip struct {
	TestType          model.TestType `json:"testType"`
	IsRealPatientData bool           `json:"isRealPatientData"`
}

func (h *Handler) handleMCQSkip(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req mcqSkip
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	testID, err := h.workflow.SkipMCQ(user.ID, req.TestType, req.IsRealPatientData)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "testId": testID})
}

func (h *Handler) handleSubjectivePage(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	testID := chi.URLParam(r, "testID")

	attempt, questions, err := h.workflow.SubjectiveQuestions(testID, user.ID)
	if err != nil {
		slog.Warn("subjective page refused", "test_id", testID, "user_id", user.ID, "error", err)
		http.Redirect(w, r, h.path("/dashboard"), http.StatusSeeOther)
		return
	}

	renderPage(w, "test_subjective", views.SubjectivePage{
		Page:      h.page(r, "Video Responses"),
		TestID:    attempt.ID,
		TestType:  attempt.TestType,
		Questions: questions,
	})
}

func (h *Handler) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	sess := model.SessionFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Video file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid upload"})
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No video file uploaded"})
		return
	}
	defer file.Close()

	if !upload.AllowedMIME(header.Header.Get("Content-Type")) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only video files are allowed"})
		return
	}

	// The file is staged before field validation so a malformed request
	// never leaves a partial write in the final location.
	staged, err := h.uploads.Stage(file)
	if err != nil {
		writeServiceError(w, workflow.NewUploadError("Failed to store video", err))
		return
	}

	testID := r.FormValue("testId")
	questionIDStr := r.FormValue("questionId")
	durationStr := r.FormValue("recordingDuration")
	if testID == "" || questionIDStr == "" || durationStr == "" {
		upload.Discard(staged)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}
	questionID, err := strconv.Atoi(questionIDStr)
	if err != nil {
		upload.Discard(staged)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}
	duration, err := strconv.Atoi(durationStr)
	if err != nil || duration < 0 {
		upload.Discard(staged)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}

	attempt, err := h.workflow.AttemptForUser(testID, user.ID)
	if err != nil {
		upload.Discard(staged)
		writeServiceError(w, err)
		return
	}

	finalPath, err := h.uploads.Promote(staged, attempt.TestType, sess.UserName, questionID)
	if err != nil {
		writeServiceError(w, workflow.NewUploadError("Failed to store video", err))
		return
	}

	responseID, err := h.workflow.SaveResponse(testID, user.ID, questionID, duration, finalPath)
	if err != nil {
		upload.Discard(finalPath)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "responseId": responseID})
}

type completeRequest struct {
	TestID string `json:"testId"`
}

func (h *Handler) handleCompleteSubjective(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TestID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "testId is required"})
		return
	}

	if err := h.workflow.Complete(req.TestID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	testID := chi.URLParam(r, "testID")

	results, err := h.workflow.ResultsFor(testID, user.ID)
	if err != nil {
		if workflow.CodeOf(err) == workflow.ErrorForbidden {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			renderPage(w, "error", views.ErrorPage{
				Page:    h.page(r, "Forbidden"),
				Heading: "Access Denied",
				Message: "You do not have access to these results.",
			})
			return
		}
		slog.Warn("results page refused", "test_id", testID, "user_id", user.ID, "error", err)
		http.Redirect(w, r, h.path("/dashboard"), http.StatusSeeOther)
		return
	}

	renderPage(w, "test_results", views.ResultsPage{
		Page:      h.page(r, results.TestName+" Results"),
		TestName:  results.TestName,
		Attempt:   results.Attempt,
		Summary:   results.Summary,
		Responses: results.Responses,
		HasScore:  results.Summary.MaxScore > 0,
	})
}
