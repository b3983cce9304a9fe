package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"talentgate/internal/auth"
	"talentgate/models"
	"talentgate/services/assessments"
	"talentgate/services/attempts"
	"talentgate/services/invitations"
)

// AssessmentHandler handles the candidate-facing assessment session flow and
// the employee-facing result lookup.
type AssessmentHandler struct {
	invitations *invitations.Service
	attempts    *attempts.Service
	assessments *assessments.Service
}

// NewAssessmentHandler creates a new assessment session handler.
func NewAssessmentHandler(invitationsSvc *invitations.Service, attemptsSvc *attempts.Service, assessmentsSvc *assessments.Service) *AssessmentHandler {
	return &AssessmentHandler{
		invitations: invitationsSvc,
		attempts:    attemptsSvc,
		assessments: assessmentsSvc,
	}
}

// writeDenial maps resolver denials to their HTTP status and stable reason
// code. Returns false when err is not a denial.
func writeDenial(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, invitations.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "invitation not found")
	case errors.Is(err, invitations.ErrExpired):
		writeError(w, http.StatusGone, "expired", "invitation has expired")
	case errors.Is(err, invitations.ErrAlreadyUsed):
		writeError(w, http.StatusConflict, "already_used", "assessment has already been submitted")
	case errors.Is(err, invitations.ErrRevoked):
		writeError(w, http.StatusForbidden, "revoked", "invitation has been revoked")
	default:
		return false
	}
	return true
}

// SessionResponse is the candidate-facing view of a resolved invitation.
type SessionResponse struct {
	AssessmentID   string                  `json:"assessmentId"`
	CandidateEmail string                  `json:"candidateEmail"`
	Title          string                  `json:"title"`
	Questions      []models.PublicQuestion `json:"questions"`
	ExpiresAt      string                  `json:"expiresAt"`
}

// Session resolves an invitation token and opens the assessment session.
// Public endpoint; the token is the sole credential. Resolving mutates
// invitation state, so responses are never cacheable.
func (h *AssessmentHandler) Session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "token is required")
		return
	}

	inv, err := h.invitations.Resolve(token)
	if err != nil {
		if writeDenial(w, err) {
			return
		}
		log.Printf("assessment: resolve session token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to resolve invitation")
		return
	}

	resp := SessionResponse{
		AssessmentID:   inv.AssessmentID,
		CandidateEmail: inv.CandidateEmail,
		ExpiresAt:      inv.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	}
	if assessment, ok := h.assessments.Get(inv.AssessmentID); ok {
		resp.Title = assessment.Title
		resp.Questions = assessment.PublicQuestions()
	}

	writeJSON(w, http.StatusOK, resp)
}

// SubmitRequest represents the submit request body.
type SubmitRequest struct {
	Token   string          `json:"token"`
	Answers []models.Answer `json:"answers"`
}

// SubmitResponse identifies the recorded result.
type SubmitResponse struct {
	ResultID string `json:"resultId"`
	Score    int    `json:"score"`
}

// Submit records the candidate's answers for their invitation. Public
// endpoint; a duplicate submission loses and gets the already_used denial.
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	result, err := h.attempts.Submit(req.Token, req.Answers)
	if err != nil {
		if writeDenial(w, err) {
			return
		}
		switch {
		case errors.Is(err, assessments.ErrUnknownQuestion),
			errors.Is(err, assessments.ErrChoiceOutOfRange):
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			log.Printf("assessment: submit: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to record submission")
		}
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{
		ResultID: result.ID,
		Score:    result.Score,
	})
}

// ResultByInvitation returns the stored result for an invitation owned by
// the caller's company.
func (h *AssessmentHandler) ResultByInvitation(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	invitationID := mux.Vars(r)["invitationID"]
	result, err := h.attempts.ResultByInvitation(identity, invitationID)
	if err != nil {
		switch {
		case errors.Is(err, invitations.ErrNotFound), errors.Is(err, attempts.ErrResultNotFound):
			writeError(w, http.StatusNotFound, "not_found", "result not found")
		default:
			log.Printf("assessment: result for invitation %s: %v", invitationID, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to load result")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}
