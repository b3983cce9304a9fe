package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"talentgate/internal/auth"
	"talentgate/models"
	"talentgate/services/assessments"
)

// AssessmentsHandler handles assessment definition endpoints (employee only).
type AssessmentsHandler struct {
	assessments *assessments.Service
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(assessmentsSvc *assessments.Service) *AssessmentsHandler {
	return &AssessmentsHandler{assessments: assessmentsSvc}
}

// CreateAssessmentRequest represents the create assessment request body.
type CreateAssessmentRequest struct {
	Title     string            `json:"title"`
	Questions []models.Question `json:"questions"`
}

// Create registers a new assessment definition for the caller's company.
func (h *AssessmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	assessment, err := h.assessments.Create(identity.CompanyID, req.Title, req.Questions)
	if err != nil {
		switch err {
		case assessments.ErrTitleRequired, assessments.ErrNoQuestions, assessments.ErrBadQuestion:
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			log.Printf("assessments: create in company %s: %v", identity.CompanyID, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to create assessment")
		}
		return
	}

	writeJSON(w, http.StatusCreated, assessment)
}

// List returns the caller company's assessments.
func (h *AssessmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, h.assessments.ListForCompany(identity.CompanyID))
}

// Get returns one assessment owned by the caller's company.
func (h *AssessmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := mux.Vars(r)["assessmentID"]
	assessment, ok := h.assessments.Get(id)
	if !ok || assessment.CompanyID != identity.CompanyID {
		writeError(w, http.StatusNotFound, "not_found", "assessment not found")
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}
