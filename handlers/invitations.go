package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"talentgate/internal/auth"
	"talentgate/services/invitations"
)

// InvitationsHandler handles employee-facing invitation endpoints.
type InvitationsHandler struct {
	invitations *invitations.Service
}

// NewInvitationsHandler creates a new invitations handler.
func NewInvitationsHandler(invitationsSvc *invitations.Service) *InvitationsHandler {
	return &InvitationsHandler{invitations: invitationsSvc}
}

// CreateInvitationRequest represents the create invitation request body.
// TTLHours is a pointer so an explicit zero (an invitation born expired) can
// be told apart from an omitted field, which gets the default lifetime.
type CreateInvitationRequest struct {
	CandidateEmail string `json:"candidateEmail"`
	AssessmentID   string `json:"assessmentId"`
	TTLHours       *int   `json:"ttlHours"`
}

// CreateInvitationResponse is the issued invitation's public identifiers.
type CreateInvitationResponse struct {
	InvitationID string `json:"invitationId"`
	Token        string `json:"token"`
}

// Create issues a new invitation on behalf of the authenticated employee.
func (h *InvitationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	ttl := invitations.DefaultTTL
	if req.TTLHours != nil {
		ttl = time.Duration(*req.TTLHours) * time.Hour
	}

	inv, err := h.invitations.Issue(identity, req.CandidateEmail, req.AssessmentID, ttl)
	if err != nil {
		switch {
		case errors.Is(err, invitations.ErrInvalidEmail),
			errors.Is(err, invitations.ErrUnknownAssessment),
			errors.Is(err, invitations.ErrInvalidTTL):
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			log.Printf("invitations: issue for company %s: %v", identity.CompanyID, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to issue invitation")
		}
		return
	}

	writeJSON(w, http.StatusCreated, CreateInvitationResponse{
		InvitationID: inv.ID,
		Token:        inv.Token,
	})
}

// List returns all invitations issued by the caller's company.
func (h *InvitationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	list, err := h.invitations.ListForCompany(identity)
	if err != nil {
		log.Printf("invitations: list for company %s: %v", identity.CompanyID, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list invitations")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, list)
}

// Delete removes an invitation. Only the issuing employee may delete, and
// never once the invitation has completed.
func (h *InvitationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := mux.Vars(r)["invitationID"]
	if err := h.invitations.Delete(identity, id); err != nil {
		switch {
		case errors.Is(err, invitations.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "invitation not found")
		case errors.Is(err, invitations.ErrCompletedDelete):
			writeError(w, http.StatusConflict, "conflict", "completed invitations cannot be deleted")
		default:
			log.Printf("invitations: delete %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete invitation")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Revoke cancels a still-usable invitation of the caller's company.
func (h *InvitationsHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := mux.Vars(r)["invitationID"]
	inv, err := h.invitations.Revoke(identity, id)
	if err != nil {
		switch {
		case errors.Is(err, invitations.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "invitation not found")
		case errors.Is(err, invitations.ErrNotRevocable):
			writeError(w, http.StatusConflict, "conflict", "invitation is no longer revocable")
		default:
			log.Printf("invitations: revoke %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to revoke invitation")
		}
		return
	}

	writeJSON(w, http.StatusOK, inv)
}
