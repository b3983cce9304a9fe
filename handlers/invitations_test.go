package handlers_test

import (
	"net/http"
	"testing"

	"talentgate/models"
)

func TestCreateInvitation(t *testing.T) {
	env := setupEnv(t)
	bearer := env.recruiter(t, "company-1", "recruiter@example.com")
	assessment := env.assessment(t, "company-1")

	t.Run("success", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/invitations", bearer, map[string]interface{}{
			"candidateEmail": "candidate@example.com",
			"assessmentId":   assessment.ID,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			InvitationID string `json:"invitationId"`
			Token        string `json:"token"`
		}
		decodeBody(t, rec, &resp)
		if resp.InvitationID == "" || resp.Token == "" {
			t.Errorf("expected invitation id and token, got %+v", resp)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/invitations", "", map[string]interface{}{
			"candidateEmail": "candidate@example.com",
			"assessmentId":   assessment.ID,
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed email", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/invitations", bearer, map[string]interface{}{
			"candidateEmail": "not-an-email",
			"assessmentId":   assessment.ID,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "validation_error" {
			t.Errorf("expected code validation_error, got %q", code)
		}
	})

	t.Run("unknown assessment", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/invitations", bearer, map[string]interface{}{
			"candidateEmail": "candidate@example.com",
			"assessmentId":   "no-such-assessment",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("another company's assessment", func(t *testing.T) {
		otherAssessment := env.assessment(t, "company-2")
		rec := env.request(t, http.MethodPost, "/api/invitations", bearer, map[string]interface{}{
			"candidateEmail": "candidate@example.com",
			"assessmentId":   otherAssessment.ID,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("negative ttl", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/invitations", bearer, map[string]interface{}{
			"candidateEmail": "candidate@example.com",
			"assessmentId":   assessment.ID,
			"ttlHours":       -1,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestListInvitations_CompanyScoped(t *testing.T) {
	env := setupEnv(t)
	bearer := env.recruiter(t, "company-1", "recruiter@example.com")
	otherBearer := env.recruiter(t, "company-2", "other@example.com")
	assessment := env.assessment(t, "company-1")

	env.issue(t, bearer, assessment.ID, nil)
	env.issue(t, bearer, assessment.ID, nil)

	rec := env.request(t, http.MethodGet, "/api/invitations", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", got)
	}
	var list []models.Invitation
	decodeBody(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 invitations, got %d", len(list))
	}
	for _, inv := range list {
		if inv.CompanyID != "company-1" {
			t.Errorf("leaked invitation of company %q", inv.CompanyID)
		}
	}

	rec = env.request(t, http.MethodGet, "/api/invitations", otherBearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("expected empty list for other company, got %d", len(list))
	}
}

func TestDeleteInvitation(t *testing.T) {
	env := setupEnv(t)
	bearer := env.recruiter(t, "company-1", "recruiter@example.com")
	assessment := env.assessment(t, "company-1")

	t.Run("success", func(t *testing.T) {
		invitationID, token := env.issue(t, bearer, assessment.ID, nil)

		rec := env.request(t, http.MethodDelete, "/api/invitations/"+invitationID, bearer, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		// The deleted invitation's token is dead.
		rec = env.request(t, http.MethodGet, "/api/assessment/session?token="+token, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", rec.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := env.request(t, http.MethodDelete, "/api/invitations/no-such-id", bearer, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("cross-company", func(t *testing.T) {
		invitationID, _ := env.issue(t, bearer, assessment.ID, nil)
		otherBearer := env.recruiter(t, "company-2", "cross@example.com")

		rec := env.request(t, http.MethodDelete, "/api/invitations/"+invitationID, otherBearer, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 cross-company, got %d", rec.Code)
		}
	})

	t.Run("completed invitation refused", func(t *testing.T) {
		invitationID, token := env.issue(t, bearer, assessment.ID, nil)

		rec := env.request(t, http.MethodPost, "/api/assessment/submit", "", map[string]interface{}{
			"token":   token,
			"answers": []map[string]interface{}{{"questionId": "q1", "choice": 1}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 submitting, got %d", rec.Code)
		}

		rec = env.request(t, http.MethodDelete, "/api/invitations/"+invitationID, bearer, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409 deleting completed invitation, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "conflict" {
			t.Errorf("expected code conflict, got %q", code)
		}
	})
}

func TestRevokeInvitation(t *testing.T) {
	env := setupEnv(t)
	bearer := env.recruiter(t, "company-1", "recruiter@example.com")
	assessment := env.assessment(t, "company-1")

	invitationID, _ := env.issue(t, bearer, assessment.ID, nil)

	rec := env.request(t, http.MethodPost, "/api/invitations/"+invitationID+"/revoke", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var inv models.Invitation
	decodeBody(t, rec, &inv)
	if inv.Status != models.InvitationRevoked {
		t.Errorf("expected status revoked, got %q", inv.Status)
	}

	// Revoking twice is a conflict.
	rec = env.request(t, http.MethodPost, "/api/invitations/"+invitationID+"/revoke", bearer, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second revoke, got %d", rec.Code)
	}
}
