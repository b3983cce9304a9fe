package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"talentgate/api"
	"talentgate/handlers"
	"talentgate/internal/database"
	"talentgate/models"
	"talentgate/services/accounts"
	"talentgate/services/assessments"
	"talentgate/services/attempts"
	"talentgate/services/invitations"
	"talentgate/services/sessions"
	"talentgate/utils"
)

// testEnv wires real services behind the same routes the server registers.
type testEnv struct {
	router      http.Handler
	accounts    *accounts.Service
	sessions    *sessions.Service
	assessments *assessments.Service
	invitations *invitations.Service
	attempts    *attempts.Service
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accountsSvc, err := accounts.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create accounts service: %v", err)
	}
	sessionsSvc, err := sessions.NewService(dir, time.Hour)
	if err != nil {
		t.Fatalf("failed to create sessions service: %v", err)
	}
	assessmentsSvc, err := assessments.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create assessments service: %v", err)
	}

	invitationsSvc := invitations.NewService(database.NewInvitationRepository(db.Connection()), assessmentsSvc, nil)
	attemptsSvc := attempts.NewService(invitationsSvc, database.NewResultRepository(db.Connection()), assessmentsSvc)

	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc)
	accountsHandler := handlers.NewAccountsHandler(accountsSvc)
	assessmentsHandler := handlers.NewAssessmentsHandler(assessmentsSvc)
	invitationsHandler := handlers.NewInvitationsHandler(invitationsSvc)
	assessmentHandler := handlers.NewAssessmentHandler(invitationsSvc, attemptsSvc, assessmentsSvc)

	router := utils.NewRouter()

	public := router.PathPrefix("/api").Subrouter()
	public.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/assessment/session", assessmentHandler.Session).Methods(http.MethodGet)
	public.HandleFunc("/assessment/submit", assessmentHandler.Submit).Methods(http.MethodPost)

	secured := router.PathPrefix("/api").Subrouter()
	secured.Use(api.AuthMiddleware(sessionsSvc))
	secured.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	secured.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	secured.HandleFunc("/assessments", assessmentsHandler.Create).Methods(http.MethodPost)
	secured.HandleFunc("/assessments", assessmentsHandler.List).Methods(http.MethodGet)
	secured.HandleFunc("/assessments/{assessmentID}", assessmentsHandler.Get).Methods(http.MethodGet)
	secured.HandleFunc("/invitations", invitationsHandler.Create).Methods(http.MethodPost)
	secured.HandleFunc("/invitations", invitationsHandler.List).Methods(http.MethodGet)
	secured.HandleFunc("/invitations/{invitationID}", invitationsHandler.Delete).Methods(http.MethodDelete)
	secured.HandleFunc("/invitations/{invitationID}/revoke", invitationsHandler.Revoke).Methods(http.MethodPost)
	secured.HandleFunc("/assessment/results/by-invitation/{invitationID}", assessmentHandler.ResultByInvitation).Methods(http.MethodGet)

	admin := router.PathPrefix("/api").Subrouter()
	admin.Use(api.AuthMiddleware(sessionsSvc), api.AdminOnlyMiddleware())
	admin.HandleFunc("/accounts", accountsHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/accounts", accountsHandler.List).Methods(http.MethodGet)

	return &testEnv{
		router:      router,
		accounts:    accountsSvc,
		sessions:    sessionsSvc,
		assessments: assessmentsSvc,
		invitations: invitationsSvc,
		attempts:    attemptsSvc,
	}
}

// recruiter creates an account in the given company and opens a session,
// returning the bearer token.
func (env *testEnv) recruiter(t *testing.T, companyID, email string) string {
	t.Helper()
	account, err := env.accounts.Create(companyID, email, "Recruiter", "secret", false)
	if err != nil {
		t.Fatalf("failed to create recruiter account: %v", err)
	}
	session, err := env.sessions.Create(account, "test", "127.0.0.1")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session.Token
}

// assessment registers a two-question assessment in the given company.
func (env *testEnv) assessment(t *testing.T, companyID string) models.Assessment {
	t.Helper()
	assessment, err := env.assessments.Create(companyID, "Backend Screen", []models.Question{
		{ID: "q1", Prompt: "2+2?", Choices: []string{"3", "4"}, Correct: 1},
		{ID: "q2", Prompt: "Capital of France?", Choices: []string{"Paris", "Rome"}, Correct: 0},
	})
	if err != nil {
		t.Fatalf("failed to create assessment: %v", err)
	}
	return assessment
}

// request performs an HTTP request against the router. A non-empty token is
// sent as a bearer credential; a non-nil body is JSON encoded.
func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// errorCode extracts the stable reason code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &body)
	return body.Code
}

// issue creates an invitation over HTTP and returns its id and token.
func (env *testEnv) issue(t *testing.T, bearer, assessmentID string, ttlHours *int) (string, string) {
	t.Helper()
	rec := env.request(t, http.MethodPost, "/api/invitations", bearer, map[string]interface{}{
		"candidateEmail": "candidate@example.com",
		"assessmentId":   assessmentID,
		"ttlHours":       ttlHours,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating invitation, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.CreateInvitationResponse
	decodeBody(t, rec, &resp)
	return resp.InvitationID, resp.Token
}

func intPtr(v int) *int { return &v }
