package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"talentgate/internal/auth"
	"talentgate/services/accounts"
	"talentgate/services/sessions"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accounts *accounts.Service
	sessions *sessions.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accountsSvc *accounts.Service, sessionsSvc *sessions.Service) *AuthHandler {
	return &AuthHandler{
		accounts: accountsSvc,
		sessions: sessionsSvc,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	AccountID string `json:"accountId"`
	CompanyID string `json:"companyId"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Login authenticates an employee and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	account, err := h.accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}

	session, err := h.sessions.Create(account, r.Header.Get("User-Agent"), getClientIPAddress(r))
	if err != nil {
		log.Printf("auth: create session for account %s: %v", account.ID, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
		AccountID: account.ID,
		CompanyID: account.CompanyID,
		Email:     account.Email,
		IsAdmin:   account.IsAdmin,
	})
}

// Logout invalidates the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "no session token")
		return
	}

	if err := h.sessions.Revoke(token); err != nil {
		// Session not found is OK - might already be expired
		if err != sessions.ErrSessionNotFound {
			log.Printf("auth: revoke session: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to revoke session")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// AccountResponse represents account info response.
type AccountResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Me returns the current authenticated account info.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	account, ok := h.accounts.Get(identity.AccountID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "account not found")
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{
		ID:        account.ID,
		CompanyID: account.CompanyID,
		Email:     account.Email,
		Name:      account.Name,
		IsAdmin:   account.IsAdmin,
	})
}
