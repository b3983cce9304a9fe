package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"talentgate/internal/auth"
	"talentgate/services/accounts"
)

// AccountsHandler handles employee account management endpoints (admin only).
type AccountsHandler struct {
	accounts *accounts.Service
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accountsSvc *accounts.Service) *AccountsHandler {
	return &AccountsHandler{accounts: accountsSvc}
}

// CreateAccountRequest represents the create account request body.
type CreateAccountRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// List returns the accounts of the caller's company.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	list := h.accounts.List(identity.CompanyID)
	resp := make([]AccountResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, AccountResponse{
			ID:        a.ID,
			CompanyID: a.CompanyID,
			Email:     a.Email,
			Name:      a.Name,
			IsAdmin:   a.IsAdmin,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create registers a new recruiter account in the caller's company.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	account, err := h.accounts.Create(identity.CompanyID, req.Email, req.Name, req.Password, req.IsAdmin)
	if err != nil {
		switch err {
		case accounts.ErrEmailExists:
			writeError(w, http.StatusConflict, "conflict", err.Error())
		case accounts.ErrEmailRequired, accounts.ErrInvalidEmail, accounts.ErrPasswordRequired:
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			log.Printf("accounts: create account in company %s: %v", identity.CompanyID, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to create account")
		}
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{
		ID:        account.ID,
		CompanyID: account.CompanyID,
		Email:     account.Email,
		Name:      account.Name,
		IsAdmin:   account.IsAdmin,
	})
}
