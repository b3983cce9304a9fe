package models

import "time"

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationOpened    InvitationStatus = "opened"
	InvitationCompleted InvitationStatus = "completed"
	InvitationExpired   InvitationStatus = "expired"
	InvitationRevoked   InvitationStatus = "revoked"
)

// Terminal reports whether no further transitions are allowed from s.
func (s InvitationStatus) Terminal() bool {
	switch s {
	case InvitationCompleted, InvitationExpired, InvitationRevoked:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step. pending may open; pending and opened may complete, expire or be
// revoked; terminal states never move again.
func (s InvitationStatus) CanTransition(next InvitationStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case InvitationOpened:
		return s == InvitationPending
	case InvitationCompleted, InvitationExpired, InvitationRevoked:
		return s == InvitationPending || s == InvitationOpened
	}
	return false
}

// Invitation is a single-use, time-bounded credential granting one candidate
// access to one assessment. The token is immutable once created and is never
// reused across invitations.
type Invitation struct {
	ID             string           `json:"id"`
	Token          string           `json:"token"`
	CandidateEmail string           `json:"candidateEmail"`
	AssessmentID   string           `json:"assessmentId"`
	CompanyID      string           `json:"companyId"`
	CreatedBy      string           `json:"createdBy"` // Account ID of the issuing employee
	Status         InvitationStatus `json:"status"`
	ExpiresAt      time.Time        `json:"expiresAt"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// ExpiredAt reports whether the invitation is past its deadline at now.
// Expiry is computed from ExpiresAt, never read back from the stored status.
func (i *Invitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
