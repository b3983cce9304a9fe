package invitations

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"talentgate/internal/auth"
	"talentgate/internal/database"
	"talentgate/models"
)

var (
	ErrInvalidEmail      = errors.New("candidate email is malformed")
	ErrUnknownAssessment = errors.New("assessment not found")
	ErrInvalidTTL        = errors.New("invitation ttl must not be negative")
	ErrNotFound          = errors.New("invitation not found")
	ErrExpired           = errors.New("invitation has expired")
	ErrAlreadyUsed       = errors.New("invitation has already been used")
	ErrRevoked           = errors.New("invitation has been revoked")
	ErrNotRevocable      = errors.New("invitation is no longer revocable")
	ErrCompletedDelete   = errors.New("completed invitations cannot be deleted")
)

const (
	// DefaultTTL is how long invitations are valid when the caller does not
	// specify a lifetime.
	DefaultTTL = 72 * time.Hour
	// TokenLength is the length of the generated token in bytes (before
	// base64 encoding). 32 bytes gives 256 bits of entropy.
	TokenLength = 32
)

// AssessmentDirectory validates assessment references on issue.
type AssessmentDirectory interface {
	Exists(companyID, assessmentID string) bool
}

// Notifier delivers the invitation link to the candidate. Issuing never
// fails on delivery problems; those belong to the notifier.
type Notifier interface {
	NotifyInvitation(inv models.Invitation)
}

// Service issues, resolves and manages assessment invitations.
type Service struct {
	repo        *database.InvitationRepository
	assessments AssessmentDirectory
	notifier    Notifier
}

// NewService creates an invitations service. notifier may be nil when no
// delivery channel is configured.
func NewService(repo *database.InvitationRepository, assessments AssessmentDirectory, notifier Notifier) *Service {
	return &Service{repo: repo, assessments: assessments, notifier: notifier}
}

// Issue creates a pending invitation for candidateEmail to take the given
// assessment on behalf of the authenticated employee. The candidate email is
// lowercase-normalized. A zero ttl produces an invitation that is already
// past its deadline on the next read.
func (s *Service) Issue(identity auth.Identity, candidateEmail, assessmentID string, ttl time.Duration) (models.Invitation, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(candidateEmail))
	if err != nil {
		return models.Invitation{}, ErrInvalidEmail
	}
	email := strings.ToLower(addr.Address)

	if ttl < 0 {
		return models.Invitation{}, ErrInvalidTTL
	}

	assessmentID = strings.TrimSpace(assessmentID)
	if assessmentID == "" || !s.assessments.Exists(identity.CompanyID, assessmentID) {
		return models.Invitation{}, ErrUnknownAssessment
	}

	token, err := generateToken()
	if err != nil {
		return models.Invitation{}, err
	}

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:             uuid.NewString(),
		Token:          token,
		CandidateEmail: email,
		AssessmentID:   assessmentID,
		CompanyID:      identity.CompanyID,
		CreatedBy:      identity.AccountID,
		Status:         models.InvitationPending,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(&inv); err != nil {
		return models.Invitation{}, err
	}

	if s.notifier != nil {
		s.notifier.NotifyInvitation(inv)
	}

	return inv, nil
}

// Resolve validates a presented token and advances the invitation state.
// The expiry check precedes the status check, so an invitation that expired
// before ever being opened reports expiry rather than reuse. Resolving an
// already opened invitation succeeds again: a candidate may resume an
// unfinished assessment, but never re-enter a completed one.
func (s *Service) Resolve(token string) (models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Invitation{}, ErrNotFound
	}

	inv, err := s.repo.GetByToken(token)
	if errors.Is(err, database.ErrNotFound) {
		return models.Invitation{}, ErrNotFound
	}
	if err != nil {
		return models.Invitation{}, err
	}

	now := time.Now().UTC()
	if inv.ExpiredAt(now) {
		if !inv.Status.Terminal() {
			// Lazy expiry: persist the transition, idempotently. Losing this
			// write to a concurrent resolver changes nothing.
			if _, err := s.repo.TransitionStatus(inv.ID, models.InvitationExpired,
				models.InvitationPending, models.InvitationOpened); err != nil {
				return models.Invitation{}, err
			}
		}
		return models.Invitation{}, ErrExpired
	}

	switch inv.Status {
	case models.InvitationCompleted:
		return models.Invitation{}, ErrAlreadyUsed
	case models.InvitationRevoked:
		return models.Invitation{}, ErrRevoked
	case models.InvitationExpired:
		// Stored status says expired even though the deadline has not passed
		// (clock adjustment); terminal states never come back.
		return models.Invitation{}, ErrExpired
	}

	if inv.Status == models.InvitationPending {
		if _, err := s.repo.TransitionStatus(inv.ID, models.InvitationOpened, models.InvitationPending); err != nil {
			return models.Invitation{}, err
		}
		inv.Status = models.InvitationOpened
	}

	return *inv, nil
}

// Get returns an invitation by id when it belongs to the caller's company.
// Cross-company lookups report not-found so existence is not leaked.
func (s *Service) Get(identity auth.Identity, id string) (models.Invitation, error) {
	inv, err := s.repo.GetByID(strings.TrimSpace(id))
	if errors.Is(err, database.ErrNotFound) {
		return models.Invitation{}, ErrNotFound
	}
	if err != nil {
		return models.Invitation{}, err
	}
	if inv.CompanyID != identity.CompanyID {
		return models.Invitation{}, ErrNotFound
	}
	return *inv, nil
}

// Revoke cancels a still-usable invitation. Any employee of the owning
// company may revoke; terminal invitations cannot be revoked.
func (s *Service) Revoke(identity auth.Identity, id string) (models.Invitation, error) {
	inv, err := s.Get(identity, id)
	if err != nil {
		return models.Invitation{}, err
	}

	changed, err := s.repo.TransitionStatus(inv.ID, models.InvitationRevoked,
		models.InvitationPending, models.InvitationOpened)
	if err != nil {
		return models.Invitation{}, err
	}
	if !changed {
		return models.Invitation{}, ErrNotRevocable
	}

	inv.Status = models.InvitationRevoked
	return inv, nil
}

// Delete removes an invitation. Only the issuing employee may delete, and
// never once the invitation has completed: that would orphan its result.
func (s *Service) Delete(identity auth.Identity, id string) error {
	inv, err := s.Get(identity, id)
	if err != nil {
		return err
	}
	if inv.CreatedBy != identity.AccountID {
		return ErrNotFound
	}
	if inv.Status == models.InvitationCompleted {
		return ErrCompletedDelete
	}

	deleted, err := s.repo.DeleteOwned(inv.ID, identity.AccountID)
	if err != nil {
		return err
	}
	if !deleted {
		// Lost a race with a concurrent submission; report the conflict
		// rather than a missing record.
		if cur, err := s.repo.GetByID(inv.ID); err == nil && cur.Status == models.InvitationCompleted {
			return ErrCompletedDelete
		}
		return ErrNotFound
	}
	return nil
}

// ListForCompany returns all invitations issued by the caller's company.
func (s *Service) ListForCompany(identity auth.Identity) ([]models.Invitation, error) {
	return s.repo.ListByCompany(identity.CompanyID)
}

// ExpireOverdue flips every pending or opened invitation past its deadline
// to expired. Called by the background sweep; resolving lazily expires the
// same way, so both paths converge on identical state.
func (s *Service) ExpireOverdue() (int, error) {
	return s.repo.ExpireOverdue(time.Now().UTC())
}

func generateToken() (string, error) {
	buf := make([]byte, TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
