package attempts

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"talentgate/internal/auth"
	"talentgate/internal/database"
	"talentgate/models"
	"talentgate/services/invitations"
)

// ErrResultNotFound is returned when no result exists for an invitation.
var ErrResultNotFound = errors.New("result not found")

// Scorer grades submitted answers against an assessment's key.
type Scorer interface {
	Score(assessmentID string, answers []models.Answer) (int, error)
}

// Service binds one resolved invitation to exactly one assessment attempt
// and exactly one result record.
type Service struct {
	invitations *invitations.Service
	results     *database.ResultRepository
	assessments Scorer
}

// NewService creates an attempts service.
func NewService(invitationsSvc *invitations.Service, results *database.ResultRepository, assessments Scorer) *Service {
	return &Service{invitations: invitationsSvc, results: results, assessments: assessments}
}

// Submit records the candidate's answers for the invitation identified by
// token. Exactly one submission ever succeeds per invitation: the unique
// result row is the ground truth, so a concurrent duplicate loses regardless
// of what its earlier resolve observed.
func (s *Service) Submit(token string, answers []models.Answer) (models.AssessmentResult, error) {
	inv, err := s.invitations.Resolve(token)
	if err != nil {
		return models.AssessmentResult{}, err
	}

	score, err := s.assessments.Score(inv.AssessmentID, answers)
	if err != nil {
		return models.AssessmentResult{}, err
	}

	res := models.AssessmentResult{
		ID:           uuid.NewString(),
		InvitationID: inv.ID,
		Answers:      answers,
		Score:        score,
		SubmittedAt:  time.Now().UTC(),
	}

	if err := s.results.Complete(&res); err != nil {
		switch {
		case errors.Is(err, database.ErrResultExists):
			return models.AssessmentResult{}, invitations.ErrAlreadyUsed
		case errors.Is(err, database.ErrStaleStatus):
			// The invitation left a completable state under us; re-resolve
			// for the precise denial reason.
			if _, rerr := s.invitations.Resolve(token); rerr != nil {
				return models.AssessmentResult{}, rerr
			}
			return models.AssessmentResult{}, invitations.ErrAlreadyUsed
		}
		return models.AssessmentResult{}, err
	}

	return res, nil
}

// ResultByInvitation returns the stored result for an invitation owned by
// the caller's company.
func (s *Service) ResultByInvitation(identity auth.Identity, invitationID string) (models.AssessmentResult, error) {
	inv, err := s.invitations.Get(identity, invitationID)
	if err != nil {
		return models.AssessmentResult{}, err
	}

	res, err := s.results.GetByInvitation(inv.ID)
	if errors.Is(err, database.ErrNotFound) {
		return models.AssessmentResult{}, ErrResultNotFound
	}
	if err != nil {
		return models.AssessmentResult{}, err
	}
	return *res, nil
}
