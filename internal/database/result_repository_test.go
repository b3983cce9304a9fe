package database

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"talentgate/models"
)

func newTestResult(invitationID string) *models.AssessmentResult {
	return &models.AssessmentResult{
		ID:           uuid.NewString(),
		InvitationID: invitationID,
		Answers:      []models.Answer{{QuestionID: "q1", Choice: 1}},
		Score:        100,
		SubmittedAt:  time.Now().UTC(),
	}
}

func TestComplete_InsertsResultAndFlipsStatus(t *testing.T) {
	db := setupTestDB(t)
	invRepo := NewInvitationRepository(db.Connection())
	resRepo := NewResultRepository(db.Connection())

	inv := newTestInvitation(time.Hour)
	if err := invRepo.Create(inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	res := newTestResult(inv.ID)
	if err := resRepo.Complete(res); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	stored, err := resRepo.GetByInvitation(inv.ID)
	if err != nil {
		t.Fatalf("GetByInvitation failed: %v", err)
	}
	if stored.ID != res.ID {
		t.Errorf("expected result id %q, got %q", res.ID, stored.ID)
	}
	if stored.Score != 100 {
		t.Errorf("expected score 100, got %d", stored.Score)
	}
	if len(stored.Answers) != 1 || stored.Answers[0].QuestionID != "q1" {
		t.Errorf("unexpected answers %+v", stored.Answers)
	}

	updated, err := invRepo.GetByID(inv.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != models.InvitationCompleted {
		t.Errorf("expected invitation to be completed, got %q", updated.Status)
	}
}

func TestComplete_SecondResultLoses(t *testing.T) {
	db := setupTestDB(t)
	invRepo := NewInvitationRepository(db.Connection())
	resRepo := NewResultRepository(db.Connection())

	inv := newTestInvitation(time.Hour)
	if err := invRepo.Create(inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := resRepo.Complete(newTestResult(inv.ID)); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}

	err := resRepo.Complete(newTestResult(inv.ID))
	if !errors.Is(err, ErrResultExists) {
		t.Fatalf("expected ErrResultExists, got %v", err)
	}
}

func TestComplete_StaleStatusLeavesNoResult(t *testing.T) {
	db := setupTestDB(t)
	invRepo := NewInvitationRepository(db.Connection())
	resRepo := NewResultRepository(db.Connection())

	inv := newTestInvitation(time.Hour)
	if err := invRepo.Create(inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := invRepo.TransitionStatus(inv.ID, models.InvitationRevoked, models.InvitationPending); err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}

	err := resRepo.Complete(newTestResult(inv.ID))
	if !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}

	// The rolled-back transaction must leave no partial result behind.
	if _, err := resRepo.GetByInvitation(inv.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, _ := invRepo.GetByID(inv.ID)
	if updated.Status != models.InvitationRevoked {
		t.Errorf("expected invitation to stay revoked, got %q", updated.Status)
	}
}

func TestComplete_ConcurrentSubmissionsSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	invRepo := NewInvitationRepository(db.Connection())
	resRepo := NewResultRepository(db.Connection())

	inv := newTestInvitation(time.Hour)
	if err := invRepo.Create(inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const submitters = 8
	errs := make([]error, submitters)
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = resRepo.Complete(newTestResult(inv.ID))
		}(i)
	}
	wg.Wait()

	winners, losers := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrResultExists):
			losers++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if losers != submitters-1 {
		t.Fatalf("expected %d losers, got %d", submitters-1, losers)
	}
}

func TestDeleteOwned_ForeignKeyGuardsCompleted(t *testing.T) {
	db := setupTestDB(t)
	invRepo := NewInvitationRepository(db.Connection())
	resRepo := NewResultRepository(db.Connection())

	inv := newTestInvitation(time.Hour)
	if err := invRepo.Create(inv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := resRepo.Complete(newTestResult(inv.ID)); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// The status condition refuses the delete before the foreign key from
	// assessment_results even has to fire.
	deleted, err := invRepo.DeleteOwned(inv.ID, inv.CreatedBy)
	if err != nil {
		t.Fatalf("DeleteOwned failed: %v", err)
	}
	if deleted {
		t.Fatal("expected invitation with a result to be undeletable")
	}
}

func TestGetByInvitation_NotFound(t *testing.T) {
	db := setupTestDB(t)
	resRepo := NewResultRepository(db.Connection())

	if _, err := resRepo.GetByInvitation("no-such-invitation"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
