package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"talentgate/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// InvitationRepository persists invitations. Every status change goes through
// a conditional UPDATE guarded by the expected current status, so concurrent
// writers cannot race a transition past a terminal state.
type InvitationRepository struct {
	db *sql.DB
}

// NewInvitationRepository creates an invitation repository over the given connection.
func NewInvitationRepository(db *sql.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = "id, token, candidate_email, assessment_id, company_id, created_by, status, expires_at, created_at, updated_at"

// Create inserts a new invitation record.
func (r *InvitationRepository) Create(inv *models.Invitation) error {
	_, err := r.db.Exec(
		`INSERT INTO invitations (`+invitationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Token, inv.CandidateEmail, inv.AssessmentID, inv.CompanyID,
		inv.CreatedBy, string(inv.Status), inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// GetByToken returns the invitation with an exact token match.
func (r *InvitationRepository) GetByToken(token string) (*models.Invitation, error) {
	row := r.db.QueryRow(`SELECT `+invitationColumns+` FROM invitations WHERE token = ?`, token)
	return scanInvitation(row)
}

// GetByID returns the invitation with the given id.
func (r *InvitationRepository) GetByID(id string) (*models.Invitation, error) {
	row := r.db.QueryRow(`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

// ListByCompany returns all invitations owned by a company, newest first.
func (r *InvitationRepository) ListByCompany(companyID string) ([]models.Invitation, error) {
	rows, err := r.db.Query(
		`SELECT `+invitationColumns+` FROM invitations WHERE company_id = ? ORDER BY created_at DESC, id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// TransitionStatus moves an invitation to the given status only when its
// current status is one of from. It reports whether a row actually changed;
// a false return with nil error means another writer got there first.
func (r *InvitationRepository) TransitionStatus(id string, to models.InvitationStatus, from ...models.InvitationStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("transition invitation %s: no source status", id)
	}

	placeholders := strings.Repeat("?, ", len(from)-1) + "?"
	args := make([]interface{}, 0, len(from)+3)
	args = append(args, string(to), time.Now().UTC(), id)
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := r.db.Exec(
		`UPDATE invitations SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("transition invitation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition invitation %s: %w", id, err)
	}
	return affected > 0, nil
}

// ExpireOverdue flips all pending/opened invitations whose deadline has
// passed to expired. The same conditional write the resolver uses, applied in
// bulk, so the sweep and lazy expiry-on-read cannot disagree.
func (r *InvitationRepository) ExpireOverdue(now time.Time) (int, error) {
	res, err := r.db.Exec(
		`UPDATE invitations SET status = ?, updated_at = ? WHERE expires_at < ? AND status IN (?, ?)`,
		string(models.InvitationExpired), now, now,
		string(models.InvitationPending), string(models.InvitationOpened),
	)
	if err != nil {
		return 0, fmt.Errorf("expire overdue invitations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire overdue invitations: %w", err)
	}
	return int(affected), nil
}

// DeleteOwned removes an invitation only when it was created by the given
// account and has not completed. Completed invitations are guarded twice: by
// the status condition here and by the foreign key from assessment_results.
func (r *InvitationRepository) DeleteOwned(id, createdBy string) (bool, error) {
	res, err := r.db.Exec(
		`DELETE FROM invitations WHERE id = ? AND created_by = ? AND status != ?`,
		id, createdBy, string(models.InvitationCompleted),
	)
	if err != nil {
		return false, fmt.Errorf("delete invitation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete invitation %s: %w", id, err)
	}
	return affected > 0, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInvitation(row scanner) (*models.Invitation, error) {
	var inv models.Invitation
	var status string
	err := row.Scan(
		&inv.ID, &inv.Token, &inv.CandidateEmail, &inv.AssessmentID, &inv.CompanyID,
		&inv.CreatedBy, &status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invitation: %w", err)
	}
	inv.Status = models.InvitationStatus(status)
	return &inv, nil
}
