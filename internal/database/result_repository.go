package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"talentgate/models"
)

var (
	// ErrResultExists is returned when a result was already recorded for the
	// invitation. The UNIQUE constraint on invitation_id is the ground truth
	// for which of two concurrent submissions wins.
	ErrResultExists = errors.New("result already recorded for invitation")

	// ErrStaleStatus is returned when the invitation left a completable state
	// between the caller's resolve and the completion write.
	ErrStaleStatus = errors.New("invitation is not in a completable state")
)

// ResultRepository persists assessment results. Results are write-once:
// created only through Complete and never mutated afterwards.
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a result repository over the given connection.
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Complete records the result and flips its invitation to completed in a
// single transaction; either both take effect or neither. A duplicate
// submission fails the insert on the unique invitation_id and the status
// flip is skipped.
func (r *ResultRepository) Complete(res *models.AssessmentResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin completion: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO assessment_results (id, invitation_id, answers, score, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		res.ID, res.InvitationID, string(answers), res.Score, res.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrResultExists
		}
		return fmt.Errorf("insert result: %w", err)
	}

	upd, err := tx.Exec(
		`UPDATE invitations SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(models.InvitationCompleted), time.Now().UTC(), res.InvitationID,
		string(models.InvitationPending), string(models.InvitationOpened),
	)
	if err != nil {
		return fmt.Errorf("complete invitation %s: %w", res.InvitationID, err)
	}
	affected, err := upd.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete invitation %s: %w", res.InvitationID, err)
	}
	if affected == 0 {
		// Revoked or expired since the caller resolved; the rollback also
		// discards the inserted result.
		return ErrStaleStatus
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}

// GetByInvitation returns the result recorded for an invitation, if any.
func (r *ResultRepository) GetByInvitation(invitationID string) (*models.AssessmentResult, error) {
	row := r.db.QueryRow(
		`SELECT id, invitation_id, answers, score, submitted_at FROM assessment_results WHERE invitation_id = ?`,
		invitationID,
	)

	var res models.AssessmentResult
	var answers string
	err := row.Scan(&res.ID, &res.InvitationID, &answers, &res.Score, &res.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan result: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &res.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return &res, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
