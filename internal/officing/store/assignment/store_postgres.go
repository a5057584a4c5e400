package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/dberr"
	"ballotbox/pkg/platform/sentinel"
)

// PostgresStore reads officers and shifts. Shift planning happens in the
// administration backoffice; SaveAssignment exists for seeding and tooling.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindOfficer(ctx context.Context, officerID id.UserID) (*models.Officer, error) {
	var o models.Officer
	var rawID uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, letter_officer FROM poll_officers WHERE user_id = $1
	`, uuid.UUID(officerID)).Scan(&rawID, &o.Name, &o.LetterOfficer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find officer: %w", err)
	}
	o.UserID = id.UserID(rawID)
	return &o, nil
}

func (s *PostgresStore) HasAssignment(ctx context.Context, officerID id.UserID, boothID id.BoothAssignmentID, date string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM poll_officer_assignments
			WHERE officer_id = $1 AND booth_assignment_id = $2 AND date = $3::date
		)
	`, uuid.UUID(officerID), uuid.UUID(boothID), date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check officer assignment: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SaveAssignment(ctx context.Context, a *models.Assignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poll_officer_assignments (id, officer_id, booth_assignment_id, date)
		VALUES ($1, $2, $3, $4::date)
	`, a.ID, uuid.UUID(a.OfficerID), uuid.UUID(a.BoothAssignmentID), a.Date)
	if err != nil {
		switch {
		case dberr.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		case dberr.IsUniqueViolation(err):
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save officer assignment: %w", err)
	}
	return nil
}
