package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ballotbox/internal/voter"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/dberr"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/platform/tx"
)

// PostgresStore writes the ledger. Uniqueness is enforced by the partial
// indexes uq_poll_voters_user and uq_poll_voters_document; a losing insert
// surfaces as voter.ErrAlreadyVoted. Calls join the transaction in ctx.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const voterColumns = `id, poll_id, user_id, document_type, document_number, origin,
	booth_assignment_id, officer_id, created_at`

func (s *PostgresStore) Insert(ctx context.Context, v *voter.Voter) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO poll_voters (`+voterColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		uuid.UUID(v.ID),
		uuid.UUID(v.PollID),
		nullUUID(uuid.UUID(v.UserID)),
		nullString(string(v.DocumentType)),
		nullString(v.DocumentNumber),
		string(v.Origin),
		nullUUID(uuid.UUID(v.BoothAssignmentID)),
		nullUUID(uuid.UUID(v.OfficerID)),
		v.CreatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return voter.ErrAlreadyVoted
		}
		return fmt.Errorf("insert voter: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByIdentity(ctx context.Context, pollID id.PollID, who voter.Identity) (*voter.Voter, error) {
	if who.IsEmpty() {
		return nil, sentinel.ErrNotFound
	}
	v, err := scanVoter(tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+voterColumns+`
		FROM poll_voters
		WHERE poll_id = $1
		  AND ((user_id IS NOT NULL AND user_id = $2)
		    OR (document_number IS NOT NULL AND document_number = $3))
		ORDER BY created_at
		LIMIT 1
	`, uuid.UUID(pollID), nullUUID(uuid.UUID(who.UserID)), nullString(who.DocumentNumber)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find voter by identity: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) CountByBoothAssignment(ctx context.Context, boothID id.BoothAssignmentID) (int, error) {
	var n int
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM poll_voters WHERE booth_assignment_id = $1
	`, uuid.UUID(boothID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count voters by booth: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountByPoll(ctx context.Context, pollID id.PollID) (int, error) {
	var n int
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM poll_voters WHERE poll_id = $1
	`, uuid.UUID(pollID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count voters by poll: %w", err)
	}
	return n, nil
}

func scanVoter(row *sql.Row) (*voter.Voter, error) {
	var (
		v                          voter.Voter
		rawID, rawPoll             uuid.UUID
		userID, boothID, officerID uuid.NullUUID
		docType, docNumber         sql.NullString
		origin                     string
	)
	if err := row.Scan(&rawID, &rawPoll, &userID, &docType, &docNumber, &origin, &boothID, &officerID, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.ID = id.VoterID(rawID)
	v.PollID = id.PollID(rawPoll)
	v.UserID = id.UserID(userID.UUID)
	v.DocumentType = id.DocumentType(docType.String)
	v.DocumentNumber = docNumber.String
	v.Origin = voter.Origin(origin)
	v.BoothAssignmentID = id.BoothAssignmentID(boothID.UUID)
	v.OfficerID = id.UserID(officerID.UUID)
	return &v, nil
}

// nullUUID maps the zero UUID to SQL NULL.
func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
