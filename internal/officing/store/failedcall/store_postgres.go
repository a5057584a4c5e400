package failedcall

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append never joins the caller's transaction: a failed call must be kept
// even when the surrounding work is rolled back.
func (s *PostgresStore) Append(ctx context.Context, c *models.FailedCensusCall) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failed_census_calls (
			id, officer_id, user_id, poll_id, channel, document_type,
			document_number_masked, postal_code, year_of_birth, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		c.ID,
		nullUUID(uuid.UUID(c.OfficerID)),
		nullUUID(uuid.UUID(c.UserID)),
		uuid.UUID(c.PollID),
		c.Channel,
		string(c.DocumentType),
		c.DocumentNumberMasked,
		c.PostalCode,
		sql.NullInt32{Int32: int32(c.YearOfBirth), Valid: c.YearOfBirth > 0},
		string(c.Reason),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append failed census call: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByOfficer(ctx context.Context, officerID id.UserID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM failed_census_calls WHERE officer_id = $1
	`, uuid.UUID(officerID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failed census calls: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListRecentByOfficer(ctx context.Context, officerID id.UserID, limit int) ([]*models.FailedCensusCall, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, officer_id, user_id, poll_id, channel, document_type,
		       document_number_masked, postal_code, year_of_birth, reason, created_at
		FROM failed_census_calls
		WHERE officer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uuid.UUID(officerID), limit)
	if err != nil {
		return nil, fmt.Errorf("list failed census calls: %w", err)
	}
	defer rows.Close()

	var out []*models.FailedCensusCall
	for rows.Next() {
		var (
			c               models.FailedCensusCall
			rawPoll         uuid.UUID
			officer, user   uuid.NullUUID
			docType, reason string
			yearOfBirth     sql.NullInt32
		)
		if err := rows.Scan(&c.ID, &officer, &user, &rawPoll, &c.Channel, &docType,
			&c.DocumentNumberMasked, &c.PostalCode, &yearOfBirth, &reason, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed census call: %w", err)
		}
		c.OfficerID = id.UserID(officer.UUID)
		c.UserID = id.UserID(user.UUID)
		c.PollID = id.PollID(rawPoll)
		c.DocumentType = id.DocumentType(docType)
		c.YearOfBirth = int(yearOfBirth.Int32)
		c.Reason = models.FailureReason(reason)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed census calls: %w", err)
	}
	return out, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
