package letterlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
)

// PostgresStore persists letter officer logs with the canonical message text.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, l *models.LetterOfficerLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poll_letter_officer_logs (id, officer_id, document_number, postal_code, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, l.ID, uuid.UUID(l.OfficerID), l.DocumentNumber, l.PostalCode, l.Message.Text(), l.CreatedAt)
	if err != nil {
		return fmt.Errorf("append letter officer log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOfficer(ctx context.Context, officerID id.UserID, limit int) ([]*models.LetterOfficerLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, officer_id, document_number, postal_code, message, created_at
		FROM poll_letter_officer_logs
		WHERE officer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uuid.UUID(officerID), limit)
	if err != nil {
		return nil, fmt.Errorf("list letter officer logs: %w", err)
	}
	defer rows.Close()

	var out []*models.LetterOfficerLog
	for rows.Next() {
		var l models.LetterOfficerLog
		var officer uuid.UUID
		var text string
		if err := rows.Scan(&l.ID, &officer, &l.DocumentNumber, &l.PostalCode, &text, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan letter officer log: %w", err)
		}
		msg, ok := models.ParseLetterMessageText(text)
		if !ok {
			return nil, fmt.Errorf("unknown letter officer message %q", text)
		}
		l.OfficerID = id.UserID(officer)
		l.Message = msg
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate letter officer logs: %w", err)
	}
	return out, nil
}
