package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ballotbox/internal/nvote/models"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/dberr"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/platform/tx"
)

// PostgresStore persists tokens in poll_nvotes. Confirm is a single guarded
// UPDATE, so two concurrent redemptions of one token cannot both win.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const nvoteColumns = `id, user_id, poll_id, message, hash, confirmed, issued_at, confirmed_at`

func (s *PostgresStore) GetOrCreate(ctx context.Context, candidate *models.Nvote) (*models.Nvote, error) {
	exec := tx.Executor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO poll_nvotes (id, user_id, poll_id, message, hash, confirmed, issued_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT ON CONSTRAINT uq_poll_nvotes_user_poll DO NOTHING
	`,
		uuid.UUID(candidate.ID),
		uuid.UUID(candidate.UserID),
		uuid.UUID(candidate.PollID),
		candidate.Message,
		candidate.Hash,
		candidate.IssuedAt,
	)
	if err != nil {
		switch {
		case dberr.IsUniqueViolation(err):
			return nil, sentinel.ErrConflict
		case dberr.IsForeignKeyViolation(err):
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("insert nvote: %w", err)
	}
	return s.FindByOwner(ctx, candidate.UserID, candidate.PollID)
}

func (s *PostgresStore) Confirm(ctx context.Context, message, hash string, now time.Time) (*models.Nvote, error) {
	n, err := scanNvote(tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE poll_nvotes
		SET confirmed = TRUE, confirmed_at = $3
		WHERE message = $1 AND hash = $2 AND NOT confirmed
		RETURNING `+nvoteColumns,
		message, hash, now,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("confirm nvote: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) FindByOwner(ctx context.Context, userID id.UserID, pollID id.PollID) (*models.Nvote, error) {
	n, err := scanNvote(tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+nvoteColumns+`
		FROM poll_nvotes
		WHERE user_id = $1 AND poll_id = $2
	`, uuid.UUID(userID), uuid.UUID(pollID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find nvote: %w", err)
	}
	return n, nil
}

func scanNvote(row *sql.Row) (*models.Nvote, error) {
	var (
		n           models.Nvote
		nid         uuid.UUID
		userID      uuid.UUID
		pollID      uuid.UUID
		confirmedAt sql.NullTime
	)
	if err := row.Scan(&nid, &userID, &pollID, &n.Message, &n.Hash, &n.Confirmed, &n.IssuedAt, &confirmedAt); err != nil {
		return nil, err
	}
	n.ID = id.NvoteID(nid)
	n.UserID = id.UserID(userID)
	n.PollID = id.PollID(pollID)
	if confirmedAt.Valid {
		t := confirmedAt.Time
		n.ConfirmedAt = &t
	}
	return &n, nil
}
