package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ballotbox/internal/recount/models"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/dberr"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/platform/tx"
)

// PostgresStore appends to poll_recounts and poll_final_recounts. Tallies
// read all three figures in one statement so they share a snapshot.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, r *models.Recount) error {
	table := "poll_recounts"
	if r.Kind == models.KindFinal {
		table = "poll_final_recounts"
	}
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO `+table+` (id, booth_assignment_id, officer_id, count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.UUID(r.ID),
		uuid.UUID(r.BoothAssignmentID),
		uuid.UUID(r.OfficerID),
		r.Count,
		r.CreatedAt,
	)
	if err != nil {
		switch {
		case dberr.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		case dberr.IsCheckViolation(err):
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

const tallySelect = `
	SELECT b.id, b.poll_id, b.booth_name,
		COALESCE((SELECT SUM(r.count) FROM poll_recounts r WHERE r.booth_assignment_id = b.id), 0),
		COALESCE((SELECT SUM(f.count) FROM poll_final_recounts f WHERE f.booth_assignment_id = b.id), 0),
		(SELECT COUNT(*) FROM poll_voters v WHERE v.booth_assignment_id = b.id)
	FROM poll_booth_assignments b
`

func (s *PostgresStore) BoothTally(ctx context.Context, boothID id.BoothAssignmentID) (models.Tally, error) {
	t, err := scanTally(tx.Executor(ctx, s.db).QueryRowContext(ctx, tallySelect+`WHERE b.id = $1`, uuid.UUID(boothID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Tally{}, sentinel.ErrNotFound
		}
		return models.Tally{}, fmt.Errorf("read booth tally: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) PollTallies(ctx context.Context, pollID id.PollID) ([]models.Tally, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, tallySelect+`WHERE b.poll_id = $1 ORDER BY b.booth_name, b.id`, uuid.UUID(pollID))
	if err != nil {
		return nil, fmt.Errorf("read poll tallies: %w", err)
	}
	defer rows.Close()

	var out []models.Tally
	for rows.Next() {
		t, err := scanTally(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tallies: %w", err)
	}
	return out, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanTally(r row) (models.Tally, error) {
	var (
		t       models.Tally
		boothID uuid.UUID
		pollID  uuid.UUID
	)
	if err := r.Scan(&boothID, &pollID, &t.BoothName, &t.Daily, &t.Final, &t.System); err != nil {
		return models.Tally{}, err
	}
	t.BoothAssignmentID = id.BoothAssignmentID(boothID)
	t.PollID = id.PollID(pollID)
	return t, nil
}
