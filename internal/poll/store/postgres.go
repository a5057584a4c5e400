package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ballotbox/internal/poll"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
)

// PostgresStore reads polls and booth assignments. Writes belong to the
// poll authoring service; this store never mutates them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindPoll(ctx context.Context, pollID id.PollID) (*poll.Poll, error) {
	var p poll.Poll
	var rawID uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, starts_at, ends_at, geozone_restricted
		FROM polls
		WHERE id = $1
	`, uuid.UUID(pollID)).Scan(&rawID, &p.Name, &p.StartsAt, &p.EndsAt, &p.GeozoneRestricted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find poll: %w", err)
	}
	p.ID = id.PollID(rawID)

	rows, err := s.db.QueryContext(ctx, `
		SELECT geozone_code FROM poll_geozones WHERE poll_id = $1 ORDER BY geozone_code
	`, rawID)
	if err != nil {
		return nil, fmt.Errorf("list poll geozones: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan poll geozone: %w", err)
		}
		p.Geozones = append(p.Geozones, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate poll geozones: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) FindBoothAssignment(ctx context.Context, boothID id.BoothAssignmentID) (*poll.BoothAssignment, error) {
	ba, err := scanBoothAssignment(s.db.QueryRowContext(ctx, `
		SELECT id, poll_id, booth_name, booth_location
		FROM poll_booth_assignments
		WHERE id = $1
	`, uuid.UUID(boothID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find booth assignment: %w", err)
	}
	return ba, nil
}

func (s *PostgresStore) ListBoothAssignments(ctx context.Context, pollID id.PollID) ([]*poll.BoothAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, poll_id, booth_name, booth_location
		FROM poll_booth_assignments
		WHERE poll_id = $1
		ORDER BY booth_name
	`, uuid.UUID(pollID))
	if err != nil {
		return nil, fmt.Errorf("list booth assignments: %w", err)
	}
	defer rows.Close()

	var out []*poll.BoothAssignment
	for rows.Next() {
		ba, err := scanBoothAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booth assignment: %w", err)
		}
		out = append(out, ba)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booth assignments: %w", err)
	}
	return out, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanBoothAssignment(r row) (*poll.BoothAssignment, error) {
	var ba poll.BoothAssignment
	var rawID, rawPoll uuid.UUID
	if err := r.Scan(&rawID, &rawPoll, &ba.BoothName, &ba.BoothLocation); err != nil {
		return nil, err
	}
	ba.ID = id.BoothAssignmentID(rawID)
	ba.PollID = id.PollID(rawPoll)
	return &ba, nil
}
