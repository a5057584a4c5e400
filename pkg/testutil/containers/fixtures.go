//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	id "ballotbox/pkg/domain"
)

// SeedPoll inserts a poll running from start to end, restricted to geozones
// when any are given.
func (p *PostgresContainer) SeedPoll(t *testing.T, start, end time.Time, geozones ...string) id.PollID {
	t.Helper()
	ctx := context.Background()
	pollID := uuid.New()
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO polls (id, name, starts_at, ends_at, geozone_restricted)
		VALUES ($1, $2, $3, $4, $5)
	`, pollID, "poll "+pollID.String()[:8], start, end, len(geozones) > 0)
	if err != nil {
		t.Fatalf("seed poll: %v", err)
	}
	for _, g := range geozones {
		if _, err := p.DB.ExecContext(ctx, `
			INSERT INTO poll_geozones (poll_id, geozone_code) VALUES ($1, $2)
		`, pollID, g); err != nil {
			t.Fatalf("seed poll geozone: %v", err)
		}
	}
	return id.PollID(pollID)
}

func (p *PostgresContainer) SeedBooth(t *testing.T, pollID id.PollID, name string) id.BoothAssignmentID {
	t.Helper()
	boothID := uuid.New()
	_, err := p.DB.ExecContext(context.Background(), `
		INSERT INTO poll_booth_assignments (id, poll_id, booth_name, booth_location)
		VALUES ($1, $2, $3, $4)
	`, boothID, uuid.UUID(pollID), name, "Calle Mayor 1")
	if err != nil {
		t.Fatalf("seed booth assignment: %v", err)
	}
	return id.BoothAssignmentID(boothID)
}

func (p *PostgresContainer) SeedOfficer(t *testing.T, letterOfficer bool) id.UserID {
	t.Helper()
	officerID := uuid.New()
	_, err := p.DB.ExecContext(context.Background(), `
		INSERT INTO poll_officers (user_id, name, letter_officer) VALUES ($1, $2, $3)
	`, officerID, "officer "+officerID.String()[:8], letterOfficer)
	if err != nil {
		t.Fatalf("seed officer: %v", err)
	}
	return id.UserID(officerID)
}

// SeedShift assigns officer to booth on the given calendar date.
func (p *PostgresContainer) SeedShift(t *testing.T, officer id.UserID, booth id.BoothAssignmentID, date time.Time) {
	t.Helper()
	_, err := p.DB.ExecContext(context.Background(), `
		INSERT INTO poll_officer_assignments (id, officer_id, booth_assignment_id, date)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), uuid.UUID(officer), uuid.UUID(booth), date.Format(time.DateOnly))
	if err != nil {
		t.Fatalf("seed officer assignment: %v", err)
	}
}
