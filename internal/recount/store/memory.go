package store

import (
	"context"
	"fmt"
	"sync"

	"ballotbox/internal/poll"
	"ballotbox/internal/recount/models"
	id "ballotbox/pkg/domain"
)

// BoothDirectory resolves booths for the in-memory store.
type BoothDirectory interface {
	FindBoothAssignment(ctx context.Context, boothID id.BoothAssignmentID) (*poll.BoothAssignment, error)
	ListBoothAssignments(ctx context.Context, pollID id.PollID) ([]*poll.BoothAssignment, error)
}

// VoterCounter supplies the system count.
type VoterCounter interface {
	CountByBoothAssignment(ctx context.Context, boothID id.BoothAssignmentID) (int, error)
}

// InMemory keeps recounts in process. Tallies hold the store lock while
// counting, which only isolates them from concurrent recount writes.
type InMemory struct {
	mu       sync.Mutex
	booths   BoothDirectory
	voters   VoterCounter
	recounts []models.Recount
}

func NewInMemory(booths BoothDirectory, voters VoterCounter) *InMemory {
	return &InMemory{booths: booths, voters: voters}
}

func (s *InMemory) Append(ctx context.Context, r *models.Recount) error {
	if _, err := s.booths.FindBoothAssignment(ctx, r.BoothAssignmentID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recounts = append(s.recounts, *r)
	return nil
}

func (s *InMemory) BoothTally(ctx context.Context, boothID id.BoothAssignmentID) (models.Tally, error) {
	ba, err := s.booths.FindBoothAssignment(ctx, boothID)
	if err != nil {
		return models.Tally{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally(ctx, ba)
}

func (s *InMemory) PollTallies(ctx context.Context, pollID id.PollID) ([]models.Tally, error) {
	booths, err := s.booths.ListBoothAssignments(ctx, pollID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Tally, 0, len(booths))
	for _, ba := range booths {
		t, err := s.tally(ctx, ba)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *InMemory) tally(ctx context.Context, ba *poll.BoothAssignment) (models.Tally, error) {
	t := models.Tally{BoothAssignmentID: ba.ID, PollID: ba.PollID, BoothName: ba.BoothName}
	for _, r := range s.recounts {
		if r.BoothAssignmentID != ba.ID {
			continue
		}
		if r.Kind == models.KindFinal {
			t.Final += r.Count
		} else {
			t.Daily += r.Count
		}
	}
	system, err := s.voters.CountByBoothAssignment(ctx, ba.ID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("count voters: %w", err)
	}
	t.System = system
	return t, nil
}
