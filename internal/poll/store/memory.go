package store

import (
	"context"
	"sort"
	"sync"

	"ballotbox/internal/poll"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
)

// InMemory keeps polls and booth assignments for tests and development.
// Polls are authored elsewhere; Save exists only for seeding.
type InMemory struct {
	mu     sync.RWMutex
	polls  map[id.PollID]poll.Poll
	booths map[id.BoothAssignmentID]poll.BoothAssignment
}

func NewInMemory() *InMemory {
	return &InMemory{
		polls:  make(map[id.PollID]poll.Poll),
		booths: make(map[id.BoothAssignmentID]poll.BoothAssignment),
	}
}

func (s *InMemory) SavePoll(_ context.Context, p *poll.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.Geozones = append([]string(nil), p.Geozones...)
	s.polls[p.ID] = cp
	return nil
}

func (s *InMemory) SaveBoothAssignment(_ context.Context, ba *poll.BoothAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[ba.PollID]; !ok {
		return sentinel.ErrNotFound
	}
	s.booths[ba.ID] = *ba
	return nil
}

func (s *InMemory) FindPoll(_ context.Context, pollID id.PollID) (*poll.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[pollID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p.Geozones = append([]string(nil), p.Geozones...)
	return &p, nil
}

func (s *InMemory) FindBoothAssignment(_ context.Context, boothID id.BoothAssignmentID) (*poll.BoothAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ba, ok := s.booths[boothID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ba, nil
}

// ListBoothAssignments returns the poll's booths ordered by booth name.
func (s *InMemory) ListBoothAssignments(_ context.Context, pollID id.PollID) ([]*poll.BoothAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*poll.BoothAssignment
	for _, ba := range s.booths {
		if ba.PollID == pollID {
			ba := ba
			out = append(out, &ba)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoothName < out[j].BoothName })
	return out, nil
}
