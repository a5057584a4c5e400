package store

import (
	"context"
	"sync"

	"ballotbox/internal/voter"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/platform/tx"
)

type userKey struct {
	poll id.PollID
	user id.UserID
}

type documentKey struct {
	poll     id.PollID
	document string
}

// InMemory enforces the same two uniqueness rules as the partial indexes in
// PostgreSQL: one vote per (poll, user) and one per (poll, document).
type InMemory struct {
	mu         sync.RWMutex
	voters     map[id.VoterID]voter.Voter
	byUser     map[userKey]id.VoterID
	byDocument map[documentKey]id.VoterID
}

func NewInMemory() *InMemory {
	return &InMemory{
		voters:     make(map[id.VoterID]voter.Voter),
		byUser:     make(map[userKey]id.VoterID),
		byDocument: make(map[documentKey]id.VoterID),
	}
}

// Insert records v or returns voter.ErrAlreadyVoted. Inside a
// tx.MemoryRunner transaction the insert is undone if the transaction fails.
func (s *InMemory) Insert(ctx context.Context, v *voter.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uk := userKey{poll: v.PollID, user: v.UserID}
	dk := documentKey{poll: v.PollID, document: v.DocumentNumber}
	if !v.UserID.IsNil() {
		if _, taken := s.byUser[uk]; taken {
			return voter.ErrAlreadyVoted
		}
	}
	if v.DocumentNumber != "" {
		if _, taken := s.byDocument[dk]; taken {
			return voter.ErrAlreadyVoted
		}
	}

	s.voters[v.ID] = *v
	if !v.UserID.IsNil() {
		s.byUser[uk] = v.ID
	}
	if v.DocumentNumber != "" {
		s.byDocument[dk] = v.ID
	}

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.voters, v.ID)
		if !v.UserID.IsNil() {
			delete(s.byUser, uk)
		}
		if v.DocumentNumber != "" {
			delete(s.byDocument, dk)
		}
	})
	return nil
}

// FindByIdentity returns the vote cast in pollID by either identity key.
func (s *InMemory) FindByIdentity(_ context.Context, pollID id.PollID, who voter.Identity) (*voter.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !who.UserID.IsNil() {
		if vid, ok := s.byUser[userKey{poll: pollID, user: who.UserID}]; ok {
			v := s.voters[vid]
			return &v, nil
		}
	}
	if who.DocumentNumber != "" {
		if vid, ok := s.byDocument[documentKey{poll: pollID, document: who.DocumentNumber}]; ok {
			v := s.voters[vid]
			return &v, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) CountByBoothAssignment(_ context.Context, boothID id.BoothAssignmentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, v := range s.voters {
		if v.BoothAssignmentID == boothID {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CountByPoll(_ context.Context, pollID id.PollID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, v := range s.voters {
		if v.PollID == pollID {
			n++
		}
	}
	return n, nil
}
