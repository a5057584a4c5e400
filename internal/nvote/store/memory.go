package store

import (
	"context"
	"sync"
	"time"

	"ballotbox/internal/nvote/models"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/platform/tx"
)

type ownerKey struct {
	user id.UserID
	poll id.PollID
}

// InMemory holds tokens for tests and development. Confirm registers an
// undo with the enclosing MemoryRunner transaction.
type InMemory struct {
	mu        sync.Mutex
	byOwner   map[ownerKey]*models.Nvote
	byMessage map[string]*models.Nvote
}

func NewInMemory() *InMemory {
	return &InMemory{
		byOwner:   make(map[ownerKey]*models.Nvote),
		byMessage: make(map[string]*models.Nvote),
	}
}

// GetOrCreate stores candidate unless the owner already has a token, and
// returns whichever is stored.
func (s *InMemory) GetOrCreate(_ context.Context, candidate *models.Nvote) (*models.Nvote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey{user: candidate.UserID, poll: candidate.PollID}
	if existing, ok := s.byOwner[key]; ok {
		return clone(existing), nil
	}
	if _, taken := s.byMessage[candidate.Message]; taken {
		return nil, sentinel.ErrConflict
	}
	stored := clone(candidate)
	s.byOwner[key] = stored
	s.byMessage[stored.Message] = stored
	return clone(stored), nil
}

// Confirm flips an unconfirmed token with a matching hash to confirmed.
// Anything else is sentinel.ErrNotFound.
func (s *InMemory) Confirm(ctx context.Context, message, hash string, now time.Time) (*models.Nvote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byMessage[message]
	if !ok || n.Hash != hash || n.Confirmed {
		return nil, sentinel.ErrNotFound
	}
	n.Confirmed = true
	confirmedAt := now
	n.ConfirmedAt = &confirmedAt

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		n.Confirmed = false
		n.ConfirmedAt = nil
	})
	return clone(n), nil
}

func (s *InMemory) FindByOwner(_ context.Context, userID id.UserID, pollID id.PollID) (*models.Nvote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byOwner[ownerKey{user: userID, poll: pollID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(n), nil
}

func clone(n *models.Nvote) *models.Nvote {
	cp := *n
	if n.ConfirmedAt != nil {
		t := *n.ConfirmedAt
		cp.ConfirmedAt = &t
	}
	return &cp
}
