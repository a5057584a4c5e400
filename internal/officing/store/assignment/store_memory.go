package assignment

import (
	"context"
	"sync"

	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
)

type shiftKey struct {
	officer id.UserID
	booth   id.BoothAssignmentID
	date    string
}

// InMemory holds officers and their booth shifts for tests and development.
type InMemory struct {
	mu       sync.RWMutex
	officers map[id.UserID]models.Officer
	shifts   map[shiftKey]models.Assignment
}

func NewInMemory() *InMemory {
	return &InMemory{
		officers: make(map[id.UserID]models.Officer),
		shifts:   make(map[shiftKey]models.Assignment),
	}
}

func (s *InMemory) SaveOfficer(_ context.Context, o *models.Officer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.officers[o.UserID] = *o
	return nil
}

// SaveAssignment rejects a second shift for the same officer, booth and date.
func (s *InMemory) SaveAssignment(_ context.Context, a *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.officers[a.OfficerID]; !ok {
		return sentinel.ErrNotFound
	}
	key := shiftKey{officer: a.OfficerID, booth: a.BoothAssignmentID, date: a.Date}
	if _, taken := s.shifts[key]; taken {
		return sentinel.ErrConflict
	}
	s.shifts[key] = *a
	return nil
}

func (s *InMemory) FindOfficer(_ context.Context, officerID id.UserID) (*models.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.officers[officerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &o, nil
}

func (s *InMemory) HasAssignment(_ context.Context, officerID id.UserID, boothID id.BoothAssignmentID, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.shifts[shiftKey{officer: officerID, booth: boothID, date: date}]
	return ok, nil
}
