package failedcall

import (
	"context"
	"sort"
	"sync"

	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
)

// InMemory is an append-only failed census call log.
type InMemory struct {
	mu    sync.RWMutex
	calls []models.FailedCensusCall
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, call *models.FailedCensusCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, *call)
	return nil
}

func (s *InMemory) CountByOfficer(_ context.Context, officerID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.calls {
		if c.OfficerID == officerID {
			n++
		}
	}
	return n, nil
}

// ListRecentByOfficer returns up to limit calls, newest first.
func (s *InMemory) ListRecentByOfficer(_ context.Context, officerID id.UserID, limit int) ([]*models.FailedCensusCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.FailedCensusCall
	for _, c := range s.calls {
		if c.OfficerID == officerID {
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAll returns every call in append order.
func (s *InMemory) ListAll(_ context.Context) ([]models.FailedCensusCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FailedCensusCall(nil), s.calls...), nil
}
