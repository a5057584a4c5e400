package letterlog

import (
	"context"
	"sort"
	"sync"

	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
)

type InMemory struct {
	mu   sync.RWMutex
	logs []models.LetterOfficerLog
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, l *models.LetterOfficerLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *l)
	return nil
}

// ListByOfficer returns the officer's entries, newest first.
func (s *InMemory) ListByOfficer(_ context.Context, officerID id.UserID, limit int) ([]*models.LetterOfficerLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.LetterOfficerLog
	for _, l := range s.logs {
		if l.OfficerID == officerID {
			out = append(out, &l)
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
