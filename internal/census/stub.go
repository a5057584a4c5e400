package census

import (
	"context"
	"strings"
	"sync"

	id "ballotbox/pkg/domain"
)

// Resident is a person known to the Stub census.
type Resident struct {
	DocumentType   id.DocumentType
	DocumentNumber string
	PostalCode     string
	YearOfBirth    int
	Geozone        string
}

// DefaultResidents is the development census.
func DefaultResidents() []Resident {
	return []Resident{
		{
			DocumentType:   id.DocumentTypeDNI,
			DocumentNumber: "12345678Z",
			PostalCode:     "28013",
			YearOfBirth:    1980,
			Geozone:        "01",
		},
	}
}

// Stub is an in-process census for development and tests. Document numbers
// match ignoring leading zeros, and the resident's own number is returned as
// the canonical form.
type Stub struct {
	mu        sync.RWMutex
	residents map[string]Resident
}

func NewStub(residents ...Resident) *Stub {
	s := &Stub{residents: make(map[string]Resident, len(residents))}
	for _, r := range residents {
		s.Add(r)
	}
	return s
}

func (s *Stub) Add(r Resident) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.residents[stubKey(r.DocumentType, r.DocumentNumber)] = r
}

func (s *Stub) Verify(ctx context.Context, req Request) Result {
	if err := ctx.Err(); err != nil {
		return Unavailable(err.Error())
	}
	s.mu.RLock()
	r, ok := s.residents[stubKey(req.DocumentType, req.DocumentNumber)]
	s.mu.RUnlock()
	if !ok {
		return NoMatch()
	}
	if req.PostalCode != "" && req.PostalCode != r.PostalCode {
		return NoMatch()
	}
	if req.YearOfBirth != 0 && req.YearOfBirth != r.YearOfBirth {
		return NoMatch()
	}
	return Match(r.DocumentNumber, r.Geozone)
}

func stubKey(t id.DocumentType, number string) string {
	trimmed := strings.TrimLeft(strings.ToUpper(number), "0")
	return string(t) + ":" + trimmed
}
