// Package poll holds the read model for externally authored polls and their
// booth assignments. This core never mutates them.
package poll

import (
	"time"

	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	strs "ballotbox/pkg/platform/strings"
)

// State is derived from the schedule; it is never stored.
type State string

const (
	StateIncoming State = "incoming"
	StateCurrent  State = "current"
	StateExpired  State = "expired"
)

type Poll struct {
	ID                id.PollID
	Name              string
	StartsAt          time.Time
	EndsAt            time.Time
	GeozoneRestricted bool
	Geozones          []string
}

// New validates the schedule invariant ends_at > starts_at.
func New(pollID id.PollID, name string, startsAt, endsAt time.Time, geozones ...string) (*Poll, error) {
	if !endsAt.After(startsAt) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "poll must end after it starts")
	}
	geozones = strs.DedupeAndTrim(geozones)
	return &Poll{
		ID:                pollID,
		Name:              name,
		StartsAt:          startsAt,
		EndsAt:            endsAt,
		GeozoneRestricted: len(geozones) > 0,
		Geozones:          geozones,
	}, nil
}

// StateAt returns the poll state at now. Both bounds are inclusive for current.
func (p *Poll) StateAt(now time.Time) State {
	switch {
	case now.Before(p.StartsAt):
		return StateIncoming
	case now.After(p.EndsAt):
		return StateExpired
	default:
		return StateCurrent
	}
}

func (p *Poll) IsCurrent(now time.Time) bool {
	return p.StateAt(now) == StateCurrent
}

// AllowsGeozone reports whether a resident of geozone may take part.
// Unknown geozones are only allowed on unrestricted polls.
func (p *Poll) AllowsGeozone(geozone string) bool {
	if !p.GeozoneRestricted {
		return true
	}
	for _, g := range p.Geozones {
		if g == geozone {
			return true
		}
	}
	return false
}

// BoothAssignment binds a physical booth to a poll. Recounts and officer
// assignments attach to it.
type BoothAssignment struct {
	ID            id.BoothAssignmentID
	PollID        id.PollID
	BoothName     string
	BoothLocation string
}
