package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ballotbox/internal/officing/metrics"
	"ballotbox/internal/officing/models"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
)

// Scheduler decides whether an officer may officiate right now. It has no
// side effects; a denial is never recorded as a failed census call.
type Scheduler struct {
	store   AssignmentStore
	loc     *time.Location
	metrics *metrics.Metrics
}

type SchedulerOption func(*Scheduler)

func WithSchedulerMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler evaluates shift dates in loc.
func NewScheduler(store AssignmentStore, loc *time.Location, opts ...SchedulerOption) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{store: store, loc: loc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize reports whether officerID may officiate bc at when. Booth duty
// needs a shift at that booth on the calendar date of when; letter duty
// needs the letter-officer capability.
func (s *Scheduler) Authorize(ctx context.Context, officerID id.UserID, bc models.BoothContext, when time.Time) (bool, error) {
	if officerID.IsNil() {
		return false, nil
	}
	allowed, err := s.authorize(ctx, officerID, bc, when)
	if err != nil {
		return false, err
	}
	s.metrics.IncAuthorization(string(bc.Channel), allowed)
	return allowed, nil
}

func (s *Scheduler) authorize(ctx context.Context, officerID id.UserID, bc models.BoothContext, when time.Time) (bool, error) {
	switch bc.Channel {
	case models.ChannelBooth:
		if bc.BoothAssignmentID.IsNil() {
			return false, nil
		}
		ok, err := s.store.HasAssignment(ctx, officerID, bc.BoothAssignmentID, models.CivilDate(when, s.loc))
		if err != nil {
			return false, fmt.Errorf("check booth shift: %w", err)
		}
		return ok, nil
	case models.ChannelLetter:
		officer, err := s.store.FindOfficer(ctx, officerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("find officer: %w", err)
		}
		return officer.LetterOfficer, nil
	default:
		return false, nil
	}
}
