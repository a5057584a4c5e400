package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	officing "ballotbox/internal/officing/models"
	"ballotbox/internal/poll"
	"ballotbox/internal/recount/metrics"
	"ballotbox/internal/recount/models"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/audit"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/requestcontext"
)

type Store interface {
	Append(ctx context.Context, r *models.Recount) error
	BoothTally(ctx context.Context, boothID id.BoothAssignmentID) (models.Tally, error)
	PollTallies(ctx context.Context, pollID id.PollID) ([]models.Tally, error)
}

type PollStore interface {
	FindPoll(ctx context.Context, pollID id.PollID) (*poll.Poll, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, officerID id.UserID, bc officing.BoothContext, when time.Time) (bool, error)
}

// Service accepts officer tallies and reconciles them against the vote
// ledger. Reports never write.
type Service struct {
	store     Store
	polls     PollStore
	scheduler Authorizer
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) { s.auditor = a }
}

func New(store Store, polls PollStore, scheduler Authorizer, opts ...Option) *Service {
	s := &Service{
		store:     store,
		polls:     polls,
		scheduler: scheduler,
		auditor:   audit.Nop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("ballotbox/recount"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends a daily or final tally for boothID. The officer must hold a
// shift at that booth today.
func (s *Service) Submit(ctx context.Context, officerID id.UserID, boothID id.BoothAssignmentID, kind models.Kind, count int) (*models.Recount, error) {
	ctx, span := s.tracer.Start(ctx, "recount.Submit", trace.WithAttributes(
		attribute.String("booth.id", boothID.String()),
		attribute.String("recount.kind", string(kind)),
	))
	defer span.End()
	now := requestcontext.Now(ctx)

	r, err := models.New(kind, boothID, officerID, count, now)
	if err != nil {
		if officerID.IsNil() {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
		}
		return nil, err
	}

	allowed, err := s.scheduler.Authorize(ctx, officerID, officing.BoothContext{
		Channel:           officing.ChannelBooth,
		BoothAssignmentID: boothID,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("authorize officer: %w", err)
	}
	if !allowed {
		s.emit(ctx, audit.Event{
			Action:    audit.EventOfficerUnauthorized,
			OfficerID: officerID.String(),
			Channel:   "recount",
			Outcome:   "denied",
		}, now)
		return nil, dErrors.New(dErrors.CodeForbidden, "officer is not assigned to this booth today")
	}

	if err := s.store.Append(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "booth assignment not found")
		}
		return nil, fmt.Errorf("append recount: %w", err)
	}

	s.metrics.IncSubmission(string(kind))
	s.emit(ctx, audit.Event{
		Action:    audit.EventRecountSubmitted,
		OfficerID: officerID.String(),
		Channel:   string(officing.ChannelBooth),
		Outcome:   string(kind),
	}, now)
	s.logger.InfoContext(ctx, "recount submitted",
		"request_id", requestcontext.RequestID(ctx),
		"booth_assignment_id", boothID.String(),
		"kind", string(kind),
		"count", count,
	)
	return r, nil
}

func (s *Service) BoothReport(ctx context.Context, boothID id.BoothAssignmentID) (*models.Tally, error) {
	ctx, span := s.tracer.Start(ctx, "recount.BoothReport")
	defer span.End()

	t, err := s.store.BoothTally(ctx, boothID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "booth assignment not found")
		}
		return nil, fmt.Errorf("read booth tally: %w", err)
	}
	flagged := 0
	if t.HasDiscrepancy() {
		flagged = 1
	}
	s.metrics.ObserveReport("booth", flagged)
	return &t, nil
}

func (s *Service) PollReport(ctx context.Context, pollID id.PollID) (*models.PollReport, error) {
	ctx, span := s.tracer.Start(ctx, "recount.PollReport", trace.WithAttributes(attribute.String("poll.id", pollID.String())))
	defer span.End()

	if _, err := s.polls.FindPoll(ctx, pollID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "poll not found")
		}
		return nil, fmt.Errorf("find poll: %w", err)
	}
	tallies, err := s.store.PollTallies(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("read poll tallies: %w", err)
	}

	report := models.NewPollReport(pollID, tallies)
	s.metrics.ObserveReport("poll", report.Flagged())
	span.SetAttributes(attribute.Int("recount.flagged", report.Flagged()))
	return report, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event, now time.Time) {
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.Device = requestcontext.Device(ctx)
	if err := s.auditor.Emit(ctx, event.Normalize(now)); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", string(event.Action),
			"error", err,
		)
	}
}
