package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ballotbox/internal/nvote/metrics"
	"ballotbox/internal/nvote/models"
	"ballotbox/internal/poll"
	"ballotbox/internal/voter"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/audit"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/platform/tx"
	"ballotbox/pkg/requestcontext"
)

type Store interface {
	GetOrCreate(ctx context.Context, candidate *models.Nvote) (*models.Nvote, error)
	Confirm(ctx context.Context, message, hash string, now time.Time) (*models.Nvote, error)
}

type PollStore interface {
	FindPoll(ctx context.Context, pollID id.PollID) (*poll.Poll, error)
}

type VoterStore interface {
	FindByIdentity(ctx context.Context, pollID id.PollID, who voter.Identity) (*voter.Voter, error)
	Insert(ctx context.Context, v *voter.Voter) error
}

// Service issues and redeems web voting tokens.
type Service struct {
	store   Store
	polls   PollStore
	voters  VoterStore
	tx      tx.Runner
	signer  *Signer
	auditor audit.Emitter
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
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

// New wires the service. runner must cover both store and voters so that
// confirmation and the vote commit together.
func New(store Store, polls PollStore, voters VoterStore, runner tx.Runner, signer *Signer, opts ...Option) *Service {
	s := &Service{
		store:   store,
		polls:   polls,
		voters:  voters,
		tx:      runner,
		signer:  signer,
		auditor: audit.Nop{},
		logger:  slog.Default(),
		tracer:  otel.Tracer("ballotbox/nvote"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errAlreadyVoted = dErrors.Wrap(voter.ErrAlreadyVoted, dErrors.CodeConflict, "already voted in this poll")

// Issue returns the caller's credential for pollID, creating the token on
// first use. Repeated calls before redemption return the same credential.
func (s *Service) Issue(ctx context.Context, userID id.UserID, pollID id.PollID) (string, error) {
	ctx, span := s.tracer.Start(ctx, "nvote.Issue", trace.WithAttributes(attribute.String("poll.id", pollID.String())))
	defer span.End()

	if userID.IsNil() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	p, err := s.polls.FindPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "poll not found")
		}
		return "", fmt.Errorf("find poll: %w", err)
	}
	if !p.IsCurrent(now) {
		return "", dErrors.New(dErrors.CodeValidation, "poll is not open")
	}

	if _, err := s.voters.FindByIdentity(ctx, pollID, voter.Identity{UserID: userID}); err == nil {
		return "", errAlreadyVoted
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return "", fmt.Errorf("find voter: %w", err)
	}

	candidate, err := models.New(userID, pollID, s.signer.Sign, now)
	if err != nil {
		return "", fmt.Errorf("generate nvote message: %w", err)
	}
	n, err := s.store.GetOrCreate(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("store nvote: %w", err)
	}
	if n.State() == models.StateConfirmed {
		return "", errAlreadyVoted
	}

	s.metrics.IncIssued()
	s.emit(ctx, audit.Event{Action: audit.EventNvoteIssued, UserID: userID.String(), PollID: pollID.String()}, now)
	return n.Credential(), nil
}

// Redeem spends a credential: the token is confirmed and a web vote is
// recorded in one transaction, or nothing changes. Rejections return
// models.ErrReplayedOrUnknownToken or voter.ErrAlreadyVoted.
func (s *Service) Redeem(ctx context.Context, credential string) error {
	ctx, span := s.tracer.Start(ctx, "nvote.Redeem")
	defer span.End()
	now := requestcontext.Now(ctx)

	var redeemed *models.Nvote
	err := s.redeem(ctx, credential, now, &redeemed)

	event := audit.Event{Action: audit.EventNvoteRedeemed, Outcome: "confirmed"}
	if redeemed != nil {
		event.UserID = redeemed.UserID.String()
		event.PollID = redeemed.PollID.String()
	}
	switch {
	case err == nil:
		s.metrics.IncRedemption("confirmed")
	case errors.Is(err, models.ErrReplayedOrUnknownToken):
		s.metrics.IncRedemption("rejected")
		event.Action, event.Outcome, event.Reason = audit.EventNvoteRejected, "rejected", "replayed_or_unknown"
	case errors.Is(err, voter.ErrAlreadyVoted):
		s.metrics.IncRedemption("already_voted")
		event.Action, event.Outcome, event.Reason = audit.EventNvoteRejected, "rejected", "already_voted"
	default:
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "nvote redemption failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return err
	}
	span.SetAttributes(attribute.String("nvote.outcome", event.Outcome))
	s.emit(ctx, event, now)
	return err
}

func (s *Service) redeem(ctx context.Context, credential string, now time.Time, out **models.Nvote) error {
	hash, message, err := models.ParseCredential(credential)
	if err != nil {
		return err
	}
	if !s.signer.Verify(message, hash) {
		return models.ErrReplayedOrUnknownToken
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.store.Confirm(ctx, message, hash, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.ErrReplayedOrUnknownToken
			}
			return fmt.Errorf("confirm nvote: %w", err)
		}
		*out = n

		v, err := voter.New(voter.Params{
			PollID: n.PollID,
			UserID: n.UserID,
			Origin: voter.OriginWeb,
		}, now)
		if err != nil {
			return err
		}
		if err := s.voters.Insert(ctx, v); err != nil {
			if errors.Is(err, voter.ErrAlreadyVoted) {
				return voter.ErrAlreadyVoted
			}
			return fmt.Errorf("insert voter: %w", err)
		}
		return nil
	})
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
