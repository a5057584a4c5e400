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

	"ballotbox/internal/census"
	officing "ballotbox/internal/officing/models"
	"ballotbox/internal/poll"
	"ballotbox/internal/verification/metrics"
	"ballotbox/internal/verification/models"
	"ballotbox/internal/voter"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/audit"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/requestcontext"
)

type PollStore interface {
	FindPoll(ctx context.Context, pollID id.PollID) (*poll.Poll, error)
	FindBoothAssignment(ctx context.Context, boothID id.BoothAssignmentID) (*poll.BoothAssignment, error)
}

// Authorizer checks that an officer is on duty for the claimed context.
type Authorizer interface {
	Authorize(ctx context.Context, officerID id.UserID, bc officing.BoothContext, when time.Time) (bool, error)
}

type VoterStore interface {
	FindByIdentity(ctx context.Context, pollID id.PollID, who voter.Identity) (*voter.Voter, error)
	Insert(ctx context.Context, v *voter.Voter) error
}

// Ledger receives the accountability side effects of an attempt.
type Ledger interface {
	RecordFailedCall(ctx context.Context, call *officing.FailedCensusCall) error
	RecordLetterVerdict(ctx context.Context, l *officing.LetterOfficerLog) error
}

// Service runs verification attempts for every channel. Channels differ
// only through models.Config; the steps below are shared.
type Service struct {
	polls     PollStore
	scheduler Authorizer
	census    census.Gateway
	voters    VoterStore
	ledger    Ledger
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	loc       *time.Location
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

// WithLocation sets the calendar used for the year-of-birth upper bound.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func New(polls PollStore, scheduler Authorizer, gateway census.Gateway, voters VoterStore, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		polls:     polls,
		scheduler: scheduler,
		census:    gateway,
		voters:    voters,
		ledger:    ledger,
		auditor:   audit.Nop{},
		logger:    slog.Default(),
		loc:       time.UTC,
		tracer:    otel.Tracer("ballotbox/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// attempt carries the validated input through the steps.
type attempt struct {
	req      models.Request
	cfg      models.Config
	poll     *poll.Poll
	docType  id.DocumentType
	document string
	postal   string
	year     int
	now      time.Time
}

// Verify runs one attempt. The error return is reserved for storage
// failures; every business outcome is reported in the Result.
func (s *Service) Verify(ctx context.Context, req models.Request) (*models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("verification.channel", string(req.Channel))),
	)
	defer span.End()

	start := time.Now()
	a := &attempt{req: req, now: requestcontext.Now(ctx)}

	res, err := s.run(ctx, a)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"channel", string(req.Channel),
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("verification.outcome", string(res.Outcome)))
	s.metrics.ObserveOutcome(string(req.Channel), string(res.Outcome), time.Since(start))
	s.emit(ctx, a, res)
	s.logger.InfoContext(ctx, "verification completed",
		"request_id", requestcontext.RequestID(ctx),
		"channel", string(req.Channel),
		"poll_id", pollIDOf(a),
		"officer_id", officerIDOf(req),
		"outcome", string(res.Outcome),
		"reason", res.Reason,
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, a *attempt) (*models.Result, error) {
	if res, err := s.validate(ctx, a); res != nil || err != nil {
		return res, err
	}
	if res, err := s.authorize(ctx, a); res != nil || err != nil {
		return res, err
	}

	res, err := s.checkCensus(ctx, a)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res, err = s.record(ctx, a)
		if err != nil {
			return nil, err
		}
	}

	if a.cfg.LetterLog {
		if err := s.logLetter(ctx, a, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func invalid(reason string) *models.Result {
	return &models.Result{Outcome: models.OutcomeInvalidInput, Reason: reason}
}

// validate fills a from the raw request. A non-nil result ends the attempt
// before any external call.
func (s *Service) validate(ctx context.Context, a *attempt) (*models.Result, error) {
	req := a.req
	cfg, ok := models.ConfigFor(req.Channel)
	if !ok {
		return invalid("unknown channel"), nil
	}
	a.cfg = cfg

	var err error
	if a.docType, err = id.ParseDocumentType(req.DocumentType); err != nil {
		return invalid(dErrors.MessageOf(err)), nil
	}
	if a.document, err = id.ParseDocumentNumber(req.DocumentNumber); err != nil {
		return invalid(dErrors.MessageOf(err)), nil
	}
	if cfg.NeedsPostalCode {
		if a.postal, err = id.ParsePostalCode(req.PostalCode); err != nil {
			return invalid(dErrors.MessageOf(err)), nil
		}
	}
	if cfg.NeedsYearOfBirth {
		if a.year, err = id.ParseYearOfBirth(req.YearOfBirth, a.now.In(s.loc).Year()); err != nil {
			return invalid(dErrors.MessageOf(err)), nil
		}
	}
	if cfg.KeyedByUser && req.UserID.IsNil() {
		return invalid("an authenticated user is required"), nil
	}

	pollID := req.PollID
	if cfg.NeedsBooth {
		if req.BoothAssignmentID.IsNil() {
			return invalid("booth assignment is required"), nil
		}
		ba, err := s.polls.FindBoothAssignment(ctx, req.BoothAssignmentID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return invalid("unknown booth assignment"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("find booth assignment: %w", err)
		}
		if !pollID.IsNil() && pollID != ba.PollID {
			return invalid("booth assignment does not belong to this poll"), nil
		}
		pollID = ba.PollID
	}
	if pollID.IsNil() {
		return invalid("poll_id is required"), nil
	}

	p, err := s.polls.FindPoll(ctx, pollID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return invalid("unknown poll"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find poll: %w", err)
	}
	if !p.IsCurrent(a.now) {
		return invalid("poll is not open"), nil
	}
	a.poll = p
	return nil, nil
}

func (s *Service) authorize(ctx context.Context, a *attempt) (*models.Result, error) {
	if !a.cfg.Officiated() {
		return nil, nil
	}
	denied := &models.Result{Outcome: models.OutcomeUnauthorized, Reason: "officer is not on duty for this channel"}
	if a.req.OfficerID.IsNil() {
		return denied, nil
	}
	ok, err := s.scheduler.Authorize(ctx, a.req.OfficerID, officing.BoothContext{
		Channel:           a.cfg.Officer,
		BoothAssignmentID: a.req.BoothAssignmentID,
	}, a.now)
	if err != nil {
		return nil, fmt.Errorf("authorize officer: %w", err)
	}
	if !ok {
		return denied, nil
	}
	return nil, nil
}

// checkCensus returns a census_rejected result, or nil to continue with the
// census-normalized document number in a.document.
func (s *Service) checkCensus(ctx context.Context, a *attempt) (*models.Result, error) {
	answer := s.census.Verify(ctx, census.Request{
		DocumentType:   a.docType,
		DocumentNumber: a.document,
		PostalCode:     a.postal,
		YearOfBirth:    a.year,
		PollID:         a.poll.ID,
	})

	var reason officing.FailureReason
	switch {
	case answer.Outcome == census.OutcomeNoMatch:
		reason = officing.ReasonNoMatch
	case answer.Outcome == census.OutcomeUnavailable:
		reason = officing.ReasonUnavailable
	case !a.poll.AllowsGeozone(answer.Geozone):
		reason = officing.ReasonIneligibleGeozone
	default:
		if answer.DocumentNumber != "" {
			a.document = answer.DocumentNumber
		}
		return nil, nil
	}

	params := officing.FailedCallParams{
		PollID:         a.poll.ID,
		Channel:        string(a.req.Channel),
		DocumentType:   a.docType,
		DocumentNumber: a.document,
		PostalCode:     a.postal,
		YearOfBirth:    a.year,
		Reason:         reason,
	}
	if a.cfg.Officiated() {
		params.OfficerID = a.req.OfficerID
	} else {
		params.UserID = a.req.UserID
	}
	call, err := officing.NewFailedCensusCall(params, a.now)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.RecordFailedCall(ctx, call); err != nil {
		return nil, err
	}
	return &models.Result{
		Outcome:   models.OutcomeCensusRejected,
		Reason:    string(reason),
		Retryable: reason == officing.ReasonUnavailable,
	}, nil
}

func (s *Service) identity(a *attempt) voter.Identity {
	who := voter.Identity{DocumentNumber: a.document}
	if a.cfg.KeyedByUser {
		who.UserID = a.req.UserID
	}
	return who
}

// record writes the vote. The read is a fast path only; the storage
// uniqueness constraint decides races.
func (s *Service) record(ctx context.Context, a *attempt) (*models.Result, error) {
	already := &models.Result{Outcome: models.OutcomeAlreadyVoted, Reason: "already voted in this poll", DocumentNumber: a.document}

	who := s.identity(a)
	_, err := s.voters.FindByIdentity(ctx, a.poll.ID, who)
	switch {
	case err == nil:
		return already, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, fmt.Errorf("find voter: %w", err)
	}

	params := voter.Params{
		PollID:         a.poll.ID,
		UserID:         who.UserID,
		DocumentType:   a.docType,
		DocumentNumber: a.document,
		Origin:         a.cfg.Origin,
	}
	if a.cfg.NeedsBooth {
		params.BoothAssignmentID = a.req.BoothAssignmentID
	}
	if a.cfg.Officiated() {
		params.OfficerID = a.req.OfficerID
	}
	v, err := voter.New(params, a.now)
	if err != nil {
		return nil, err
	}
	if err := s.voters.Insert(ctx, v); err != nil {
		if errors.Is(err, voter.ErrAlreadyVoted) {
			s.metrics.IncRace()
			return already, nil
		}
		return nil, fmt.Errorf("insert voter: %w", err)
	}
	return &models.Result{Outcome: models.OutcomeVerified, DocumentNumber: a.document, Voter: v}, nil
}

func (s *Service) logLetter(ctx context.Context, a *attempt, res *models.Result) error {
	msg, ok := models.LetterMessageFor(res.Outcome)
	if !ok {
		return nil
	}
	entry, err := officing.NewLetterOfficerLog(a.req.OfficerID, a.document, a.postal, msg, a.now)
	if err != nil {
		return err
	}
	if err := s.ledger.RecordLetterVerdict(ctx, entry); err != nil {
		return err
	}
	res.LetterMessage = msg
	return nil
}

var outcomeEvents = map[models.Outcome]audit.AuditEvent{
	models.OutcomeVerified:       audit.EventVoterVerified,
	models.OutcomeAlreadyVoted:   audit.EventVoterAlreadyVoted,
	models.OutcomeCensusRejected: audit.EventCensusRejected,
	models.OutcomeUnauthorized:   audit.EventOfficerUnauthorized,
	models.OutcomeInvalidInput:   audit.EventVerificationInvalid,
}

func (s *Service) emit(ctx context.Context, a *attempt, res *models.Result) {
	event := audit.Event{
		Action:        outcomeEvents[res.Outcome],
		PollID:        pollIDOf(a),
		Channel:       string(a.req.Channel),
		Outcome:       string(res.Outcome),
		Reason:        res.Reason,
		SubjectIDHash: audit.HashSubject(a.document),
		RequestID:     requestcontext.RequestID(ctx),
		ClientIP:      requestcontext.ClientIP(ctx),
		Device:        requestcontext.Device(ctx),
	}
	if !a.req.OfficerID.IsNil() {
		event.OfficerID = a.req.OfficerID.String()
	}
	if !a.req.UserID.IsNil() {
		event.UserID = a.req.UserID.String()
	}
	if err := s.auditor.Emit(ctx, event.Normalize(a.now)); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", string(event.Action),
			"error", err,
		)
	}
}

func pollIDOf(a *attempt) string {
	if a.poll != nil {
		return a.poll.ID.String()
	}
	if !a.req.PollID.IsNil() {
		return a.req.PollID.String()
	}
	return ""
}

func officerIDOf(req models.Request) string {
	if req.OfficerID.IsNil() {
		return ""
	}
	return req.OfficerID.String()
}
