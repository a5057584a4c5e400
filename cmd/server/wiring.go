package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"ballotbox/internal/census"
	censusmetrics "ballotbox/internal/census/metrics"
	jwttoken "ballotbox/internal/jwt_token"
	nvotehandler "ballotbox/internal/nvote/handler"
	nvotemetrics "ballotbox/internal/nvote/metrics"
	nvoteservice "ballotbox/internal/nvote/service"
	nvotestore "ballotbox/internal/nvote/store"
	officinghandler "ballotbox/internal/officing/handler"
	officingmetrics "ballotbox/internal/officing/metrics"
	officingservice "ballotbox/internal/officing/service"
	"ballotbox/internal/officing/store/assignment"
	"ballotbox/internal/officing/store/failedcall"
	"ballotbox/internal/officing/store/letterlog"
	"ballotbox/internal/platform/config"
	platformmetrics "ballotbox/internal/platform/metrics"
	"ballotbox/internal/poll"
	pollstore "ballotbox/internal/poll/store"
	ratelimitmetrics "ballotbox/internal/ratelimit/metrics"
	ratelimit "ballotbox/internal/ratelimit/middleware"
	recounthandler "ballotbox/internal/recount/handler"
	recountmetrics "ballotbox/internal/recount/metrics"
	recountservice "ballotbox/internal/recount/service"
	recountstore "ballotbox/internal/recount/store"
	httptransport "ballotbox/internal/transport/http"
	verificationhandler "ballotbox/internal/verification/handler"
	verificationmetrics "ballotbox/internal/verification/metrics"
	verificationservice "ballotbox/internal/verification/service"
	"ballotbox/internal/voter"
	voterstore "ballotbox/internal/voter/store"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/audit"
	"ballotbox/pkg/platform/tx"
)

const (
	tokenIssuer   = "ballotbox"
	tokenAudience = "ballotbox-api"
)

// pollReader is the poll read model every module consumes.
type pollReader interface {
	FindPoll(ctx context.Context, pollID id.PollID) (*poll.Poll, error)
	FindBoothAssignment(ctx context.Context, boothID id.BoothAssignmentID) (*poll.BoothAssignment, error)
	ListBoothAssignments(ctx context.Context, pollID id.PollID) ([]*poll.BoothAssignment, error)
}

type voterLedger interface {
	FindByIdentity(ctx context.Context, pollID id.PollID, who voter.Identity) (*voter.Voter, error)
	Insert(ctx context.Context, v *voter.Voter) error
	CountByBoothAssignment(ctx context.Context, boothID id.BoothAssignmentID) (int, error)
}

// storage groups one backend's stores. All of them must share the
// transaction runner's backend.
type storage struct {
	polls    pollReader
	voters   voterLedger
	shifts   officingservice.AssignmentStore
	failed   officingservice.FailedCallStore
	letters  officingservice.LetterLogStore
	nvotes   nvoteservice.Store
	recounts recountservice.Store
	runner   tx.Runner
}

func postgresStorage(db *sql.DB) storage {
	return storage{
		polls:    pollstore.NewPostgres(db),
		voters:   voterstore.NewPostgres(db),
		shifts:   assignment.NewPostgres(db),
		failed:   failedcall.NewPostgres(db),
		letters:  letterlog.NewPostgres(db),
		nvotes:   nvotestore.NewPostgres(db),
		recounts: recountstore.NewPostgres(db),
		runner:   tx.NewSQLRunner(db, nil),
	}
}

// memoryStorage backs development runs and in-process tests. Polls and
// shifts are authored elsewhere, so callers pass the stores they seed.
func memoryStorage(polls *pollstore.InMemory, shifts *assignment.InMemory) storage {
	voters := voterstore.NewInMemory()
	return storage{
		polls:    polls,
		voters:   voters,
		shifts:   shifts,
		failed:   failedcall.NewInMemory(),
		letters:  letterlog.NewInMemory(),
		nvotes:   nvotestore.NewInMemory(),
		recounts: recountstore.NewInMemory(polls, voters),
		runner:   tx.NewMemoryRunner(),
	}
}

// metricSet is nil-safe throughout; tests leave it empty because promauto
// registers globally.
type metricSet struct {
	http         *platformmetrics.Metrics
	census       *censusmetrics.Metrics
	officing     *officingmetrics.Metrics
	verification *verificationmetrics.Metrics
	nvote        *nvotemetrics.Metrics
	recount      *recountmetrics.Metrics
	ratelimit    *ratelimitmetrics.Metrics
}

func newMetricSet() metricSet {
	return metricSet{
		http:         platformmetrics.New(),
		census:       censusmetrics.New(),
		officing:     officingmetrics.New(),
		verification: verificationmetrics.New(),
		nvote:        nvotemetrics.New(),
		recount:      recountmetrics.New(),
		ratelimit:    ratelimitmetrics.New(),
	}
}

type app struct {
	cfg     config.Server
	logger  *slog.Logger
	store   storage
	census  census.Gateway
	buckets ratelimit.BucketStore
	auditor audit.Emitter
	metrics metricSet
	health  map[string]httptransport.HealthCheck
}

// handler builds every service over the app's collaborators and returns the
// routed HTTP handler.
func (a *app) handler() (http.Handler, error) {
	scheduler := officingservice.NewScheduler(a.store.shifts, a.cfg.Location,
		officingservice.WithSchedulerMetrics(a.metrics.officing),
	)
	accountability := officingservice.NewAccountability(a.store.failed, a.store.letters,
		officingservice.WithMetrics(a.metrics.officing),
	)

	verification := verificationservice.New(a.store.polls, scheduler, a.census, a.store.voters, accountability,
		verificationservice.WithMetrics(a.metrics.verification),
		verificationservice.WithLogger(a.logger),
		verificationservice.WithAuditor(a.auditor),
		verificationservice.WithLocation(a.cfg.Location),
	)

	signer, err := nvoteservice.NewSigner(a.cfg.NvoteSecret)
	if err != nil {
		return nil, err
	}
	nvotes := nvoteservice.New(a.store.nvotes, a.store.polls, a.store.voters, a.store.runner, signer,
		nvoteservice.WithMetrics(a.metrics.nvote),
		nvoteservice.WithLogger(a.logger),
		nvoteservice.WithAuditor(a.auditor),
	)

	recounts := recountservice.New(a.store.recounts, a.store.polls, scheduler,
		recountservice.WithMetrics(a.metrics.recount),
		recountservice.WithLogger(a.logger),
		recountservice.WithAuditor(a.auditor),
	)

	throttle := ratelimit.New(a.buckets, a.cfg.Throttle.Limit, a.cfg.Throttle.Window, a.logger,
		ratelimit.WithMetrics(a.metrics.ratelimit),
		ratelimit.WithAuditor(a.auditor),
		ratelimit.WithDisabled(a.cfg.Throttle.Limit <= 0),
	)

	tokens := jwttoken.NewJWTService(a.cfg.JWTSigningKey, tokenIssuer, tokenAudience)

	return httptransport.NewRouter(httptransport.Dependencies{
		Logger:       a.logger,
		Metrics:      a.metrics.http,
		Tokens:       tokens.Validator(),
		AdminToken:   a.cfg.AdminAPIToken,
		Throttle:     throttle,
		Verification: verificationhandler.New(verification, a.logger),
		Nvote:        nvotehandler.New(nvotes, a.logger),
		Recount:      recounthandler.New(recounts, a.logger),
		Officing:     officinghandler.New(accountability, a.logger),
		HealthChecks: a.health,
	}), nil
}
