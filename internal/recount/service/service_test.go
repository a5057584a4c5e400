package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	officing "ballotbox/internal/officing/models"
	officingsvc "ballotbox/internal/officing/service"
	"ballotbox/internal/officing/store/assignment"
	"ballotbox/internal/poll"
	pollstore "ballotbox/internal/poll/store"
	"ballotbox/internal/recount/models"
	recountstore "ballotbox/internal/recount/store"
	"ballotbox/internal/voter"
	voterstore "ballotbox/internal/voter/store"
	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
	"ballotbox/pkg/platform/audit"
	auditmemory "ballotbox/pkg/platform/audit/store/memory"
	"ballotbox/pkg/requestcontext"
)

type RecountSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	polls   *pollstore.InMemory
	voters  *voterstore.InMemory
	shifts  *assignment.InMemory
	auditor *auditmemory.InMemoryStore
	svc     *Service
	pollID  id.PollID
	boothA  id.BoothAssignmentID
	boothB  id.BoothAssignmentID
	officer id.UserID
}

func TestRecountSuite(t *testing.T) {
	suite.Run(t, new(RecountSuite))
}

func (s *RecountSuite) SetupTest() {
	s.now = time.Date(2026, 5, 10, 19, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.polls = pollstore.NewInMemory()
	s.voters = voterstore.NewInMemory()
	s.shifts = assignment.NewInMemory()
	s.auditor = auditmemory.NewInMemoryStore()

	s.pollID = id.PollID(uuid.New())
	p, err := poll.New(s.pollID, "Presupuestos", s.now.Add(-12*time.Hour), s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.polls.SavePoll(s.ctx, p))

	s.boothA = id.BoothAssignmentID(uuid.New())
	s.boothB = id.BoothAssignmentID(uuid.New())
	for booth, name := range map[id.BoothAssignmentID]string{s.boothA: "A", s.boothB: "B"} {
		s.Require().NoError(s.polls.SaveBoothAssignment(s.ctx, &poll.BoothAssignment{ID: booth, PollID: s.pollID, BoothName: name}))
	}

	s.officer = id.UserID(uuid.New())
	s.Require().NoError(s.shifts.SaveOfficer(s.ctx, &officing.Officer{UserID: s.officer, Name: "Ana"}))
	s.Require().NoError(s.shifts.SaveAssignment(s.ctx, &officing.Assignment{
		ID: uuid.New(), OfficerID: s.officer, BoothAssignmentID: s.boothA, Date: "2026-05-10",
	}))

	store := recountstore.NewInMemory(s.polls, s.voters)
	s.svc = New(store, s.polls, officingsvc.NewScheduler(s.shifts, time.UTC),
		WithAuditor(s.auditor),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
}

func (s *RecountSuite) castBoothVotes(booth id.BoothAssignmentID, n int) {
	for i := range n {
		v, err := voter.New(voter.Params{
			PollID:            s.pollID,
			DocumentType:      id.DocumentTypeDNI,
			DocumentNumber:    fmt.Sprintf("%08dZ-%s", i, booth.String()[:4]),
			Origin:            voter.OriginBooth,
			BoothAssignmentID: booth,
			OfficerID:         s.officer,
		}, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.voters.Insert(s.ctx, v))
	}
}

func (s *RecountSuite) TestMatchingFinalRecountIsClean() {
	s.castBoothVotes(s.boothA, 40)
	_, err := s.svc.Submit(s.ctx, s.officer, s.boothA, models.KindFinal, 40)
	s.Require().NoError(err)

	t, err := s.svc.BoothReport(s.ctx, s.boothA)
	s.Require().NoError(err)
	s.Equal(40, t.Final)
	s.Equal(40, t.System)
	s.False(t.HasDiscrepancy())
}

func (s *RecountSuite) TestOverReportedFinalRecountIsFlagged() {
	s.castBoothVotes(s.boothA, 40)
	_, err := s.svc.Submit(s.ctx, s.officer, s.boothA, models.KindFinal, 41)
	s.Require().NoError(err)

	t, err := s.svc.BoothReport(s.ctx, s.boothA)
	s.Require().NoError(err)
	s.True(t.HasDiscrepancy())
	s.Equal(1, t.Discrepancy())
}

func (s *RecountSuite) TestDailyRecountsAccumulate() {
	for _, c := range []int{10, 15, 0} {
		_, err := s.svc.Submit(s.ctx, s.officer, s.boothA, models.KindDaily, c)
		s.Require().NoError(err)
	}
	t, err := s.svc.BoothReport(s.ctx, s.boothA)
	s.Require().NoError(err)
	s.Equal(25, t.Daily)
	s.Equal(0, t.Final)
	s.False(t.HasDiscrepancy())

	events, err := s.auditor.ListByAction(s.ctx, audit.EventRecountSubmitted)
	s.Require().NoError(err)
	s.Len(events, 3)
}

func (s *RecountSuite) TestReportsNeverTouchTheLedger() {
	s.castBoothVotes(s.boothA, 3)
	_, err := s.svc.Submit(s.ctx, s.officer, s.boothA, models.KindFinal, 5)
	s.Require().NoError(err)

	for range 3 {
		_, err := s.svc.BoothReport(s.ctx, s.boothA)
		s.Require().NoError(err)
		_, err = s.svc.PollReport(s.ctx, s.pollID)
		s.Require().NoError(err)
	}
	n, err := s.voters.CountByBoothAssignment(s.ctx, s.boothA)
	s.Require().NoError(err)
	s.Equal(3, n)

	t, err := s.svc.BoothReport(s.ctx, s.boothA)
	s.Require().NoError(err)
	s.Equal(5, t.Final)
}

func (s *RecountSuite) TestPollReportTotals() {
	s.castBoothVotes(s.boothA, 40)
	s.castBoothVotes(s.boothB, 2)
	_, err := s.svc.Submit(s.ctx, s.officer, s.boothA, models.KindFinal, 41)
	s.Require().NoError(err)

	r, err := s.svc.PollReport(s.ctx, s.pollID)
	s.Require().NoError(err)
	s.Require().Len(r.Booths, 2)
	s.Equal("A", r.Booths[0].BoothName)
	s.Equal(41, r.Totals.Final)
	s.Equal(42, r.Totals.System)
	s.Equal(2, r.Flagged())

	_, err = s.svc.PollReport(s.ctx, id.PollID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RecountSuite) TestSubmitRequiresShiftToday() {
	_, err := s.svc.Submit(s.ctx, s.officer, s.boothB, models.KindDaily, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	tomorrow := requestcontext.WithTime(context.Background(), s.now.Add(24*time.Hour))
	_, err = s.svc.Submit(tomorrow, s.officer, s.boothA, models.KindDaily, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	denied, err := s.auditor.ListByAction(s.ctx, audit.EventOfficerUnauthorized)
	s.Require().NoError(err)
	s.Len(denied, 2)

	t, err := s.svc.BoothReport(s.ctx, s.boothB)
	s.Require().NoError(err)
	s.Equal(0, t.Daily)
}

func (s *RecountSuite) TestSubmitValidation() {
	_, err := s.svc.Submit(s.ctx, s.officer, s.boothA, models.KindFinal, -1)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Submit(s.ctx, id.UserID{}, s.boothA, models.KindFinal, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.svc.BoothReport(s.ctx, id.BoothAssignmentID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
