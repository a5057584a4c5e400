//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ballotbox/internal/nvote/models"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
	"ballotbox/pkg/platform/tx"
	"ballotbox/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	store  *PostgresStore
	ctx    context.Context
	pollID id.PollID
	now    time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.pollID = s.pg.SeedPoll(s.T(), s.now.Add(-time.Hour), s.now.Add(time.Hour))
}

func (s *PostgresStoreSuite) candidate(user id.UserID) *models.Nvote {
	n, err := models.New(user, s.pollID, func(m string) string { return "h-" + m }, s.now)
	s.Require().NoError(err)
	return n
}

func (s *PostgresStoreSuite) TestGetOrCreateKeepsFirstToken() {
	user := id.UserID(uuid.New())
	first, err := s.store.GetOrCreate(s.ctx, s.candidate(user))
	s.Require().NoError(err)
	second, err := s.store.GetOrCreate(s.ctx, s.candidate(user))
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(first.Message, second.Message)
	s.False(second.Confirmed)
	s.Nil(second.ConfirmedAt)
}

func (s *PostgresStoreSuite) TestGetOrCreateUnknownPoll() {
	n, err := models.New(id.UserID(uuid.New()), id.PollID(uuid.New()), func(m string) string { return m }, s.now)
	s.Require().NoError(err)
	_, err = s.store.GetOrCreate(s.ctx, n)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConfirmIsSingleUse() {
	n, err := s.store.GetOrCreate(s.ctx, s.candidate(id.UserID(uuid.New())))
	s.Require().NoError(err)

	_, err = s.store.Confirm(s.ctx, n.Message, "wrong", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	confirmed, err := s.store.Confirm(s.ctx, n.Message, n.Hash, s.now)
	s.Require().NoError(err)
	s.True(confirmed.Confirmed)
	s.Require().NotNil(confirmed.ConfirmedAt)
	s.WithinDuration(s.now, *confirmed.ConfirmedAt, time.Millisecond)

	_, err = s.store.Confirm(s.ctx, n.Message, n.Hash, s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentConfirmsHaveOneWinner() {
	n, err := s.store.GetOrCreate(s.ctx, s.candidate(id.UserID(uuid.New())))
	s.Require().NoError(err)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Confirm(s.ctx, n.Message, n.Hash, s.now); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *PostgresStoreSuite) TestConfirmRollsBackWithTransaction() {
	runner := tx.NewSQLRunner(s.pg.DB, nil)
	user := id.UserID(uuid.New())
	n, err := s.store.GetOrCreate(s.ctx, s.candidate(user))
	s.Require().NoError(err)
	boom := errors.New("abort")

	err = runner.RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.Confirm(ctx, n.Message, n.Hash, s.now); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	after, err := s.store.FindByOwner(s.ctx, user, s.pollID)
	s.Require().NoError(err)
	s.False(after.Confirmed)
}
