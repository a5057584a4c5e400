package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballotbox/internal/poll"
	pollstore "ballotbox/internal/poll/store"
	"ballotbox/internal/recount/models"
	voterstore "ballotbox/internal/voter/store"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/platform/sentinel"
)

func TestInMemoryAppendRequiresBooth(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(pollstore.NewInMemory(), voterstore.NewInMemory())

	r := &models.Recount{Kind: models.KindDaily, BoothAssignmentID: id.BoothAssignmentID(uuid.New()), Count: 1}
	assert.ErrorIs(t, s.Append(ctx, r), sentinel.ErrNotFound)

	_, err := s.BoothTally(ctx, r.BoothAssignmentID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryTallySeparatesKinds(t *testing.T) {
	ctx := context.Background()
	polls := pollstore.NewInMemory()
	pollID := id.PollID(uuid.New())
	booth := id.BoothAssignmentID(uuid.New())
	require.NoError(t, polls.SavePoll(ctx, &poll.Poll{ID: pollID}))
	require.NoError(t, polls.SaveBoothAssignment(ctx, &poll.BoothAssignment{ID: booth, PollID: pollID, BoothName: "A"}))

	s := NewInMemory(polls, voterstore.NewInMemory())
	require.NoError(t, s.Append(ctx, &models.Recount{Kind: models.KindDaily, BoothAssignmentID: booth, Count: 3}))
	require.NoError(t, s.Append(ctx, &models.Recount{Kind: models.KindFinal, BoothAssignmentID: booth, Count: 9}))

	tallies, err := s.PollTallies(ctx, pollID)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, 3, tallies[0].Daily)
	assert.Equal(t, 9, tallies[0].Final)
	assert.Equal(t, 0, tallies[0].System)
}
