package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
)

func TestTallyDiscrepancy(t *testing.T) {
	t.Run("matching final count is clean", func(t *testing.T) {
		tally := Tally{Final: 40, System: 40, Daily: 12}
		assert.False(t, tally.HasDiscrepancy())
		assert.Equal(t, 0, tally.Discrepancy())
	})

	t.Run("one extra reported vote", func(t *testing.T) {
		tally := Tally{Final: 41, System: 40}
		assert.True(t, tally.HasDiscrepancy())
		assert.Equal(t, 1, tally.Discrepancy())
	})

	t.Run("daily figures are never compared", func(t *testing.T) {
		tally := Tally{Daily: 7, Final: 0, System: 0}
		assert.False(t, tally.HasDiscrepancy())
	})
}

func TestNewPollReport(t *testing.T) {
	pollID := id.PollID(uuid.New())
	r := NewPollReport(pollID, []Tally{
		{Daily: 10, Final: 40, System: 40},
		{Daily: 5, Final: 41, System: 40},
		{Daily: 0, Final: 0, System: 3},
	})

	assert.Equal(t, 15, r.Totals.Daily)
	assert.Equal(t, 81, r.Totals.Final)
	assert.Equal(t, 83, r.Totals.System)
	assert.Equal(t, -2, r.Totals.Discrepancy())
	assert.Equal(t, 2, r.Flagged())
}

func TestNew(t *testing.T) {
	booth := id.BoothAssignmentID(uuid.New())
	officer := id.UserID(uuid.New())
	now := time.Now()

	r, err := New(KindFinal, booth, officer, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Count)
	assert.Equal(t, KindFinal, r.Kind)

	_, err = New(KindDaily, booth, officer, -1, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = New(Kind("weekly"), booth, officer, 1, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = ParseKind("final")
	assert.NoError(t, err)
	_, err = ParseKind("FINAL")
	assert.Error(t, err)
}
