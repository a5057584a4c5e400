package poll

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "ballotbox/pkg/domain"
	dErrors "ballotbox/pkg/domain-errors"
)

func TestNewPoll(t *testing.T) {
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	t.Run("rejects a schedule that does not end after it starts", func(t *testing.T) {
		_, err := New(id.PollID(uuid.New()), "budget", start, start)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = New(id.PollID(uuid.New()), "budget", start, start.Add(-time.Hour))
		require.Error(t, err)
	})

	t.Run("geozones make the poll restricted", func(t *testing.T) {
		p, err := New(id.PollID(uuid.New()), "district", start, start.Add(time.Hour), "01", "02")
		require.NoError(t, err)
		assert.True(t, p.GeozoneRestricted)
		assert.True(t, p.AllowsGeozone("02"))
		assert.False(t, p.AllowsGeozone("03"))
		assert.False(t, p.AllowsGeozone(""))
	})

	t.Run("unrestricted polls allow every geozone", func(t *testing.T) {
		p, err := New(id.PollID(uuid.New()), "city", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, p.AllowsGeozone("99"))
		assert.True(t, p.AllowsGeozone(""))
	})
}

func TestPollState(t *testing.T) {
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Hour)
	p, err := New(id.PollID(uuid.New()), "budget", start, end)
	require.NoError(t, err)

	assert.Equal(t, StateIncoming, p.StateAt(start.Add(-time.Second)))
	assert.Equal(t, StateCurrent, p.StateAt(start))
	assert.Equal(t, StateCurrent, p.StateAt(start.Add(time.Hour)))
	assert.Equal(t, StateCurrent, p.StateAt(end))
	assert.Equal(t, StateExpired, p.StateAt(end.Add(time.Second)))
	assert.True(t, p.IsCurrent(end))
}

func TestNewPollCleansGeozones(t *testing.T) {
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	p, err := New(id.PollID(uuid.New()), "district", start, start.Add(time.Hour), " 01", "01", "", "02")
	require.NoError(t, err)
	assert.Equal(t, []string{"01", "02"}, p.Geozones)

	blank, err := New(id.PollID(uuid.New()), "city", start, start.Add(time.Hour), " ")
	require.NoError(t, err)
	assert.False(t, blank.GeozoneRestricted)
}
