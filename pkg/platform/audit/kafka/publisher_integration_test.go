//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "ballotbox/pkg/platform/audit"
	"ballotbox/pkg/platform/audit/kafka"
	"ballotbox/pkg/testutil/containers"
)

func TestPublisherDeliversKeyedEvents(t *testing.T) {
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "ballotbox.audit.test"
	require.NoError(t, broker.CreateTopic(ctx, topic))

	pub, err := kafka.New(ctx, kafka.Config{
		Brokers:  []string{broker.Broker},
		Topic:    topic,
		ClientID: "ballotbox-test",
	}, kafka.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	require.NoError(t, pub.Emit(ctx, audit.Event{Action: audit.EventVoterVerified, PollID: "poll-1", Channel: "booth"}))
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: audit.EventNvoteRejected, PollID: "poll-1"}))
	require.NoError(t, pub.Close(ctx))

	records, err := broker.Consume(ctx, topic, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	var first audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &first))
	assert.Equal(t, audit.EventVoterVerified, first.Action)
	assert.Equal(t, audit.CategoryCompliance, first.Category)
	assert.Equal(t, "booth", first.Channel)
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, []byte("poll-1"), records[0].Key)

	headers := map[string]string{}
	for _, h := range records[1].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, string(audit.CategorySecurity), headers["category"])
	assert.Equal(t, string(audit.EventNvoteRejected), headers["action"])
}
