package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresBrokersAndTopic(t *testing.T) {
	_, err := New(context.Background(), Config{Topic: "ballotbox.audit"})
	require.Error(t, err)

	_, err = New(context.Background(), Config{Brokers: []string{"localhost:9092"}})
	require.Error(t, err)
}
