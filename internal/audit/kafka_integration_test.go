//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"civicportal/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	redpanda := containers.NewRedpandaContainer(t)
	const topic = "portal.audit.test"
	redpanda.CreateTopic(t, topic)

	publisher, err := NewKafkaPublisher(redpanda.Brokers, topic)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := Event{
		Actor:   "mod@portal.example",
		Subject: "sam@cafe.example",
		Action:  ActionApplicationApproved,
		Detail:  "Corner Cafe",
	}
	require.NoError(t, publisher.Emit(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, []byte("sam@cafe.example"), records[0].Key)

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, ActionApplicationApproved, got.Action)
	require.Equal(t, "Corner Cafe", got.Detail)
	require.False(t, got.Timestamp.IsZero(), "publisher stamps events")
}
