package pubsub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/coding-arena/arena/internal/standings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestBroker_LateSubscriberGetsLatest(t *testing.T) {
	b := NewBroker()
	b.Publish("t", []byte("one"))
	b.Publish("t", []byte("two"))

	ch, unsubscribe := b.Subscribe("t")
	defer unsubscribe()

	assert.Equal(t, "two", string(receive(t, ch)))
	b.Publish("t", []byte("three"))
	assert.Equal(t, "three", string(receive(t, ch)))
}

func TestBroker_SlowSubscriberKeepsNewest(t *testing.T) {
	b := NewBroker()
	ch, unsubscribe := b.Subscribe("t")
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish("t", []byte{byte(i)})
	}

	var last []byte
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, []byte{byte(subscriberBuffer + 4)}, last)
}

func TestBroker_UnsubscribeIsIdempotent(t *testing.T) {
	b := NewBroker()
	ch, unsubscribe := b.Subscribe("t")

	unsubscribe()
	assert.NotPanics(t, unsubscribe)
	_, ok := <-ch
	assert.False(t, ok)

	assert.NotPanics(t, func() { b.Publish("t", []byte("x")) })
}

func TestBroker_CloseTopic(t *testing.T) {
	b := NewBroker()
	b.Publish("t", []byte("x"))
	ch, unsubscribe := b.Subscribe("t")
	<-ch

	b.CloseTopic("t")
	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, unsubscribe)

	_, ok = b.Latest("t")
	assert.False(t, ok)
}

func TestStandingsPublisher(t *testing.T) {
	b := NewBroker()
	pub := StandingsPublisher{Broker: b}
	ch, unsubscribe := b.Subscribe(StandingsTopic("spring-cup"))
	defer unsubscribe()

	pub.PublishStandings(&standings.Standings{
		ContestID: "spring-cup",
		Records:   []standings.ScoreRecord{{Name: "Alice", Handle: "tourist", Solved: 1, Penalty: 12}},
	})

	var msg WsMessage
	require.NoError(t, json.Unmarshal(receive(t, ch), &msg))
	assert.Equal(t, "standings", msg.Stream)

	var got standings.Standings
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "spring-cup", got.ContestID)
	assert.Equal(t, 12, got.Records[0].Penalty)
}

func TestGetBrokerIsSingleton(t *testing.T) {
	assert.Same(t, GetBroker(), GetBroker())
}
