package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestNewReplaceMessage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		msg, err := NewReplaceMessage(ChannelFacts, "counter_happening_1", map[string]int{"seats_count": 10})

		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, ChannelFacts, msg.Channel)
		assert.Equal(t, ActionReplace, msg.Action)
		assert.Equal(t, "counter_happening_1", msg.Target)
		assert.JSONEq(t, `{"seats_count":10}`, string(msg.Payload))
	})

	t.Run("Failed - unmarshalable payload", func(t *testing.T) {
		_, err := NewReplaceMessage(ChannelFacts, "x", make(chan int))

		assert.Error(t, err)
	})
}

func TestHub_SubscribeAndEmit(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	facts := hub.Subscribe(ctx, ChannelFacts)
	other := hub.Subscribe(ctx, "other")

	msg, err := NewReplaceMessage(ChannelFacts, "nav_fact_1", map[string]string{"name": "Theatre"})
	require.NoError(t, err)
	require.NoError(t, hub.Publish(ctx, msg))

	got := receive(t, facts)
	assert.Equal(t, msg.ID, got.ID)

	select {
	case <-other:
		t.Fatal("message delivered to another channel")
	default:
	}
}

func TestHub_UnsubscribeOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx, ChannelFacts)
	assert.Equal(t, 1, hub.ClientCount(ChannelFacts))

	cancel()

	require.Eventually(t, func() bool { return hub.ClientCount(ChannelFacts) == 0 }, time.Second, 10*time.Millisecond)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub.Subscribe(ctx, ChannelFacts)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Emit(Message{Channel: ChannelFacts, Target: "t"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
}

func TestHub_Close(t *testing.T) {
	t.Run("Success - closes active subscribers", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := hub.Subscribe(ctx, ChannelFacts)

		hub.Close()

		select {
		case _, ok := <-ch:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("Close 後 channel 未關閉")
		}
		assert.Zero(t, hub.ClientCount(ChannelFacts))

		// ctx 結束後的移除不可 panic
		cancel()
		hub.Close()
	})

	t.Run("Success - subscribe after close returns closed channel", func(t *testing.T) {
		hub := NewHub()
		hub.Close()

		ch := hub.Subscribe(context.Background(), ChannelFacts)

		_, ok := <-ch
		assert.False(t, ok)
		assert.Zero(t, hub.ClientCount(ChannelFacts))
	})
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	msg := Message{ID: "1", Payload: json.RawMessage(`{}`)}

	require.NoError(t, rec.Publish(context.Background(), msg))

	assert.Equal(t, []Message{msg}, rec.Messages())
}
