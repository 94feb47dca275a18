package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood_chat_server/internal/model"
)

type queuedMessage struct {
	key, value []byte
}

// chanQueue 用 channel 模拟一个分区
type chanQueue struct {
	ch chan queuedMessage
}

func newChanQueue() *chanQueue {
	return &chanQueue{ch: make(chan queuedMessage, 16)}
}

func (q *chanQueue) WriteMessage(_ context.Context, key, value []byte) error {
	q.ch <- queuedMessage{key: key, value: value}
	return nil
}

func (q *chanQueue) ReadMessage(ctx context.Context) ([]byte, []byte, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case m := <-q.ch:
		return m.key, m.value, nil
	}
}

func localClient(t *testing.T, hub *Hub, groupId string) *Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := &Client{id: "local", hub: hub, send: make(chan []byte, 8), ctx: ctx, cancel: cancel}
	hub.Register(c)
	hub.join(c, groupId)
	return c
}

func nextFrame(t *testing.T, c *Client) NewGroupMessage {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		require.Equal(t, EventNewGroupMessage, env.Event)
		var frame NewGroupMessage
		require.NoError(t, json.Unmarshal(env.Data, &frame))
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
	return NewGroupMessage{}
}

func TestKafkaBrokerRoundTrip(t *testing.T) {
	hub := NewHub(nil)
	queue := newChanQueue()
	broker := NewKafkaBroker(hub, queue)
	c := localClient(t, hub, "G1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		broker.Start(ctx)
		close(done)
	}()

	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, broker.BroadcastMessage(ctx, &model.GroupMessage{
		Id: 42, GroupId: "G1", UserId: "alice", AnonymousSender: "Calm Otter", Body: "hello", CreatedAt: createdAt,
	}))

	frame := nextFrame(t, c)
	assert.Equal(t, "42", frame.Id)
	assert.Equal(t, "Calm Otter", frame.AnonymousSender)
	assert.Equal(t, "hello", frame.Message)
	assert.True(t, createdAt.Equal(frame.CreatedAt))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestKafkaBrokerKeysByGroup(t *testing.T) {
	queue := newChanQueue()
	broker := NewKafkaBroker(NewHub(nil), queue)

	require.NoError(t, broker.BroadcastMessage(context.Background(), &model.GroupMessage{Id: 1, GroupId: "G7", UserId: "alice"}))
	m := <-queue.ch
	assert.Equal(t, "G7", string(m.key))
	assert.NotContains(t, string(m.value), "alice")
}

func TestKafkaBrokerSkipsMalformed(t *testing.T) {
	hub := NewHub(nil)
	queue := newChanQueue()
	broker := NewKafkaBroker(hub, queue)
	c := localClient(t, hub, "G1")

	queue.ch <- queuedMessage{value: []byte("garbage")}
	queue.ch <- queuedMessage{value: []byte(`{"id":"1","message":"no group"}`)}
	require.NoError(t, broker.BroadcastMessage(context.Background(), &model.GroupMessage{Id: 2, GroupId: "G1", Body: "ok"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go broker.Start(ctx)

	frame := nextFrame(t, c)
	assert.Equal(t, "2", frame.Id)
	assert.Len(t, c.send, 0)
}
