package websocket

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/playlog/internal/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func newTestClient(hub *Hub) *Client {
	return &Client{id: "test", hub: hub, send: make(chan []byte, 8), logger: hub.logger}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestHubDeliversToTopicSubscribers(t *testing.T) {
	hub := newTestHub(t)
	plays := newTestClient(hub)
	other := newTestClient(hub)

	hub.Register(plays)
	hub.Register(other)
	hub.Subscribe(plays, TopicPlays)
	hub.Subscribe(other, TopicCollection)
	waitFor(t, func() bool {
		return hub.GetSubscriberCount(TopicPlays) == 1 && hub.GetSubscriberCount(TopicCollection) == 1
	})

	hub.PlaysChanged(domain.PlayCreatedEvent{PlayID: "p1", Game: "Azul"})

	msg := receive(t, plays)
	if msg.Type != MessageTypePlayCreated || msg.Topic != TopicPlays {
		t.Errorf("got %s/%s, want %s/%s", msg.Type, msg.Topic, MessageTypePlayCreated, TopicPlays)
	}

	select {
	case <-other.send:
		t.Error("collection subscriber received a plays message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub)

	hub.Register(c)
	hub.Subscribe(c, TopicCollection)
	waitFor(t, func() bool { return hub.GetSubscriberCount(TopicCollection) == 1 })

	hub.Unregister(c)
	waitFor(t, func() bool { return hub.GetTotalConnections() == 0 })

	if n := hub.GetSubscriberCount(TopicCollection); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel still open")
	}
}

func TestHandleMessageRejectsUnknownTopic(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub)

	c.handleMessage(&ClientMessage{Type: MessageTypeSubscribe, Topic: "scores"})

	msg := receive(t, c)
	if msg.Type != MessageTypeError {
		t.Errorf("type = %s, want error", msg.Type)
	}
	if n := hub.GetSubscriberCount("scores"); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestHandleMessageSubscribeAcks(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub)
	hub.Register(c)

	c.handleMessage(&ClientMessage{Type: MessageTypeSubscribe, Topic: TopicCollection})

	msg := receive(t, c)
	if msg.Type != MessageTypeSubscribed || msg.Topic != TopicCollection {
		t.Errorf("got %s/%s", msg.Type, msg.Topic)
	}
	waitFor(t, func() bool { return hub.GetSubscriberCount(TopicCollection) == 1 })

	hub.CollectionChanged(domain.CollectionEvent{Action: "synced", Synced: 3})
	if msg := receive(t, c); msg.Type != MessageTypeCollectionChanged {
		t.Errorf("type = %s, want %s", msg.Type, MessageTypeCollectionChanged)
	}
}
