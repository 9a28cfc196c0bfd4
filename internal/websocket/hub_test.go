package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recv(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return &msg
	default:
		return nil
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := newTestHub()
	a := NewClient(hub, nil, "u1")
	b := NewClient(hub, nil, "u2")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(NewMessage("notice", "created", "7", nil))

	for _, c := range []*Client{a, b} {
		msg := recv(t, c)
		if msg == nil || msg.Type != "notice_created" {
			t.Errorf("client %s: msg = %+v", c.uid, msg)
		}
	}
}

func TestSendToUIDTargetsOneUser(t *testing.T) {
	hub := newTestHub()
	tab1 := NewClient(hub, nil, "u1")
	tab2 := NewClient(hub, nil, "u1")
	other := NewClient(hub, nil, "u2")
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	hub.SendToUID("u1", BalanceMessage("u1", 4500))

	// Both of u1's tabs get the balance, u2 gets nothing.
	for _, c := range []*Client{tab1, tab2} {
		msg := recv(t, c)
		if msg == nil || msg.Type != "balance_updated" {
			t.Fatalf("u1 tab: msg = %+v", msg)
		}
		if pts, ok := msg.Extra["points"].(float64); !ok || pts != 4500 {
			t.Errorf("points = %v", msg.Extra["points"])
		}
	}
	if msg := recv(t, other); msg != nil {
		t.Errorf("u2 received %+v, want nothing", msg)
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := newTestHub()
	c := NewClient(hub, nil, "u1")
	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("count = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel still open after unregister")
	}

	// Second unregister is a no-op, not a double close.
	hub.Unregister(c)
}
