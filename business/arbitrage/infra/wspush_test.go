package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestWSPushBroadcastsToClients(t *testing.T) {
	c, err := NewWSPushConsumer(WSPushConfig{Port: 0}, testLog())
	if err != nil {
		t.Fatalf("NewWSPushConsumer: %v", err)
	}
	defer c.Close()

	port := c.listener.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("ws://127.0.0.1:%d/ws/opportunities", port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for c.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	opp := sampleOpportunity()
	if err := c.Deliver(context.Background(), opp); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg opportunityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if msg.ID != opp.ID {
		t.Errorf("broadcast id = %s, want %s", msg.ID, opp.ID)
	}
	if msg.Cycle != "EUR→JPY→USD→EUR" {
		t.Errorf("broadcast cycle = %s", msg.Cycle)
	}
}

func TestWSPushCloseDisconnectsClients(t *testing.T) {
	c, err := NewWSPushConsumer(WSPushConfig{Port: 0}, testLog())
	if err != nil {
		t.Fatalf("NewWSPushConsumer: %v", err)
	}

	port := c.listener.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("ws://127.0.0.1:%d/ws/opportunities", port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("read succeeded after server close")
	}
}
