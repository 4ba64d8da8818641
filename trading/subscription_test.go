package trading

import (
	"context"
	"testing"
	"time"
)

func TestSubscribeFrameShape(t *testing.T) {
	frame := subscribeFrame("leaderABC")
	if frame["method"] != "logsSubscribe" {
		t.Errorf("expected method logsSubscribe, got %v", frame["method"])
	}
	params, ok := frame["params"].([]interface{})
	if !ok || len(params) != 2 {
		t.Fatalf("expected 2-element params, got %v", frame["params"])
	}
	mentions, ok := params[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected mentions map, got %T", params[0])
	}
	leaders, ok := mentions["mentions"].([]string)
	if !ok || len(leaders) != 1 || leaders[0] != "leaderABC" {
		t.Errorf("expected mentions=[leaderABC], got %v", mentions["mentions"])
	}
}

func TestIsConnectedFalseBeforeDial(t *testing.T) {
	sm := NewSubscriptionManager("wss://example.invalid")
	if sm.IsConnected() {
		t.Error("expected IsConnected false before any dial")
	}
}

func TestWriteJSONFailsWithoutConnection(t *testing.T) {
	sm := NewSubscriptionManager("wss://example.invalid")
	if err := sm.writeJSON(subscribeFrame("leaderABC")); err == nil {
		t.Error("expected error writing JSON with no active connection")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	sm := NewSubscriptionManager("wss://example.invalid")
	if err := sm.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := sm.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestRouteMessageDeliversLogsNotification(t *testing.T) {
	sm := NewSubscriptionManager("wss://example.invalid")
	frame := []byte(`{
		"jsonrpc":"2.0",
		"method":"logsNotification",
		"params":{"result":{"context":{"slot":123},"value":{"signature":"sig1","err":null,"logs":["a","b"]}}}
	}`)

	sm.routeMessage(frame)

	select {
	case n := <-sm.Notifications():
		if n.Slot != 123 || n.Signature != "sig1" || len(n.LogLines) != 2 {
			t.Errorf("unexpected notification: %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("expected notification to be routed")
	}
}

func TestRouteMessageIgnoresNonNotificationMethod(t *testing.T) {
	sm := NewSubscriptionManager("wss://example.invalid")
	frame := []byte(`{"jsonrpc":"2.0","id":1,"result":"ok"}`)

	sm.routeMessage(frame)

	select {
	case n := <-sm.Notifications():
		t.Fatalf("expected no notification, got %+v", n)
	default:
	}
}

func TestRouteMessageIgnoresMalformedJSON(t *testing.T) {
	sm := NewSubscriptionManager("wss://example.invalid")
	sm.routeMessage([]byte("not json"))

	select {
	case n := <-sm.Notifications():
		t.Fatalf("expected no notification for malformed frame, got %+v", n)
	default:
	}
}

func TestResubscribeFailsWhenListingLeadersFails(t *testing.T) {
	sm := NewSubscriptionManager("wss://example.invalid")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	calls := 0
	failingLister := func(context.Context) ([]string, error) {
		calls++
		return nil, context.DeadlineExceeded
	}

	err := sm.Resubscribe(ctx, failingLister)
	if err == nil {
		t.Fatal("expected Resubscribe to fail when the leader lister always errors")
	}
}
