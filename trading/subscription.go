package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// LogNotification is the transient, parse-once result of a logsNotification
// frame (spec.md §3), produced by the Log Listener (D) and consumed once by
// the Classifier (E).
type LogNotification struct {
	Slot      uint64
	Signature string
	Err       interface{}
	LogLines  []string
}

// SubscriptionManager is Component C: owns the write half of the streaming
// RPC connection and Component D's read loop (kept in one type because both
// share the same connection and reconnect lifecycle — mirrors the teacher's
// WSClient, generalized from per-mention subscription channels to the
// spec's single shared notification stream with no per-frame correlation).
type SubscriptionManager struct {
	url string

	writeMu sync.Mutex // protects conn: the one shared mutable resource (spec.md §5)
	conn    *websocket.Conn

	reconnectDelay time.Duration
	rpsLimiter     *rate.Limiter

	notifications chan LogNotification
	closeChan     chan struct{}
	closeOnce     sync.Once

	leaders   map[string]bool
	leadersMu sync.RWMutex
}

func NewSubscriptionManager(url string) *SubscriptionManager {
	return &SubscriptionManager{
		url:            url,
		reconnectDelay: 5 * time.Second,
		rpsLimiter:     rate.NewLimiter(rate.Limit(20), 20),
		notifications:  make(chan LogNotification, 50000),
		closeChan:      make(chan struct{}),
		leaders:        make(map[string]bool),
	}
}

// Notifications exposes the single stream of decoded logsNotification
// frames the Log Listener (D) produces.
func (sm *SubscriptionManager) Notifications() <-chan LogNotification {
	return sm.notifications
}

// Reconnect dials the RPC and starts the read loop if the write half is
// currently absent (spec.md §4.C reconnect()).
func (sm *SubscriptionManager) Reconnect(ctx context.Context) error {
	sm.writeMu.Lock()
	if sm.conn != nil {
		sm.writeMu.Unlock()
		return nil
	}
	sm.writeMu.Unlock()

	if err := sm.rpsLimiter.Wait(ctx); err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, sm.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	sm.writeMu.Lock()
	sm.conn = conn
	sm.writeMu.Unlock()

	go sm.readLoop(conn)
	return nil
}

// SubscribeAll emits a logsSubscribe frame per leader with mentions=[leader]
// and commitment "confirmed" (spec.md §4.C subscribe_all).
func (sm *SubscriptionManager) SubscribeAll(ctx context.Context, leaders []string) error {
	sm.leadersMu.Lock()
	for _, l := range leaders {
		sm.leaders[l] = true
	}
	sm.leadersMu.Unlock()

	for _, leader := range leaders {
		if err := sm.rpsLimiter.Wait(ctx); err != nil {
			return err
		}
		if err := sm.writeJSON(subscribeFrame(leader)); err != nil {
			return fmt.Errorf("subscribe %s: %w", leader, err)
		}
	}
	return nil
}

func subscribeFrame(leader string) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "logsSubscribe",
		"params": []interface{}{
			map[string]interface{}{"mentions": []string{leader}},
			map[string]string{"commitment": "confirmed"},
		},
	}
}

// Resubscribe re-issues subscriptions for every currently-known leader, up
// to 3 attempts with a 5s delay, reconnecting on I/O failure in between
// (spec.md §4.C retry policy). The node may retain prior subscriptions;
// downstream idempotency on signature tolerates the resulting duplicates.
func (sm *SubscriptionManager) Resubscribe(ctx context.Context, allLeaders func(context.Context) ([]string, error)) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		leaders, err := allLeaders(ctx)
		if err != nil {
			lastErr = err
		} else if err := sm.SubscribeAll(ctx, leaders); err != nil {
			lastErr = err
			if reconErr := sm.Reconnect(ctx); reconErr != nil {
				lastErr = reconErr
			}
		} else {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
	return fmt.Errorf("resubscribe failed after 3 attempts: %w", lastErr)
}

func (sm *SubscriptionManager) writeJSON(v interface{}) error {
	sm.writeMu.Lock()
	defer sm.writeMu.Unlock()
	if sm.conn == nil {
		return fmt.Errorf("no active connection")
	}
	return sm.conn.WriteJSON(v)
}

// readLoop is the Log Listener (D): frame disposition per spec.md §4.D.
func (sm *SubscriptionManager) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-sm.closeChan:
			return
		default:
		}

		msgType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("subscription read error: %v", err)
			sm.writeMu.Lock()
			if sm.conn == conn {
				sm.conn = nil
			}
			sm.writeMu.Unlock()
			return
		}

		switch msgType {
		case websocket.PingMessage:
			sm.writeMu.Lock()
			_ = conn.WriteMessage(websocket.PongMessage, nil)
			sm.writeMu.Unlock()
		case websocket.CloseMessage:
			log.Printf("subscription connection closed by peer")
			return
		case websocket.TextMessage:
			sm.routeMessage(message)
		}
	}
}

// routeMessage dispatches logsNotification frames fire-and-forget onto the
// notifications channel; any other method (subscription ack, etc.) is
// dropped silently, per spec.md §4.D.
func (sm *SubscriptionManager) routeMessage(message []byte) {
	var frame struct {
		Method string `json:"method"`
		Params struct {
			Result struct {
				Context struct {
					Slot uint64 `json:"slot"`
				} `json:"context"`
				Value struct {
					Signature string      `json:"signature"`
					Err       interface{} `json:"err"`
					Logs      []string    `json:"logs"`
				} `json:"value"`
			} `json:"result"`
		} `json:"params"`
	}
	if err := json.Unmarshal(message, &frame); err != nil {
		return
	}
	if frame.Method != "logsNotification" {
		return
	}

	notification := LogNotification{
		Slot:      frame.Params.Result.Context.Slot,
		Signature: frame.Params.Result.Value.Signature,
		Err:       frame.Params.Result.Value.Err,
		LogLines:  frame.Params.Result.Value.Logs,
	}

	select {
	case sm.notifications <- notification:
	default:
		log.Printf("notification channel full, dropping signature %s", notification.Signature)
	}
}

// Close tears down the connection and stops the read loop.
func (sm *SubscriptionManager) Close() error {
	sm.closeOnce.Do(func() { close(sm.closeChan) })

	sm.writeMu.Lock()
	defer sm.writeMu.Unlock()
	if sm.conn != nil {
		err := sm.conn.Close()
		sm.conn = nil
		return err
	}
	return nil
}

// IsConnected reports whether the write half is currently present.
func (sm *SubscriptionManager) IsConnected() bool {
	sm.writeMu.Lock()
	defer sm.writeMu.Unlock()
	return sm.conn != nil
}
