package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tokenwise/internal/logger"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for the subscription confirmation.
	SubscribeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// WSClient implements LogsSubscriber using gorilla/websocket.
// Each Subscribe call owns one connection.
type WSClient struct {
	endpoint  string
	config    WSClientConfig
	log       *logger.Logger
	requestID atomic.Uint64
}

var _ LogsSubscriber = (*WSClient)(nil)

// NewWSClient creates a client for endpoint. A nil config uses DefaultWSConfig.
func NewWSClient(endpoint string, config *WSClientConfig, log *logger.Logger) *WSClient {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WSClient{
		endpoint: endpoint,
		config:   cfg,
		log:      log.Named("ws"),
	}
}

// Subscribe blocks until ctx is done. Connection failures are retried with
// exponential backoff; the delay resets once a subscription is confirmed.
func (c *WSClient) Subscribe(ctx context.Context, filter LogsFilter, handle func(LogNotification)) error {
	delay := c.config.ReconnectDelay

	for {
		confirmed, err := c.session(ctx, filter, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if confirmed {
			delay = c.config.ReconnectDelay
		}
		c.log.Warnw("logs subscription dropped, reconnecting", "error", err, "delay", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// session runs one connection: dial, subscribe, then read until failure.
func (c *WSClient) session(ctx context.Context, filter LogsFilter, handle func(LogNotification)) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}

	var writeMu sync.Mutex
	done := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(done)
		conn.Close()
		wg.Wait()
	}()

	// Unblock ReadMessage when ctx is cancelled.
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			writeMu.Lock()
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			writeMu.Unlock()
			conn.Close()
		case <-done:
		}
	}()

	wg.Add(1)
	go c.pingLoop(conn, &writeMu, done, &wg)

	reqID := c.requestID.Add(1)
	writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err = conn.WriteJSON(newLogsSubscribeRequest(reqID, filter))
	writeMu.Unlock()
	if err != nil {
		return false, fmt.Errorf("write subscribe: %w", err)
	}

	subID, err := c.awaitConfirmation(conn, reqID)
	if err != nil {
		return false, err
	}
	c.log.Infow("logs subscription active", "subscription", subID, "mentions", filter.Mentions)

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}

		var notif wsNotification
		if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "logsNotification" || notif.Params == nil {
			continue
		}
		if notif.Params.Subscription != subID {
			continue
		}

		value := notif.Params.Result.Value
		n := LogNotification{
			Signature: value.Signature,
			Logs:      value.Logs,
			Err:       value.Err,
		}
		if notif.Params.Result.Context != nil {
			n.Slot = notif.Params.Result.Context.Slot
		}
		handle(n)
	}
}

// awaitConfirmation reads until the response to reqID arrives.
func (c *WSClient) awaitConfirmation(conn *websocket.Conn, reqID uint64) (int64, error) {
	conn.SetReadDeadline(time.Now().Add(c.config.SubscribeTimeout))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return 0, fmt.Errorf("await subscription: %w", err)
		}

		var resp wsSubscribeResponse
		if err := json.Unmarshal(message, &resp); err != nil || resp.ID != reqID {
			continue
		}
		if resp.Error != nil {
			return 0, &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		if resp.Result == nil {
			return 0, errors.New("subscription response without id")
		}
		return *resp.Result, nil
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClient) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			// A dead connection surfaces as a read error.
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
			writeMu.Unlock()
		}
	}
}

func newLogsSubscribeRequest(id uint64, filter LogsFilter) wsRequest {
	var mentionsFilter interface{} = "all"
	if len(filter.Mentions) > 0 {
		mentionsFilter = map[string]interface{}{"mentions": filter.Mentions}
	}

	return wsRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentionsFilter,
			map[string]string{"commitment": "confirmed"},
		},
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      uint64    `json:"id"`
	Result  *int64    `json:"result"` // subscription ID
	Error   *RPCError `json:"error"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
