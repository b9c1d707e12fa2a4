package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// TradeTick is a single trade print from the streaming feed.
type TradeTick struct {
	Symbol    string
	Price     float64
	Volume    int64
	Timestamp time.Time
}

// TickHandler receives trade ticks for a subscribed symbol.
type TickHandler func(TradeTick)

// Ticker streams real-time trades over the Finnhub websocket feed.
type Ticker struct {
	url    string
	logger zerolog.Logger

	conn        *websocket.Conn
	subscribers map[string]TickHandler
	onError     func(error)

	reconnectDelay time.Duration
	closed         bool
	mu             sync.Mutex
}

// NewTicker creates a websocket ticker. url must include the API token query
// parameter.
func NewTicker(url string, logger zerolog.Logger) *Ticker {
	return &Ticker{
		url:            url,
		logger:         logger,
		subscribers:    make(map[string]TickHandler),
		reconnectDelay: 5 * time.Second,
	}
}

// wsMessage is the envelope for both directions of the feed.
type wsMessage struct {
	Type   string        `json:"type"`
	Symbol string        `json:"symbol,omitempty"`
	Data   []wsTradeData `json:"data,omitempty"`
}

type wsTradeData struct {
	Symbol string  `json:"s"`
	Price  float64 `json:"p"`
	Volume int64   `json:"v"`
	TimeMs int64   `json:"t"`
}

// Connect dials the feed and starts the read loop. Already-registered
// subscriptions are replayed on every (re)connect.
func (t *Ticker) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}
	t.closed = false

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dialing ticker feed: %w", err)
	}
	t.conn = conn

	for symbol := range t.subscribers {
		if err := t.send(wsMessage{Type: "subscribe", Symbol: symbol}); err != nil {
			t.logger.Warn().Err(err).Str("symbol", symbol).Msg("Resubscribe failed")
		}
	}

	go t.readLoop()
	t.logger.Debug().Msg("Ticker connected")
	return nil
}

// Disconnect closes the connection and stops reconnecting.
func (t *Ticker) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.conn != nil {
		err := t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}

// Subscribe registers a handler for a symbol's trade ticks.
func (t *Ticker) Subscribe(symbol string, handler TickHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.subscribers[symbol] = handler
	if t.conn != nil {
		return t.send(wsMessage{Type: "subscribe", Symbol: symbol})
	}
	return nil
}

// Unsubscribe removes the handler for a symbol.
func (t *Ticker) Unsubscribe(symbol string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.subscribers, symbol)
	if t.conn != nil {
		return t.send(wsMessage{Type: "unsubscribe", Symbol: symbol})
	}
	return nil
}

// OnError registers an error handler.
func (t *Ticker) OnError(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = handler
}

// send writes a control message. Caller must hold the mutex.
func (t *Ticker) send(msg wsMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *Ticker) readLoop() {
	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn == nil {
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.handleDisconnect(err)
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.logger.Debug().Err(err).Msg("Skipping malformed tick message")
			continue
		}
		if msg.Type != "trade" {
			continue
		}

		for _, trade := range msg.Data {
			t.mu.Lock()
			handler := t.subscribers[trade.Symbol]
			t.mu.Unlock()
			if handler == nil {
				continue
			}
			handler(TradeTick{
				Symbol:    trade.Symbol,
				Price:     trade.Price,
				Volume:    trade.Volume,
				Timestamp: time.UnixMilli(trade.TimeMs),
			})
		}
	}
}

// handleDisconnect tears down the connection and schedules a reconnect unless
// Disconnect was called.
func (t *Ticker) handleDisconnect(err error) {
	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	closed := t.closed
	onError := t.onError
	t.mu.Unlock()

	if closed {
		return
	}

	t.logger.Warn().Err(err).Msg("Ticker disconnected, will reconnect")
	if onError != nil {
		onError(err)
	}

	time.Sleep(t.reconnectDelay)
	if err := t.Connect(context.Background()); err != nil {
		t.handleDisconnect(err)
	}
}
