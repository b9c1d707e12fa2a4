// Package stream distributes real-time trade ticks to multiple consumers.
package stream

import (
	"context"
	"sync"
	"time"

	"virtual-trader/internal/quotes"
)

// TickSource is the upstream feed the hub drains. *quotes.Ticker satisfies it.
type TickSource interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Subscribe(symbol string, handler quotes.TickHandler) error
	Unsubscribe(symbol string) error
}

// HubConfig holds configuration for the tick hub.
type HubConfig struct {
	// BufferSize is the size of the internal tick channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
	}
}

// Hub fans ticks from a single source out to multiple subscribers.
// Sends to slow subscribers are dropped rather than blocking the feed.
type Hub struct {
	config   HubConfig
	source   TickSource
	tickChan chan quotes.TradeTick
	done     chan struct{}

	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	started     bool

	metricsMu      sync.RWMutex
	ticksReceived  uint64
	ticksBroadcast uint64
	ticksDropped   uint64
}

// Subscriber is one channel consumer with metadata.
type Subscriber struct {
	Channel      chan quotes.TradeTick
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a hub draining the given source. A nil source is allowed;
// ticks can then only arrive via Publish.
func NewHub(source TickSource) *Hub {
	return NewHubWithConfig(source, DefaultHubConfig())
}

// NewHubWithConfig creates a hub with custom buffering.
func NewHubWithConfig(source TickSource, config HubConfig) *Hub {
	return &Hub{
		config:      config,
		source:      source,
		subscribers: make(map[string][]*Subscriber),
		tickChan:    make(chan quotes.TradeTick, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start connects the source and begins the distribution loop.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)

	if h.source != nil {
		if err := h.source.Connect(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, symbol)
	}

	if h.source != nil {
		h.source.Disconnect()
	}
}

// Subscribe registers a channel consumer for a symbol's ticks.
func (h *Hub) Subscribe(symbol string) <-chan quotes.TradeTick {
	ch := make(chan quotes.TradeTick, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	h.mu.Unlock()

	if h.source != nil {
		h.source.Subscribe(symbol, h.Publish)
	}

	return ch
}

// Unsubscribe removes a subscriber channel for a symbol. The last
// unsubscribe for a symbol also drops the upstream subscription.
func (h *Hub) Unsubscribe(symbol string, ch <-chan quotes.TradeTick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[symbol]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[symbol] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscribers[symbol]) == 0 {
		delete(h.subscribers, symbol)
		if h.source != nil {
			h.source.Unsubscribe(symbol)
		}
	}
}

// Publish injects a tick into the hub. Non-blocking; the tick is dropped
// when the internal buffer is full.
func (h *Hub) Publish(tick quotes.TradeTick) {
	select {
	case h.tickChan <- tick:
	default:
		h.metricsMu.Lock()
		h.ticksDropped++
		h.metricsMu.Unlock()
	}
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case tick := <-h.tickChan:
			h.metricsMu.Lock()
			h.ticksReceived++
			h.metricsMu.Unlock()

			h.broadcast(tick)
		}
	}
}

// broadcast sends a tick to all subscribers of that symbol without blocking.
func (h *Hub) broadcast(tick quotes.TradeTick) {
	h.mu.RLock()
	subs := h.subscribers[tick.Symbol]
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.Channel <- tick:
			h.metricsMu.Lock()
			h.ticksBroadcast++
			h.metricsMu.Unlock()
		default:
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.ticksDropped++
			h.metricsMu.Unlock()
		}
	}
}

// SubscriberCount returns the number of subscribers for a symbol.
func (h *Hub) SubscriberCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[symbol])
}

// SubscribedSymbols returns all symbols with active subscribers.
func (h *Hub) SubscribedSymbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	symbols := make([]string, 0, len(h.subscribers))
	for symbol := range h.subscribers {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// Metrics contains hub throughput counters.
type Metrics struct {
	TicksReceived  uint64
	TicksBroadcast uint64
	TicksDropped   uint64
	Subscribers    int
}

// GetMetrics returns a snapshot of the hub's counters.
func (h *Hub) GetMetrics() Metrics {
	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()

	h.mu.RLock()
	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	h.mu.RUnlock()

	return Metrics{
		TicksReceived:  h.ticksReceived,
		TicksBroadcast: h.ticksBroadcast,
		TicksDropped:   h.ticksDropped,
		Subscribers:    count,
	}
}
