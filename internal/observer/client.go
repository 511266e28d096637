// Package observer implements the client side of the real-time channel: a
// WebSocket subscriber with an explicit reconnection state machine and a
// periodic full-refresh fallback.
//
// Events are hints. On every received event the client fires the refresh
// callback so the consumer refetches an authoritative snapshot; the periodic
// timer does the same regardless of connection state, which makes missed or
// coalesced events harmless.
package observer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/pkg/logger"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

type Config struct {
	URL             string
	BaseDelay       time.Duration // backoff unit; delay = BaseDelay * attempt
	MaxAttempts     int           // consecutive failures before giving up
	RefreshInterval time.Duration // fallback poll interval
	Dialer          *websocket.Dialer
}

func (c *Config) withDefaults() {
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 30 * time.Second
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
}

type Client struct {
	cfg       Config
	onEvent   func(domain.Event)
	onRefresh func()

	mu       sync.Mutex
	state    State
	attempts int
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New(cfg Config, onEvent func(domain.Event), onRefresh func()) *Client {
	cfg.withDefaults()
	if onEvent == nil {
		onEvent = func(domain.Event) {}
	}
	if onRefresh == nil {
		onRefresh = func() {}
	}
	return &Client{cfg: cfg, onEvent: onEvent, onRefresh: onRefresh, state: Disconnected}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins the connect cycle and the periodic refresh timer. The timer
// runs until Stop regardless of connection state.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.attempts = 0
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(2)
	go c.run()
	go c.refreshLoop()
}

// Stop tears the client down and waits for its goroutines.
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.running = false
	c.state = Disconnected
	c.mu.Unlock()
}

// Restart re-enters the connect cycle after the attempt cap was exhausted.
// It is the external trigger of the state machine; a no-op unless the client
// is running and sitting in Disconnected.
func (c *Client) Restart() {
	c.mu.Lock()
	if !c.running || c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	c.attempts = 0
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
}

// backoff computes the delay before reconnect attempt n.
func (c *Client) backoff(attempt int) time.Duration {
	return c.cfg.BaseDelay * time.Duration(attempt)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) run() {
	defer c.wg.Done()

	for {
		c.setState(Connecting)

		ws, resp, err := c.cfg.Dialer.DialContext(c.ctx, c.cfg.URL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if !c.scheduleRetry() {
				return
			}
			continue
		}

		c.mu.Lock()
		c.state = Connected
		c.attempts = 0
		c.mu.Unlock()

		c.readLoop(ws)

		if c.ctx.Err() != nil {
			c.setState(Disconnected)
			return
		}
		if !c.scheduleRetry() {
			return
		}
	}
}

// scheduleRetry waits out the backoff for the next attempt. False means the
// cap is exhausted (or the client is stopping) and the cycle ends in
// Disconnected.
func (c *Client) scheduleRetry() bool {
	c.mu.Lock()
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	if attempt > c.cfg.MaxAttempts {
		logger.Warn("observer gave up reconnecting", "attempts", attempt-1)
		c.setState(Disconnected)
		return false
	}

	c.setState(Reconnecting)
	logger.Info("observer reconnecting", "attempt", attempt, "max", c.cfg.MaxAttempts)

	select {
	case <-c.ctx.Done():
		c.setState(Disconnected)
		return false
	case <-time.After(c.backoff(attempt)):
		return true
	}
}

func (c *Client) readLoop(ws *websocket.Conn) {
	done := make(chan struct{})
	go func() {
		select {
		case <-c.ctx.Done():
			ws.Close()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		ws.Close()
	}()

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var evt domain.Event
		if err := json.Unmarshal(payload, &evt); err != nil {
			logger.Warn("observer received malformed event", "error", err)
			continue
		}

		c.onEvent(evt)
		// Push triggers pull: the payload is a hint, the snapshot is truth.
		c.onRefresh()
	}
}

func (c *Client) refreshLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.onRefresh()
		}
	}
}
