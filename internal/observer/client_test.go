package observer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evacdesk/rollcall/internal/domain"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer is a minimal broadcast endpoint: every connection is parked in a
// channel so the test can push frames or kill it.
type wsServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
	dials int64
}

func newWSServer(t *testing.T) *wsServer {
	s := &wsServer{conns: make(chan *websocket.Conn, 8)}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.dials, 1)
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- ws
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case ws := <-s.conns:
		return ws
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func waitForDials(t *testing.T, dials *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for dials.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d dials, saw %d", want, dials.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for c.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state never reached %s, stuck at %s", want, c.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBackoffGrowsLinearly(t *testing.T) {
	c := New(Config{BaseDelay: time.Second}, nil, nil)

	for attempt := 1; attempt <= 5; attempt++ {
		want := time.Duration(attempt) * time.Second
		if got := c.backoff(attempt); got != want {
			t.Errorf("attempt %d: expected %s, got %s", attempt, want, got)
		}
	}
}

func TestConnectAndReceive(t *testing.T) {
	server := newWSServer(t)

	events := make(chan domain.Event, 1)
	refreshes := make(chan struct{}, 8)
	c := New(Config{
		URL:             server.url(),
		BaseDelay:       10 * time.Millisecond,
		RefreshInterval: time.Hour, // keep the ticker out of this test
	},
		func(evt domain.Event) { events <- evt },
		func() { refreshes <- struct{}{} },
	)

	c.Start(context.Background())
	defer c.Stop()

	ws := server.accept(t)
	defer ws.Close()
	waitForState(t, c, Connected)

	if err := ws.WriteJSON(domain.StaffCheckinEvent("ADAC")); err != nil {
		t.Fatalf("server write failed: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != domain.EventStaffCheckin {
			t.Errorf("expected staff_checkin, got %s", evt.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never arrived")
	}

	// Push triggers pull.
	select {
	case <-refreshes:
	case <-time.After(2 * time.Second):
		t.Fatal("event did not trigger a refresh")
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	server := newWSServer(t)

	c := New(Config{
		URL:             server.url(),
		BaseDelay:       10 * time.Millisecond,
		MaxAttempts:     5,
		RefreshInterval: time.Hour,
	}, nil, nil)

	c.Start(context.Background())
	defer c.Stop()

	first := server.accept(t)
	waitForState(t, c, Connected)

	first.Close()

	second := server.accept(t)
	defer second.Close()
	waitForState(t, c, Connected)

	if n := atomic.LoadInt64(&server.dials); n < 2 {
		t.Errorf("expected at least 2 dials, got %d", n)
	}
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	// A server that refuses the upgrade makes every dial fail.
	var dials atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Config{
		URL:             "ws" + strings.TrimPrefix(srv.URL, "http"),
		BaseDelay:       time.Millisecond,
		MaxAttempts:     3,
		RefreshInterval: time.Hour,
	}, nil, nil)

	c.Start(context.Background())
	defer c.Stop()

	// The client starts in Disconnected, so wait for the first dial before
	// treating Disconnected as the terminal state.
	waitForDials(t, &dials, 1)
	waitForState(t, c, Disconnected)

	// Initial dial plus MaxAttempts retries, then it stays down.
	if n := dials.Load(); n != 4 {
		t.Errorf("expected 4 dials, got %d", n)
	}
}

func TestRestartAfterGivingUp(t *testing.T) {
	var allow atomic.Bool
	var dials atomic.Int64
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		if !allow.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- ws
	}))
	defer srv.Close()

	c := New(Config{
		URL:             "ws" + strings.TrimPrefix(srv.URL, "http"),
		BaseDelay:       time.Millisecond,
		MaxAttempts:     2,
		RefreshInterval: time.Hour,
	}, nil, nil)

	c.Start(context.Background())
	defer c.Stop()

	waitForDials(t, &dials, 1)
	waitForState(t, c, Disconnected)

	// The cap is a hard stop; only an external Restart re-enters the cycle.
	allow.Store(true)
	c.Restart()
	waitForState(t, c, Connected)

	select {
	case ws := <-conns:
		ws.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("restart never produced a connection")
	}
}

func TestRestartIsNoopWhileConnected(t *testing.T) {
	server := newWSServer(t)

	c := New(Config{
		URL:             server.url(),
		BaseDelay:       10 * time.Millisecond,
		RefreshInterval: time.Hour,
	}, nil, nil)

	c.Start(context.Background())
	defer c.Stop()

	ws := server.accept(t)
	defer ws.Close()
	waitForState(t, c, Connected)

	c.Restart()
	time.Sleep(50 * time.Millisecond)

	if n := atomic.LoadInt64(&server.dials); n != 1 {
		t.Errorf("Restart while connected must not redial, got %d dials", n)
	}
}

func TestPeriodicRefreshIndependentOfConnection(t *testing.T) {
	var refreshes atomic.Int64
	c := New(Config{
		URL:             "ws://127.0.0.1:1", // nothing listens here
		BaseDelay:       time.Millisecond,
		MaxAttempts:     1,
		RefreshInterval: 20 * time.Millisecond,
	}, nil, func() { refreshes.Add(1) })

	c.Start(context.Background())
	defer c.Stop()

	waitForState(t, c, Disconnected)

	deadline := time.Now().Add(2 * time.Second)
	for refreshes.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("refresh ticker stalled at %d ticks while disconnected", refreshes.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopFromAnyState(t *testing.T) {
	server := newWSServer(t)

	c := New(Config{
		URL:             server.url(),
		BaseDelay:       10 * time.Millisecond,
		RefreshInterval: time.Hour,
	}, nil, nil)

	c.Start(context.Background())
	ws := server.accept(t)
	defer ws.Close()
	waitForState(t, c, Connected)

	c.Stop()
	if c.State() != Disconnected {
		t.Errorf("expected Disconnected after Stop, got %s", c.State())
	}

	// Stop again is safe.
	c.Stop()
}

func TestStateStrings(t *testing.T) {
	tests := map[State]string{
		Disconnected: "disconnected",
		Connecting:   "connecting",
		Connected:    "connected",
		Reconnecting: "reconnecting",
		State(99):    "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
