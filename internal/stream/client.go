// Package stream owns the persistent streaming connections to the
// matching engine's publish/subscribe endpoints: subscription
// handshake, reconnection, visibility-aware suspension and listener
// fan-out. Failures never cross the package boundary as errors; they
// surface as status transitions.
package stream

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kuestmarket/kuest-go/pkg/logger"
)

// reconnectDelay is the fixed wait between a drop and the next attempt.
const reconnectDelay = 1500 * time.Millisecond

// Listener receives every parsed inbound event, in arrival order.
// Array frames are unpacked so each element is delivered on its own.
type Listener func(raw json.RawMessage)

// Conn is the subset of the websocket connection the client uses;
// *websocket.Conn satisfies it, tests substitute scripted fakes.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens a Conn to the endpoint.
type Dialer interface {
	Dial(url string) (Conn, error)
}

type wsDialer struct{}

func (wsDialer) Dial(url string) (Conn, error) {
	d := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := d.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config configures one channel client.
type Config struct {
	URL        string
	Codec      Codec
	Dialer     Dialer     // nil = gorilla dialer
	Visibility Visibility // nil = AlwaysVisible
	Delay      time.Duration
	Log        *logrus.Entry
}

type listenerEntry struct {
	id int64
	fn Listener
}

type statusEntry struct {
	id int64
	fn func(Status)
}

// Client is an explicitly owned, disposable channel client. One Client
// owns one connection at a time; Close disposes it and is idempotent.
type Client struct {
	cfg Config

	mu             sync.Mutex
	status         Status
	conn           Conn
	connecting     bool
	closed         bool
	subscribedOnce bool // live only after first parsed message
	reconnectTimer *time.Timer
	nextID         int64
	listeners      []listenerEntry
	statusSubs     []statusEntry
	watchStop      chan struct{}
}

// New builds a client; Open starts it.
func New(cfg Config) *Client {
	if cfg.Dialer == nil {
		cfg.Dialer = wsDialer{}
	}
	if cfg.Visibility == nil {
		cfg.Visibility = AlwaysVisible{}
	}
	if cfg.Delay == 0 {
		cfg.Delay = reconnectDelay
	}
	if cfg.Log == nil {
		cfg.Log = logger.WithField("component", "stream")
	}
	return &Client{cfg: cfg, status: StatusOffline}
}

// Open starts the connection lifecycle. With no topics or no endpoint
// the client goes straight to offline and never dials.
func (c *Client) Open() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cfg.URL == "" || c.cfg.Codec == nil || c.cfg.Codec.Empty() {
		c.setStatusLocked(StatusOffline)
		c.mu.Unlock()
		return
	}
	if c.watchStop == nil && c.cfg.Visibility.Changes() != nil {
		c.watchStop = make(chan struct{})
		go c.watchVisibility(c.watchStop)
	}
	c.mu.Unlock()

	c.maybeConnect()
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe registers a listener and returns its removal func. Both
// are safe to call during message delivery.
func (c *Client) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})
	return func() { c.removeListener(id) }
}

// OnStatus registers a status-transition observer.
func (c *Client) OnStatus(fn func(Status)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.statusSubs = append(c.statusSubs, statusEntry{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.statusSubs {
			if e.id == id {
				c.statusSubs = append(c.statusSubs[:i], c.statusSubs[i+1:]...)
				return
			}
		}
	}
}

// Close tears the client down: unsubscribe if the socket is open, drop
// listeners, cancel the pending reconnect. Idempotent; no reconnect
// can fire afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.watchStop != nil {
		close(c.watchStop)
		c.watchStop = nil
	}
	conn := c.conn
	c.conn = nil
	c.listeners = nil
	c.statusSubs = nil
	c.status = StatusOffline
	c.mu.Unlock()

	if conn != nil {
		if c.cfg.Codec != nil {
			_ = conn.WriteJSON(c.cfg.Codec.UnsubscribeMessage())
		}
		_ = conn.Close()
	}
}

func (c *Client) removeListener(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.listeners {
		if e.id == id {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// maybeConnect dials iff no socket is open or connecting, the client
// is not disposed and the surface is visible.
func (c *Client) maybeConnect() {
	c.mu.Lock()
	if c.closed || c.conn != nil || c.connecting || !c.cfg.Visibility.Visible() {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.mu.Unlock()

	go c.dial()
}

func (c *Client) dial() {
	conn, err := c.cfg.Dialer.Dial(c.cfg.URL)

	c.mu.Lock()
	c.connecting = false
	if c.closed {
		c.mu.Unlock()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.cfg.Log.WithError(err).Warn("dial failed")
		c.setStatusLocked(StatusOffline)
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.subscribedOnce = false
	c.setStatusLocked(StatusConnecting)
	sub := c.cfg.Codec.SubscribeMessage()
	c.mu.Unlock()

	// exactly one subscribe per successful connection
	if err := conn.WriteJSON(sub); err != nil {
		c.cfg.Log.WithError(err).Warn("subscribe write failed")
		c.dropConn(conn)
		return
	}

	go c.readLoop(conn)
}

func (c *Client) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.dropConn(conn)
			return
		}

		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || string(trimmed) == "PONG" {
			continue
		}

		// parse defensively: a bad frame is dropped, nothing more
		var parsed interface{}
		if err := json.Unmarshal(trimmed, &parsed); err != nil {
			c.cfg.Log.WithError(err).Debug("dropping unparseable frame")
			continue
		}

		c.markLive(conn)

		if trimmed[0] == '[' {
			var elems []json.RawMessage
			if err := json.Unmarshal(trimmed, &elems); err == nil {
				for _, e := range elems {
					c.dispatch(e)
				}
				continue
			}
		}
		c.dispatch(json.RawMessage(trimmed))
	}
}

func (c *Client) markLive(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn || c.subscribedOnce {
		return
	}
	c.subscribedOnce = true
	c.setStatusLocked(StatusLive)
}

// dispatch fans one event out to every listener in registration order.
// The slice is snapshotted so listeners may (un)subscribe mid-dispatch.
func (c *Client) dispatch(raw json.RawMessage) {
	c.mu.Lock()
	snapshot := make([]listenerEntry, len(c.listeners))
	copy(snapshot, c.listeners)
	c.mu.Unlock()

	for _, e := range snapshot {
		e.fn(raw)
	}
}

// dropConn handles a read or write failure on conn. Stale connections
// (already replaced) are ignored.
func (c *Client) dropConn(conn Conn) {
	_ = conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn || c.closed {
		return
	}
	c.conn = nil
	c.setStatusLocked(StatusOffline)
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the fixed-delay reconnect timer. If the
// surface is hidden when the timer fires, the attempt is skipped; the
// visibility watcher retries the moment it returns.
func (c *Client) scheduleReconnectLocked() {
	if c.reconnectTimer != nil || c.closed {
		return
	}
	c.reconnectTimer = time.AfterFunc(c.cfg.Delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		c.maybeConnect()
	})
}

func (c *Client) watchVisibility(stop chan struct{}) {
	changes := c.cfg.Visibility.Changes()
	for {
		select {
		case <-stop:
			return
		case visible, ok := <-changes:
			if !ok {
				return
			}
			if visible {
				c.maybeConnect()
			}
		}
	}
}

// setStatusLocked records a transition and notifies observers. Called
// with c.mu held; observers run on a goroutine to keep delivery out of
// the lock.
func (c *Client) setStatusLocked(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	if len(c.statusSubs) == 0 {
		return
	}
	snapshot := make([]statusEntry, len(c.statusSubs))
	copy(snapshot, c.statusSubs)
	go func() {
		for _, e := range snapshot {
			e.fn(s)
		}
	}()
}
