package transport

import (
	"log/slog"
	"sync"

	"github.com/pixil98/go-presence/internal/wire"
)

// Channel is a room-scoped message bus over exactly one provider,
// chosen for its lifetime. Posting is fire-and-forget: send failures
// are logged and swallowed because presence sync is best-effort and
// the next scheduled broadcast is the retry.
type Channel struct {
	roomId   string
	localId  string
	provider Provider

	mu     sync.Mutex
	subs   map[int]func(wire.Message)
	nextId int
	unsub  func()
	closed bool
}

func newChannel(roomId, localId string, p Provider) (*Channel, error) {
	c := &Channel{
		roomId:   roomId,
		localId:  localId,
		provider: p,
		subs:     map[int]func(wire.Message){},
	}

	unsub, err := p.Subscribe(c.dispatch)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	c.unsub = unsub

	return c, nil
}

// Post serializes and sends a message. It never blocks on delivery
// and never surfaces transport errors to the caller.
func (c *Channel) Post(m wire.Message) {
	data, err := wire.Encode(c.localId, m)
	if err != nil {
		slog.Warn("encoding presence message", "room", c.roomId, "error", err)
		return
	}

	if err := c.provider.Post(data); err != nil {
		slog.Debug("posting presence message", "room", c.roomId, "kind", c.provider.Kind(), "error", err)
	}
}

// Subscribe registers a handler invoked once per received message in
// provider delivery order. The returned function removes only this
// handler; other subscribers are unaffected.
func (c *Channel) Subscribe(fn func(wire.Message)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextId
	c.nextId++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// dispatch decodes one raw payload and fans it out. Malformed or
// unknown messages and the channel's own echoes are dropped silently.
func (c *Channel) dispatch(data []byte) {
	from, msg, err := wire.Decode(data)
	if err != nil {
		slog.Debug("dropping inbound message", "room", c.roomId, "error", err)
		return
	}
	if from == c.localId {
		return
	}

	c.mu.Lock()
	handlers := make([]func(wire.Message), 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

// Kind reports which provider tier this channel runs on.
func (c *Channel) Kind() Kind {
	return c.provider.Kind()
}

// RoomId returns the identifier namespacing this channel.
func (c *Channel) RoomId() string {
	return c.roomId
}

// Close unregisters every subscriber and releases the provider.
// In-flight sends are not revocable.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.subs = map[int]func(wire.Message){}
	unsub := c.unsub
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	return c.provider.Close()
}
