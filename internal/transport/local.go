package transport

import (
	"fmt"
	"sync"
)

// Registry fans messages out between channels living in the same
// process. It is owned by the application root and passed into the
// selector by reference; there is no package-level instance.
type Registry struct {
	mu      sync.Mutex
	brokers map[string]*broker
}

func NewRegistry() *Registry {
	return &Registry{brokers: map[string]*broker{}}
}

func (r *Registry) broker(roomId string) *broker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.brokers[roomId]
	if !ok {
		b = &broker{members: map[*localProvider]bool{}}
		r.brokers[roomId] = b
	}
	return b
}

// broker is one room's fan-out set. Delivery skips the posting
// provider, so the local tier suppresses loopback natively.
type broker struct {
	mu      sync.RWMutex
	members map[*localProvider]bool
}

func (b *broker) join(p *localProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members[p] = true
}

func (b *broker) part(p *localProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.members, p)
}

func (b *broker) post(from *localProvider, data []byte) {
	b.mu.RLock()
	targets := make([]*localProvider, 0, len(b.members))
	for m := range b.members {
		if m != from {
			targets = append(targets, m)
		}
	}
	b.mu.RUnlock()

	for _, m := range targets {
		m.deliver(data)
	}
}

// localProvider is the same-device broadcast tier. Each provider runs
// one delivery goroutine so posting never blocks the caller and each
// subscriber sees messages in post order.
type localProvider struct {
	brk *broker

	mu       sync.Mutex
	handlers map[int]func([]byte)
	nextId   int

	inbox  chan []byte
	done   chan struct{}
	closed bool
}

func newLocalProvider(brk *broker) *localProvider {
	p := &localProvider{
		brk:      brk,
		handlers: map[int]func([]byte){},
		inbox:    make(chan []byte, 256),
		done:     make(chan struct{}),
	}
	brk.join(p)
	go p.pump()
	return p
}

func (p *localProvider) pump() {
	for {
		select {
		case <-p.done:
			return
		case data := <-p.inbox:
			p.mu.Lock()
			handlers := make([]func([]byte), 0, len(p.handlers))
			for _, h := range p.handlers {
				handlers = append(handlers, h)
			}
			p.mu.Unlock()

			for _, h := range handlers {
				h(data)
			}
		}
	}
}

func (p *localProvider) deliver(data []byte) {
	select {
	case p.inbox <- data:
	case <-p.done:
	default:
		// Inbox full: presence is best-effort, drop rather than
		// block the poster.
	}
}

func (p *localProvider) Post(data []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("local provider closed")
	}
	p.brk.post(p, data)
	return nil
}

func (p *localProvider) Subscribe(handler func([]byte)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("local provider closed")
	}
	id := p.nextId
	p.nextId++
	p.handlers[id] = handler

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}, nil
}

func (p *localProvider) Kind() Kind {
	return KindLocal
}

func (p *localProvider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.handlers = map[int]func([]byte){}
	p.mu.Unlock()

	p.brk.part(p)
	close(p.done)
	return nil
}
