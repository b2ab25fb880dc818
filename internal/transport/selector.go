package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// NatsSource yields a NATS client URL once the server behind it is
// reachable. An embedded server satisfies this; a static URL is
// wrapped by StaticNats.
type NatsSource interface {
	WaitReady(ctx context.Context) error
	ClientURL() string
}

// StaticNats is a NatsSource for an externally managed server that is
// assumed reachable.
type StaticNats string

func (s StaticNats) WaitReady(context.Context) error { return nil }
func (s StaticNats) ClientURL() string               { return string(s) }

// Selector probes transport capabilities in fixed priority order and
// opens channels on the first tier that works: the managed pub/sub
// service, then the in-process broker, then the polled shared store.
// The probe result is cached; every channel this process opens uses
// the same tier.
type Selector struct {
	localId      string
	nats         NatsSource
	registry     *Registry
	storeDir     string
	pollInterval time.Duration

	mu     sync.Mutex
	probed bool
	kind   Kind
}

type SelectorOpt func(*Selector)

// WithNats enables the managed pub/sub tier.
func WithNats(src NatsSource) SelectorOpt {
	return func(s *Selector) {
		s.nats = src
	}
}

// WithRegistry enables the same-device broadcast tier.
func WithRegistry(r *Registry) SelectorOpt {
	return func(s *Selector) {
		s.registry = r
	}
}

// WithStore enables the polling fallback tier on a shared directory.
func WithStore(dir string, pollInterval time.Duration) SelectorOpt {
	return func(s *Selector) {
		s.storeDir = dir
		s.pollInterval = pollInterval
	}
}

func NewSelector(localId string, opts ...SelectorOpt) *Selector {
	s := &Selector{localId: localId}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Select opens a channel for the room on the probed tier. Failure of
// a preferred tier is not surfaced; it falls through to the next.
func (s *Selector) Select(ctx context.Context, roomId string) (*Channel, error) {
	provider, err := s.buildProvider(ctx, roomId)
	if err != nil {
		return nil, err
	}

	ch, err := newChannel(roomId, s.localId, provider)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "presence channel open", "room", roomId, "transport", ch.Kind())
	return ch, nil
}

// Kind reports the cached probe result, or empty before any probe.
func (s *Selector) Kind() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

func (s *Selector) buildProvider(ctx context.Context, roomId string) (Provider, error) {
	s.mu.Lock()
	probed, kind := s.probed, s.kind
	s.mu.Unlock()

	if probed {
		return s.buildKind(ctx, kind, roomId)
	}

	if s.nats != nil {
		p, err := s.tryNats(ctx, roomId)
		if err == nil {
			s.cache(KindNats)
			return p, nil
		}
		slog.WarnContext(ctx, "pub/sub transport unavailable, falling back", "error", err)
	}

	if s.registry != nil {
		s.cache(KindLocal)
		return newLocalProvider(s.registry.broker(roomId)), nil
	}

	if s.storeDir != "" {
		p, err := newStoreProvider(s.storeDir, roomId, s.localId, s.pollInterval)
		if err != nil {
			return nil, err
		}
		s.cache(KindStore)
		return p, nil
	}

	return nil, ErrNoTransport
}

// buildKind reopens a provider on the already chosen tier. The tier
// is never reselected mid-session.
func (s *Selector) buildKind(ctx context.Context, kind Kind, roomId string) (Provider, error) {
	switch kind {
	case KindNats:
		return s.tryNats(ctx, roomId)
	case KindLocal:
		return newLocalProvider(s.registry.broker(roomId)), nil
	case KindStore:
		return newStoreProvider(s.storeDir, roomId, s.localId, s.pollInterval)
	}
	return nil, ErrNoTransport
}

func (s *Selector) tryNats(ctx context.Context, roomId string) (Provider, error) {
	if err := s.nats.WaitReady(ctx); err != nil {
		return nil, err
	}
	return newNatsProvider(s.nats.ClientURL(), roomId)
}

func (s *Selector) cache(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probed = true
	s.kind = kind
}
