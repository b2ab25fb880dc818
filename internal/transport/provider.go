// Package transport moves serialized presence messages between peers.
// A Channel wraps exactly one Provider, chosen once per process by
// capability probing: a NATS connection when one is configured, an
// in-process broker for same-device peers, or a polled shared
// directory as the last resort.
package transport

import "errors"

// Kind identifies which provider tier a channel ended up on. It is
// reported read-only to diagnostics.
type Kind string

const (
	KindNats  Kind = "nats"
	KindLocal Kind = "local"
	KindStore Kind = "store"
)

var ErrNoTransport = errors.New("no transport provider available")

// Provider is the uniform send/receive primitive over one concrete
// channel technology. Post is at-most-once and never blocks on
// delivery. Handlers registered through Subscribe are invoked once
// per received message in the order the underlying technology
// delivers them.
type Provider interface {
	Post(data []byte) error
	Subscribe(handler func(data []byte)) (func(), error)
	Kind() Kind
	Close() error
}
