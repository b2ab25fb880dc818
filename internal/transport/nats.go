package transport

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// natsProvider is the managed pub/sub tier: one core NATS subject per
// room. NATS delivers a connection's own publishes back to its
// subscriptions, so loopback suppression happens above this layer, at
// the channel's sender-id filter.
type natsProvider struct {
	conn    *nats.Conn
	subject string
}

func newNatsProvider(url, roomId string) (*natsProvider, error) {
	conn, err := nats.Connect(url, nats.Name("go-presence"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	return &natsProvider{
		conn:    conn,
		subject: fmt.Sprintf("presence.room.%s", roomId),
	}, nil
}

func (p *natsProvider) Post(data []byte) error {
	return p.conn.Publish(p.subject, data)
}

func (p *natsProvider) Subscribe(handler func(data []byte)) (func(), error) {
	sub, err := p.conn.Subscribe(p.subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", p.subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (p *natsProvider) Kind() Kind {
	return KindNats
}

func (p *natsProvider) Close() error {
	p.conn.Close()
	return nil
}
