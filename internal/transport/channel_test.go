package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-presence/internal/wire"
	"github.com/pixil98/go-testutil"
)

// recorder collects messages a subscriber saw, safely across the
// delivery goroutine.
type recorder struct {
	mu   sync.Mutex
	msgs []wire.Message
}

func (r *recorder) handler(m wire.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) last() wire.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return nil
	}
	return r.msgs[len(r.msgs)-1]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func openLocalPair(t *testing.T, reg *Registry, room string) (*Channel, *Channel) {
	t.Helper()
	ctx := context.Background()

	selA := NewSelector("peer-a", WithRegistry(reg))
	chA, err := selA.Select(ctx, room)
	if err != nil {
		t.Fatalf("opening channel a: %v", err)
	}
	t.Cleanup(func() { _ = chA.Close() })

	selB := NewSelector("peer-b", WithRegistry(reg))
	chB, err := selB.Select(ctx, room)
	if err != nil {
		t.Fatalf("opening channel b: %v", err)
	}
	t.Cleanup(func() { _ = chB.Close() })

	return chA, chB
}

func TestChannelDelivery(t *testing.T) {
	chA, chB := openLocalPair(t, NewRegistry(), "room-1")

	recB := &recorder{}
	chB.Subscribe(recB.handler)

	chA.Post(wire.Move{Id: "peer-a", X: 10, Y: 20, Direction: wire.DirLeft})

	waitFor(t, "delivery to b", func() bool { return recB.count() == 1 })
	move, ok := recB.last().(wire.Move)
	testutil.AssertEqual(t, "variant", ok, true)
	testutil.AssertEqual(t, "x", move.X, 10.0)
}

func TestChannelSuppressesSelfEcho(t *testing.T) {
	chA, chB := openLocalPair(t, NewRegistry(), "room-1")

	recA := &recorder{}
	recB := &recorder{}
	chA.Subscribe(recA.handler)
	chB.Subscribe(recB.handler)

	chA.Post(wire.Leave{Id: "peer-a"})

	waitFor(t, "delivery to b", func() bool { return recB.count() == 1 })
	testutil.AssertEqual(t, "a echo count", recA.count(), 0)
}

func TestChannelMultipleSubscribers(t *testing.T) {
	chA, chB := openLocalPair(t, NewRegistry(), "room-1")

	rec1 := &recorder{}
	rec2 := &recorder{}
	unsub1 := chB.Subscribe(rec1.handler)
	chB.Subscribe(rec2.handler)

	chA.Post(wire.Leave{Id: "peer-a"})
	waitFor(t, "both subscribers", func() bool { return rec1.count() == 1 && rec2.count() == 1 })

	// Unsubscribing one must not affect the other.
	unsub1()
	chA.Post(wire.Leave{Id: "peer-a"})
	waitFor(t, "second subscriber only", func() bool { return rec2.count() == 2 })
	testutil.AssertEqual(t, "unsubscribed count", rec1.count(), 1)
}

func TestChannelRoomIsolation(t *testing.T) {
	reg := NewRegistry()
	chA, _ := openLocalPair(t, reg, "room-1")

	selC := NewSelector("peer-c", WithRegistry(reg))
	chC, err := selC.Select(context.Background(), "room-2")
	if err != nil {
		t.Fatalf("opening channel c: %v", err)
	}
	t.Cleanup(func() { _ = chC.Close() })

	recC := &recorder{}
	chC.Subscribe(recC.handler)

	chA.Post(wire.Leave{Id: "peer-a"})

	time.Sleep(20 * time.Millisecond)
	testutil.AssertEqual(t, "cross-room leak", recC.count(), 0)
}

func TestChannelCloseStopsDelivery(t *testing.T) {
	chA, chB := openLocalPair(t, NewRegistry(), "room-1")

	recB := &recorder{}
	chB.Subscribe(recB.handler)

	_ = chB.Close()
	chA.Post(wire.Leave{Id: "peer-a"})

	time.Sleep(20 * time.Millisecond)
	testutil.AssertEqual(t, "post-close delivery", recB.count(), 0)
}

func TestChannelDropsMalformedPayloads(t *testing.T) {
	reg := NewRegistry()
	chA, chB := openLocalPair(t, reg, "room-1")

	recB := &recorder{}
	chB.Subscribe(recB.handler)

	// Raw garbage straight through the provider bypasses encoding.
	brk := reg.broker("room-1")
	brk.post(nil, []byte("not json"))
	brk.post(nil, []byte(`{"type":"teleport","from":"peer-x","payload":{}}`))
	chA.Post(wire.Leave{Id: "peer-a"})

	waitFor(t, "valid message", func() bool { return recB.count() == 1 })
	_, ok := recB.last().(wire.Leave)
	testutil.AssertEqual(t, "only valid variant", ok, true)
}
