package transport

import (
	"context"
	"testing"
	"time"

	"github.com/pixil98/go-presence/internal/wire"
	"github.com/pixil98/go-testutil"
)

func openStorePair(t *testing.T, dir string) (*Channel, *Channel) {
	t.Helper()
	ctx := context.Background()

	selA := NewSelector("peer-a", WithStore(dir, 5*time.Millisecond))
	chA, err := selA.Select(ctx, "room-1")
	if err != nil {
		t.Fatalf("opening channel a: %v", err)
	}
	t.Cleanup(func() { _ = chA.Close() })

	selB := NewSelector("peer-b", WithStore(dir, 5*time.Millisecond))
	chB, err := selB.Select(ctx, "room-1")
	if err != nil {
		t.Fatalf("opening channel b: %v", err)
	}
	t.Cleanup(func() { _ = chB.Close() })

	return chA, chB
}

func TestStoreProviderDelivery(t *testing.T) {
	chA, chB := openStorePair(t, t.TempDir())

	recB := &recorder{}
	chB.Subscribe(recB.handler)

	chA.Post(wire.Move{Id: "peer-a", X: 42, Y: 7, Direction: wire.DirUp})

	waitFor(t, "polled delivery", func() bool { return recB.count() == 1 })
	move, ok := recB.last().(wire.Move)
	testutil.AssertEqual(t, "variant", ok, true)
	testutil.AssertEqual(t, "x", move.X, 42.0)
	testutil.AssertEqual(t, "kind", chB.Kind(), KindStore)
}

func TestStoreProviderExcludesWriter(t *testing.T) {
	chA, chB := openStorePair(t, t.TempDir())

	recA := &recorder{}
	recB := &recorder{}
	chA.Subscribe(recA.handler)
	chB.Subscribe(recB.handler)

	chA.Post(wire.Leave{Id: "peer-a"})

	waitFor(t, "delivery to b", func() bool { return recB.count() == 1 })

	// The storage layout excludes the writer, so a's own record is
	// never read back even before the envelope filter runs.
	time.Sleep(30 * time.Millisecond)
	testutil.AssertEqual(t, "writer readback", recA.count(), 0)
}

func TestStoreProviderOrderedDelivery(t *testing.T) {
	chA, chB := openStorePair(t, t.TempDir())

	recB := &recorder{}
	chB.Subscribe(recB.handler)

	for i := 0; i < 5; i++ {
		chA.Post(wire.Move{Id: "peer-a", X: float64(i), Y: 0, Direction: wire.DirRight})
	}

	waitFor(t, "all records", func() bool { return recB.count() == 5 })

	recB.mu.Lock()
	defer recB.mu.Unlock()
	for i, m := range recB.msgs {
		move := m.(wire.Move)
		testutil.AssertEqual(t, "order", move.X, float64(i))
	}
}

func TestStoreProviderSkipsHistory(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	selA := NewSelector("peer-a", WithStore(dir, 5*time.Millisecond))
	chA, err := selA.Select(ctx, "room-1")
	if err != nil {
		t.Fatalf("opening channel a: %v", err)
	}
	t.Cleanup(func() { _ = chA.Close() })

	chA.Post(wire.Move{Id: "peer-a", X: 1, Y: 1, Direction: wire.DirUp})

	// A peer joining later must not replay records that predate it.
	selB := NewSelector("peer-b", WithStore(dir, 5*time.Millisecond))
	chB, err := selB.Select(ctx, "room-1")
	if err != nil {
		t.Fatalf("opening channel b: %v", err)
	}
	t.Cleanup(func() { _ = chB.Close() })

	recB := &recorder{}
	chB.Subscribe(recB.handler)

	time.Sleep(30 * time.Millisecond)
	testutil.AssertEqual(t, "replayed history", recB.count(), 0)

	chA.Post(wire.Move{Id: "peer-a", X: 2, Y: 2, Direction: wire.DirUp})
	waitFor(t, "fresh record", func() bool { return recB.count() == 1 })
}
