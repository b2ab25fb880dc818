package interp

import (
	"math"
	"testing"
	"time"

	"github.com/pixil98/go-presence/internal/world"
	"github.com/pixil98/go-testutil"
)

func remoteAt(id string, x, y float64) world.Participant {
	return world.Participant{Id: id, X: x, Y: y}
}

func TestConvergesMonotonicallyWithoutOvershoot(t *testing.T) {
	ip := New()
	ip.Advance([]world.Participant{remoteAt("peer-a", 0, 0)}, 16*time.Millisecond)

	target := []world.Participant{remoteAt("peer-a", 100, 40)}
	prevDist := math.MaxFloat64
	for i := 0; i < 240; i++ {
		ip.Advance(target, 16*time.Millisecond)

		v, ok := ip.View("peer-a")
		testutil.AssertEqual(t, "tracked", ok, true)
		dist := math.Hypot(100-v.X, 40-v.Y)
		if dist > prevDist {
			t.Fatalf("distance grew from %f to %f at step %d", prevDist, dist, i)
		}
		if v.X > 100 || v.Y > 40 {
			t.Fatalf("overshoot at step %d: (%f,%f)", i, v.X, v.Y)
		}
		prevDist = dist
	}

	if prevDist > 0.01 {
		t.Fatalf("expected convergence within epsilon, still %f away", prevDist)
	}
}

func TestConvergenceIndependentOfTickRate(t *testing.T) {
	// One second of wall time at 30Hz and at 120Hz should land at
	// nearly the same point.
	run := func(hz int) float64 {
		ip := New()
		ip.Advance([]world.Participant{remoteAt("peer-a", 0, 0)}, time.Second/time.Duration(hz))
		target := []world.Participant{remoteAt("peer-a", 100, 0)}
		for i := 0; i < hz; i++ {
			ip.Advance(target, time.Second/time.Duration(hz))
		}
		v, _ := ip.View("peer-a")
		return v.X
	}

	slow := run(30)
	fast := run(120)
	if math.Abs(slow-fast) > 2 {
		t.Fatalf("tick-rate dependent convergence: 30Hz=%f 120Hz=%f", slow, fast)
	}
}

func TestFirstSightSeedsAtAuthoritativePosition(t *testing.T) {
	ip := New()

	ip.Advance([]world.Participant{remoteAt("peer-a", 512, 320)}, 16*time.Millisecond)

	v, ok := ip.View("peer-a")
	testutil.AssertEqual(t, "tracked", ok, true)
	testutil.AssertEqual(t, "x", v.X, 512.0)
	testutil.AssertEqual(t, "y", v.Y, 320.0)
}

func TestDropRemovesView(t *testing.T) {
	ip := New()
	ip.Advance([]world.Participant{remoteAt("peer-a", 10, 10)}, 16*time.Millisecond)

	ip.Drop("peer-a")

	_, ok := ip.View("peer-a")
	testutil.AssertEqual(t, "tracked", ok, false)
	testutil.AssertEqual(t, "len", ip.Len(), 0)
}

func TestAdvancePrunesDepartedIds(t *testing.T) {
	ip := New()
	ip.Advance([]world.Participant{remoteAt("peer-a", 10, 10), remoteAt("peer-b", 20, 20)}, 16*time.Millisecond)

	ip.Advance([]world.Participant{remoteAt("peer-b", 20, 20)}, 16*time.Millisecond)

	_, ok := ip.View("peer-a")
	testutil.AssertEqual(t, "pruned", ok, false)
	_, ok = ip.View("peer-b")
	testutil.AssertEqual(t, "kept", ok, true)
}

func TestVoiceLevelSmoothing(t *testing.T) {
	ip := New()
	ip.Advance([]world.Participant{{Id: "peer-a", Level: 0}}, 16*time.Millisecond)

	ip.Advance([]world.Participant{{Id: "peer-a", Level: 1}}, 16*time.Millisecond)

	v, _ := ip.View("peer-a")
	if v.Level <= 0 || v.Level >= 1 {
		t.Fatalf("expected smoothed level strictly between 0 and 1, got %f", v.Level)
	}
}
