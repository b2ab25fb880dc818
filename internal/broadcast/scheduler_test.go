package broadcast

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pixil98/go-presence/internal/wire"
	"github.com/pixil98/go-testutil"
)

type recordingPoster struct {
	msgs []wire.Message
}

func (p *recordingPoster) Post(m wire.Message) {
	p.msgs = append(p.msgs, m)
}

func (p *recordingPoster) moves() int {
	n := 0
	for _, m := range p.msgs {
		if _, ok := m.(wire.Move); ok {
			n++
		}
	}
	return n
}

func (p *recordingPoster) voices() []wire.Voice {
	var out []wire.Voice
	for _, m := range p.msgs {
		if v, ok := m.(wire.Voice); ok {
			out = append(out, v)
		}
	}
	return out
}

func localSnap() wire.Snapshot {
	return wire.Snapshot{Id: "local-peer", X: 100, Y: 200, Direction: wire.DirRight}
}

func TestMoveRateCeiling(t *testing.T) {
	// Ticking every 16ms for one second must emit no more than
	// ceil(1s/60ms)+1 = 18 moves.
	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	s := NewScheduler(poster, clock)

	window := time.Second
	step := 16 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < window; elapsed += step {
		s.TickMove(localSnap())
		clock.Advance(step)
	}

	limit := int(window/DefaultMoveInterval) + 2
	if got := poster.moves(); got > limit {
		t.Fatalf("emitted %d moves in %v, ceiling is %d", got, window, limit)
	}
	if got := poster.moves(); got < 10 {
		t.Fatalf("emitted only %d moves in %v, broadcast is starving", got, window)
	}
}

func TestMoveEmitsUnconditionallyOnInterval(t *testing.T) {
	// Same position every time: moves still go out, receivers gate.
	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	s := NewScheduler(poster, clock)

	s.TickMove(localSnap())
	clock.Advance(DefaultMoveInterval)
	s.TickMove(localSnap())

	testutil.AssertEqual(t, "moves", poster.moves(), 2)
}

func TestVoiceHysteresisSuppressesChatter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	s := NewScheduler(poster, clock)

	s.TickVoice("local-peer", 0.50, true)
	for i := 0; i < 5; i++ {
		clock.Advance(DefaultVoiceInterval)
		s.TickVoice("local-peer", 0.52, true)
	}

	testutil.AssertEqual(t, "voice count", len(poster.voices()), 1)
}

func TestVoiceEmitsOnLevelJump(t *testing.T) {
	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	s := NewScheduler(poster, clock)

	s.TickVoice("local-peer", 0.1, true)
	clock.Advance(DefaultVoiceInterval)
	s.TickVoice("local-peer", 0.8, true)

	voices := poster.voices()
	testutil.AssertEqual(t, "voice count", len(voices), 2)
	testutil.AssertEqual(t, "level", voices[1].Level, 0.8)
}

func TestVoiceEmitsOnMicFlip(t *testing.T) {
	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	s := NewScheduler(poster, clock)

	s.TickVoice("local-peer", 0.2, true)
	clock.Advance(DefaultVoiceInterval)
	s.TickVoice("local-peer", 0.2, false)

	voices := poster.voices()
	testutil.AssertEqual(t, "voice count", len(voices), 2)
	testutil.AssertEqual(t, "mic", voices[1].MicEnabled, false)
}

func TestVoiceIntervalGate(t *testing.T) {
	// A large level change inside the interval still waits.
	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	s := NewScheduler(poster, clock)

	s.TickVoice("local-peer", 0.1, true)
	clock.Advance(DefaultVoiceInterval / 2)
	s.TickVoice("local-peer", 0.9, true)

	testutil.AssertEqual(t, "voice count", len(poster.voices()), 1)
}

func TestAvatarBroadcastImmediate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	s := NewScheduler(poster, clock)

	snap := localSnap()
	snap.Profile = wire.Profile{Name: "Ada", Color: "#f00"}
	s.AvatarChanged(snap)
	s.AvatarChanged(snap)

	count := 0
	for _, m := range poster.msgs {
		if _, ok := m.(wire.Avatar); ok {
			count++
		}
	}
	testutil.AssertEqual(t, "avatar count", count, 2)
}
