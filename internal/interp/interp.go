// Package interp smooths remote participants' displayed position and
// voice level toward the latest authoritative values, absorbing
// message arrival jitter into monotone on-screen motion. The local
// participant is never tracked here; it mirrors its simulated
// position directly.
package interp

import (
	"math"
	"sync"
	"time"

	"github.com/pixil98/go-presence/internal/world"
)

const (
	// refRate normalizes convergence speed to a reference frame
	// rate, so the same tuning holds at 30Hz and 144Hz ticks.
	refRate = 60.0

	// k is the per-reference-frame convergence gain for position.
	k = 12.0

	// voiceTau is the single-pole smoothing time constant for the
	// speaking level, in seconds.
	voiceTau = 0.1
)

// View is a participant's presentation-only display state.
type View struct {
	X     float64
	Y     float64
	Level float64
}

// Interpolator tracks one display state per remote participant.
// Ticks advance it while transport callbacks drop departed peers, so
// access is locked.
type Interpolator struct {
	mu    sync.Mutex
	views map[string]*View
}

func New() *Interpolator {
	return &Interpolator{views: map[string]*View{}}
}

// Advance moves every tracked display state toward the authoritative
// values in remotes. Participants seen for the first time are seeded
// at their authoritative position so they never fly in from origin.
// Tracked ids absent from remotes are dropped.
func (ip *Interpolator) Advance(remotes []world.Participant, dt time.Duration) {
	if dt < 0 {
		dt = 0
	}

	ip.mu.Lock()
	defer ip.mu.Unlock()

	elapsed := dt.Seconds()

	// factor is the fraction of the remaining distance covered this
	// tick: 1-(1-k/refRate)^(dt*refRate). It stays in (0,1], so
	// convergence is monotone and never overshoots.
	factor := 1 - math.Pow(1-k/refRate, elapsed*refRate)
	voiceBlend := 1 - math.Exp(-elapsed/voiceTau)

	seen := make(map[string]bool, len(remotes))
	for _, p := range remotes {
		seen[p.Id] = true

		v, ok := ip.views[p.Id]
		if !ok {
			ip.views[p.Id] = &View{X: p.X, Y: p.Y, Level: p.Level}
			continue
		}
		v.X += (p.X - v.X) * factor
		v.Y += (p.Y - v.Y) * factor
		v.Level += (p.Level - v.Level) * voiceBlend
	}

	for id := range ip.views {
		if !seen[id] {
			delete(ip.views, id)
		}
	}
}

// Drop removes the smoothing state for a departed participant.
func (ip *Interpolator) Drop(id string) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	delete(ip.views, id)
}

func (ip *Interpolator) View(id string) (View, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	v, ok := ip.views[id]
	if !ok {
		return View{}, false
	}
	return *v, true
}

func (ip *Interpolator) Len() int {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return len(ip.views)
}
