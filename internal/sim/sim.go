// Package sim turns local input into the authoritative position,
// velocity and facing of the local participant. It is a pure state
// machine stepped once per tick; it never touches the transport.
package sim

import (
	"math"
	"time"

	"github.com/pixil98/go-presence/internal/wire"
	"github.com/pixil98/go-presence/internal/world"
)

const (
	// BaseSpeed is the cruise speed in world units per second.
	BaseSpeed = 200.0

	// maxStep caps the integration step so a single slow frame (tab
	// backgrounding, debugger pause) cannot teleport the avatar.
	maxStep = 50 * time.Millisecond

	// tauAccel and tauDecel are the velocity smoothing time
	// constants. Starts are snappier than stops.
	tauAccel = 0.08
	tauDecel = 0.16

	// arrivalDistSq clears a pointer target once the avatar is
	// within two world units of it.
	arrivalDistSq = 4.0
)

// Input is the directional key state for one tick. Axes are -1, 0 or
// +1; +Y points down.
type Input struct {
	X float64
	Y float64
}

func (in Input) active() bool {
	return in.X != 0 || in.Y != 0
}

// Simulator integrates the local participant's movement.
type Simulator struct {
	bounds world.Bounds

	x, y   float64
	vx, vy float64
	facing wire.Direction
	input  Input
	target *[2]float64
}

func New(bounds world.Bounds, startX, startY float64) *Simulator {
	x, y := bounds.Clamp(startX, startY)
	return &Simulator{
		bounds: bounds,
		x:      x,
		y:      y,
		facing: wire.DirDown,
	}
}

// SetInput records the directional key state. Any active directional
// input cancels a pending pointer target.
func (s *Simulator) SetInput(in Input) {
	s.input = in
	if in.active() {
		s.target = nil
	}
}

// SetTarget sets a click/tap destination. It is ignored while
// directional input is active.
func (s *Simulator) SetTarget(x, y float64) {
	if s.input.active() {
		return
	}
	x, y = s.bounds.Clamp(x, y)
	s.target = &[2]float64{x, y}
}

func (s *Simulator) ClearTarget() {
	s.target = nil
}

// Step advances the simulation by dt. The step is clamped to 50ms.
func (s *Simulator) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	if dt > maxStep {
		dt = maxStep
	}
	elapsed := dt.Seconds()

	dvx, dvy := s.desiredVelocity()

	// Exponential approach toward the desired velocity. Decelerating
	// to zero uses the slower constant.
	tau := tauAccel
	if dvx == 0 && dvy == 0 {
		tau = tauDecel
	}
	blend := 1 - math.Exp(-elapsed/tau)
	s.vx += (dvx - s.vx) * blend
	s.vy += (dvy - s.vy) * blend

	s.x, s.y = s.bounds.Clamp(s.x+s.vx*elapsed, s.y+s.vy*elapsed)

	if s.target != nil {
		dx, dy := s.target[0]-s.x, s.target[1]-s.y
		if dx*dx+dy*dy < arrivalDistSq {
			s.target = nil
		}
	}

	s.updateFacing()
}

func (s *Simulator) desiredVelocity() (float64, float64) {
	if s.input.active() {
		mag := math.Hypot(s.input.X, s.input.Y)
		return s.input.X / mag * BaseSpeed, s.input.Y / mag * BaseSpeed
	}
	if s.target != nil {
		dx, dy := s.target[0]-s.x, s.target[1]-s.y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			return 0, 0
		}
		return dx / dist * BaseSpeed, dy / dist * BaseSpeed
	}
	return 0, 0
}

func (s *Simulator) updateFacing() {
	s.facing = QuantizeFacing(s.vx, s.vy, s.facing)
}

// QuantizeFacing maps a velocity onto the larger-magnitude cardinal
// axis. A tie or near-zero velocity keeps the previous facing.
func QuantizeFacing(vx, vy float64, prev wire.Direction) wire.Direction {
	ax, ay := math.Abs(vx), math.Abs(vy)
	const still = 1e-3
	if ax < still && ay < still {
		return prev
	}
	if ax == ay {
		return prev
	}
	if ax > ay {
		if vx > 0 {
			return wire.DirRight
		}
		return wire.DirLeft
	}
	if vy > 0 {
		return wire.DirDown
	}
	return wire.DirUp
}

func (s *Simulator) Position() (float64, float64) {
	return s.x, s.y
}

func (s *Simulator) Velocity() (float64, float64) {
	return s.vx, s.vy
}

func (s *Simulator) Facing() wire.Direction {
	return s.facing
}

func (s *Simulator) HasTarget() bool {
	return s.target != nil
}
