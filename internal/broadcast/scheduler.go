// Package broadcast rate-limits outbound presence messages. Motion is
// broadcast on a fixed cadence; voice levels only when they change
// meaningfully; avatar updates immediately.
package broadcast

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pixil98/go-presence/internal/wire"
)

const (
	DefaultMoveInterval  = 60 * time.Millisecond
	DefaultVoiceInterval = 140 * time.Millisecond
	DefaultHysteresis    = 0.05
)

// Poster is the narrow slice of a channel the scheduler needs. Posts
// are fire-and-forget; the next scheduled send is the retry.
type Poster interface {
	Post(wire.Message)
}

type Scheduler struct {
	clock  clockwork.Clock
	poster Poster

	moveInterval  time.Duration
	voiceInterval time.Duration
	hysteresis    float64

	lastMove  time.Time
	lastVoice time.Time
	lastLevel float64
	lastMic   bool
	sentVoice bool
}

type SchedulerOpt func(*Scheduler)

func WithMoveInterval(d time.Duration) SchedulerOpt {
	return func(s *Scheduler) {
		s.moveInterval = d
	}
}

func WithVoiceInterval(d time.Duration) SchedulerOpt {
	return func(s *Scheduler) {
		s.voiceInterval = d
	}
}

func WithHysteresis(h float64) SchedulerOpt {
	return func(s *Scheduler) {
		s.hysteresis = h
	}
}

func NewScheduler(poster Poster, clock clockwork.Clock, opts ...SchedulerOpt) *Scheduler {
	s := &Scheduler{
		clock:         clock,
		poster:        poster,
		moveInterval:  DefaultMoveInterval,
		voiceInterval: DefaultVoiceInterval,
		hysteresis:    DefaultHysteresis,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// TickMove emits a move for the local participant if the broadcast
// interval has elapsed. There is no delta suppression: motion is
// expected to be frequent and receivers gate on their own epsilon.
func (s *Scheduler) TickMove(snap wire.Snapshot) {
	now := s.clock.Now()
	if !s.lastMove.IsZero() && now.Sub(s.lastMove) < s.moveInterval {
		return
	}
	s.lastMove = now
	s.poster.Post(wire.Move{Id: snap.Id, X: snap.X, Y: snap.Y, Direction: snap.Direction})
}

// TickVoice emits the speaking level if its interval has elapsed and
// either the level moved past the hysteresis threshold or the mic
// flag flipped since the last send.
func (s *Scheduler) TickVoice(id string, level float64, micEnabled bool) {
	now := s.clock.Now()
	if s.sentVoice && now.Sub(s.lastVoice) < s.voiceInterval {
		return
	}

	delta := level - s.lastLevel
	if delta < 0 {
		delta = -delta
	}
	if s.sentVoice && delta <= s.hysteresis && micEnabled == s.lastMic {
		return
	}

	s.lastVoice = now
	s.lastLevel = level
	s.lastMic = micEnabled
	s.sentVoice = true
	s.poster.Post(wire.Voice{Id: id, Level: level, MicEnabled: micEnabled})
}

// AvatarChanged broadcasts identity or capability changes right away.
// These are low-frequency, so they bypass the timers.
func (s *Scheduler) AvatarChanged(snap wire.Snapshot) {
	s.poster.Post(wire.Avatar{
		Id:         snap.Id,
		Profile:    snap.Profile,
		CamEnabled: snap.CamEnabled,
		MicEnabled: snap.MicEnabled,
	})
}
