// Package session ties the presence core together for one room: it
// reconciles inbound messages into the store, steps the local
// simulation, advances remote smoothing and schedules outbound
// broadcasts, all against a single channel selected at start.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pixil98/go-presence/internal/broadcast"
	"github.com/pixil98/go-presence/internal/interp"
	"github.com/pixil98/go-presence/internal/sim"
	"github.com/pixil98/go-presence/internal/transport"
	"github.com/pixil98/go-presence/internal/wire"
	"github.com/pixil98/go-presence/internal/world"
)

type Session struct {
	localId string
	roomId  string

	clock    clockwork.Clock
	selector *transport.Selector
	store    *world.Store
	interp   *interp.Interpolator
	chat     *world.ChatLog

	schedOpts []broadcast.SchedulerOpt

	// mu guards the simulator, the channel handle and the per-tick
	// bookkeeping. Transport callbacks interleave arbitrarily with
	// ticks, so everything shared is behind it or internally locked.
	mu       sync.Mutex
	sim      *sim.Simulator
	channel  *transport.Channel
	sched    *broadcast.Scheduler
	unsub    func()
	audio    float64
	lastTick time.Time
	tick     uint64
}

type Opt func(*Session)

// WithSchedulerOpts overrides broadcast intervals and hysteresis.
func WithSchedulerOpts(opts ...broadcast.SchedulerOpt) Opt {
	return func(s *Session) {
		s.schedOpts = opts
	}
}

// WithChatLimit bounds the chat log.
func WithChatLimit(limit int) Opt {
	return func(s *Session) {
		s.chat = world.NewChatLog(limit)
	}
}

func New(localId, roomId string, profile wire.Profile, bounds world.Bounds, objects []world.WorldObject, selector *transport.Selector, clock clockwork.Clock, storeOpts []world.StoreOpt, opts ...Opt) *Session {
	cx, cy := bounds.Center()

	s := &Session{
		localId:  localId,
		roomId:   roomId,
		clock:    clock,
		selector: selector,
		store:    world.NewStore(localId, bounds, objects, clock, storeOpts...),
		interp:   interp.New(),
		chat:     world.NewChatLog(0),
		sim:      sim.New(bounds, cx, cy),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.store.UpsertLocal(world.Participant{
		Profile:   profile,
		X:         cx,
		Y:         cy,
		Direction: wire.DirDown,
	})

	return s
}

// Start selects the transport, announces the local participant and
// blocks until the context ends, then tears down with a best-effort
// leave.
func (s *Session) Start(ctx context.Context) error {
	ch, err := s.selector.Select(ctx, s.roomId)
	if err != nil {
		return fmt.Errorf("selecting transport: %w", err)
	}

	unsub := ch.Subscribe(s.handleMessage)

	s.mu.Lock()
	s.channel = ch
	s.sched = broadcast.NewScheduler(ch, s.clock, s.schedOpts...)
	s.unsub = unsub
	s.mu.Unlock()

	if snap, ok := s.store.LocalSnapshot(); ok {
		ch.Post(wire.Join{Snapshot: snap})
	}

	<-ctx.Done()
	s.teardown()
	return nil
}

// teardown posts the advisory leave before releasing the channel.
// Its absence on the wire is an expected failure mode for receivers,
// not an error here.
func (s *Session) teardown() {
	s.mu.Lock()
	ch := s.channel
	unsub := s.unsub
	s.channel = nil
	s.sched = nil
	s.unsub = nil
	s.mu.Unlock()

	if ch == nil {
		return
	}

	ch.Post(wire.Leave{Id: s.localId})
	if unsub != nil {
		unsub()
	}
	_ = ch.Close()
}

// Tick advances the whole core by one frame: simulate, publish local
// state into the store, smooth remotes, sweep the silent, broadcast.
func (s *Session) Tick(context.Context) error {
	now := s.clock.Now()

	s.mu.Lock()
	var dt time.Duration
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick)
	}
	s.lastTick = now
	s.tick++

	s.sim.Step(dt)
	x, y := s.sim.Position()
	facing := s.sim.Facing()

	audio := s.audio
	sched := s.sched
	s.mu.Unlock()

	s.store.MutateLocal(func(p *world.Participant) {
		p.X, p.Y = x, y
		p.Direction = facing
		p.Level = audio
	})

	s.interp.Advance(s.remotes(), dt)

	for _, id := range s.store.Sweep() {
		s.interp.Drop(id)
	}

	if sched != nil {
		if snap, ok := s.store.LocalSnapshot(); ok {
			sched.TickMove(snap)
			sched.TickVoice(s.localId, audio, snap.MicEnabled)
		}
	}

	return nil
}

func (s *Session) remotes() []world.Participant {
	all := s.store.Participants()
	out := all[:0]
	for _, p := range all {
		if p.Id != s.localId {
			out = append(out, p)
		}
	}
	return out
}

// handleMessage reconciles one inbound message. It runs on the
// transport's delivery goroutine and must return promptly.
func (s *Session) handleMessage(m wire.Message) {
	res := s.store.Apply(m)

	switch msg := m.(type) {
	case wire.Leave:
		if res.RemovedPeer != "" {
			s.interp.Drop(msg.Id)
		}
	case wire.Chat:
		s.chat.Append(world.ChatEntry{
			Id:        msg.Id,
			Name:      msg.Name,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		})
	}

	// Handshake catch-up: answer another peer's join with our own
	// snapshot so it converges without waiting for broadcasts.
	if res.JoinedPeer != "" {
		if snap, ok := s.store.LocalSnapshot(); ok {
			s.post(wire.State{Snapshot: snap})
		}
	}
}

func (s *Session) post(m wire.Message) {
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()

	if ch != nil {
		ch.Post(m)
	}
}

// SetInput records directional key state; any active direction
// cancels a pending pointer target.
func (s *Session) SetInput(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.SetInput(sim.Input{X: x, Y: y})
}

// SetPointerTarget sets a click/tap destination for the local avatar.
func (s *Session) SetPointerTarget(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.SetTarget(x, y)
}

// SetAudioLevel feeds the microphone level for the current tick. The
// value is a 0-1 scalar sourced outside the core.
func (s *Session) SetAudioLevel(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = level
}

// SetProfile updates the local display identity and broadcasts it
// immediately; profile changes are low-frequency and skip the timers.
func (s *Session) SetProfile(p wire.Profile) {
	s.store.MutateLocal(func(lp *world.Participant) {
		lp.Profile = p
	})
	s.broadcastAvatar()
}

// SetCaption sets the ephemeral caption on the local profile.
func (s *Session) SetCaption(caption string) {
	s.store.MutateLocal(func(lp *world.Participant) {
		lp.Profile.Caption = caption
	})
	s.broadcastAvatar()
}

// SetCamEnabled flips the camera capability flag. A device failure
// upstream reports through here as a capability-disabled signal.
func (s *Session) SetCamEnabled(enabled bool) {
	s.store.MutateLocal(func(lp *world.Participant) {
		lp.CamEnabled = enabled
	})
	s.broadcastAvatar()
}

// SetMicEnabled flips the microphone capability flag.
func (s *Session) SetMicEnabled(enabled bool) {
	s.store.MutateLocal(func(lp *world.Participant) {
		lp.MicEnabled = enabled
	})
	s.broadcastAvatar()
}

func (s *Session) broadcastAvatar() {
	s.mu.Lock()
	sched := s.sched
	s.mu.Unlock()

	if sched == nil {
		return
	}
	if snap, ok := s.store.LocalSnapshot(); ok {
		sched.AvatarChanged(snap)
	}
}

// SendChat appends to the local log and posts to the room.
func (s *Session) SendChat(text string) {
	snap, ok := s.store.LocalSnapshot()
	if !ok {
		return
	}

	msg := wire.Chat{
		Id:        s.localId,
		Name:      snap.Profile.Name,
		Text:      text,
		Timestamp: s.clock.Now(),
	}
	s.chat.Append(world.ChatEntry{Id: msg.Id, Name: msg.Name, Text: msg.Text, Timestamp: msg.Timestamp})
	s.post(msg)
}

// UpdateObject applies a local interaction to a world object and
// posts the patch. Remote peers merge the same patch idempotently.
func (s *Session) UpdateObject(patch wire.Object) {
	if !s.store.ApplyLocalObjectPatch(patch) {
		return
	}
	s.post(patch)
}

// ToggleLight flips a toggle-light object.
func (s *Session) ToggleLight(id string) {
	obj, ok := s.store.Object(id)
	if !ok {
		return
	}
	st, ok := obj.State.(world.LightState)
	if !ok {
		return
	}
	on := !st.On
	s.UpdateObject(wire.Object{Id: id, Light: &wire.LightPatch{On: &on}})
}

// TransportKind reports which provider tier the session runs on, for
// external diagnostics. Empty until Start has selected one.
func (s *Session) TransportKind() transport.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil {
		return ""
	}
	return s.channel.Kind()
}

// Store exposes the presence store for reads by the session's owner.
func (s *Session) Store() *world.Store {
	return s.store
}

// Chat exposes the bounded chat log.
func (s *Session) Chat() *world.ChatLog {
	return s.chat
}
