package world

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pixil98/go-presence/internal/wire"
)

// moveEpsilon gates positional overwrites so floating jitter from
// repeated broadcasts does not churn the store.
const moveEpsilon = 0.01

// ApplyResult reports what a reconciliation changed.
type ApplyResult struct {
	Changed bool

	// JoinedPeer is set when another peer announced itself and a
	// state reply is owed as the handshake catch-up.
	JoinedPeer string

	// RemovedPeer is set when a leave removed the participant.
	RemovedPeer string
}

// Store holds this process's view of every participant and world
// object in a room. It is mutated by the simulation tick and by
// transport callbacks, which interleave arbitrarily, so every
// operation takes the lock. Updates are plain field assignments; no
// lock is held across anything blocking.
type Store struct {
	localId string
	bounds  Bounds
	clock   clockwork.Clock

	// evictAfter drops remote entries that stop sending without a
	// leave. Zero disables the sweep.
	evictAfter time.Duration

	mu           sync.RWMutex
	participants map[string]*Participant
	objects      map[string]*WorldObject
}

type StoreOpt func(*Store)

// WithEvictAfter sets how long a remote participant may stay silent
// before the liveness sweep drops it.
func WithEvictAfter(d time.Duration) StoreOpt {
	return func(s *Store) {
		s.evictAfter = d
	}
}

func NewStore(localId string, bounds Bounds, objects []WorldObject, clock clockwork.Clock, opts ...StoreOpt) *Store {
	s := &Store{
		localId:      localId,
		bounds:       bounds,
		clock:        clock,
		evictAfter:   5 * time.Second,
		participants: map[string]*Participant{},
		objects:      map[string]*WorldObject{},
	}

	for i := range objects {
		o := objects[i]
		s.objects[o.Id] = &o
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Apply reconciles one inbound message. Unknown ids create an entry
// only for join, state and avatar; move, voice and object updates for
// unknown ids are dropped. Messages about the local participant are
// ignored entirely: its authoritative state is owned by the
// simulation, and an echoed self-state is by definition out of date.
func (s *Store) Apply(msg wire.Message) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case wire.Join:
		if m.Id == "" || m.Id == s.localId {
			return ApplyResult{}
		}
		s.upsertSnapshot(m.Snapshot)
		return ApplyResult{Changed: true, JoinedPeer: m.Id}

	case wire.State:
		if m.Id == "" || m.Id == s.localId {
			return ApplyResult{}
		}
		s.upsertSnapshot(m.Snapshot)
		return ApplyResult{Changed: true}

	case wire.Leave:
		if m.Id == s.localId {
			return ApplyResult{}
		}
		if _, ok := s.participants[m.Id]; !ok {
			return ApplyResult{}
		}
		delete(s.participants, m.Id)
		return ApplyResult{Changed: true, RemovedPeer: m.Id}

	case wire.Move:
		if m.Id == s.localId {
			return ApplyResult{}
		}
		p, ok := s.participants[m.Id]
		if !ok {
			return ApplyResult{}
		}
		p.LastSeen = s.clock.Now()
		dx, dy := m.X-p.X, m.Y-p.Y
		if dx < moveEpsilon && dx > -moveEpsilon && dy < moveEpsilon && dy > -moveEpsilon {
			return ApplyResult{}
		}
		p.X, p.Y = s.bounds.Clamp(m.X, m.Y)
		if m.Direction.Valid() {
			p.Direction = m.Direction
		}
		return ApplyResult{Changed: true}

	case wire.Avatar:
		if m.Id == "" || m.Id == s.localId {
			return ApplyResult{}
		}
		p, ok := s.participants[m.Id]
		if !ok {
			cx, cy := s.bounds.Center()
			p = &Participant{Id: m.Id, X: cx, Y: cy, Direction: wire.DirDown}
			s.participants[m.Id] = p
		}
		p.Profile = m.Profile
		p.CamEnabled = m.CamEnabled
		p.MicEnabled = m.MicEnabled
		p.LastSeen = s.clock.Now()
		return ApplyResult{Changed: true}

	case wire.Voice:
		if m.Id == s.localId {
			return ApplyResult{}
		}
		p, ok := s.participants[m.Id]
		if !ok {
			return ApplyResult{}
		}
		p.Level = clamp01(m.Level)
		p.MicEnabled = m.MicEnabled
		p.LastSeen = s.clock.Now()
		return ApplyResult{Changed: true}

	case wire.Object:
		o, ok := s.objects[m.Id]
		if !ok {
			return ApplyResult{}
		}
		return ApplyResult{Changed: o.merge(m)}

	case wire.Chat:
		// Chat lives in the bounded log, not the presence store.
		return ApplyResult{}
	}

	return ApplyResult{}
}

// upsertSnapshot must be called with the lock held.
func (s *Store) upsertSnapshot(snap wire.Snapshot) {
	p, ok := s.participants[snap.Id]
	if !ok {
		p = &Participant{Id: snap.Id}
		s.participants[snap.Id] = p
	}
	p.Profile = snap.Profile
	p.X, p.Y = s.bounds.Clamp(snap.X, snap.Y)
	if snap.Direction.Valid() {
		p.Direction = snap.Direction
	} else if p.Direction == "" {
		p.Direction = wire.DirDown
	}
	p.CamEnabled = snap.CamEnabled
	p.MicEnabled = snap.MicEnabled
	p.Level = clamp01(snap.Level)
	p.LastSeen = s.clock.Now()
}

// ApplyLocalObjectPatch merges a locally initiated interaction, e.g.
// the user toggling a light. The same patch also goes out on the
// wire; remote applications of it are idempotent.
func (s *Store) ApplyLocalObjectPatch(patch wire.Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[patch.Id]
	if !ok {
		return false
	}
	return o.merge(patch)
}

// UpsertLocal creates or replaces the local participant entry.
func (s *Store) UpsertLocal(p Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Id = s.localId
	p.X, p.Y = s.bounds.Clamp(p.X, p.Y)
	if !p.Direction.Valid() {
		p.Direction = wire.DirDown
	}
	p.LastSeen = s.clock.Now()
	s.participants[s.localId] = &p
}

// MutateLocal runs fn against the local entry under the lock. It is
// how the simulation and the capability toggles write their results.
func (s *Store) MutateLocal(fn func(*Participant)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[s.localId]
	if !ok {
		return
	}
	fn(p)
	p.X, p.Y = s.bounds.Clamp(p.X, p.Y)
	p.Level = clamp01(p.Level)
	p.LastSeen = s.clock.Now()
}

// LocalSnapshot returns the local participant in wire form, or false
// if the local entry has not been created yet.
func (s *Store) LocalSnapshot() (wire.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[s.localId]
	if !ok {
		return wire.Snapshot{}, false
	}
	return p.Snapshot(), true
}

func (s *Store) Get(id string) (Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Participants returns copies of every entry, sorted by id so frames
// are stable for the renderer.
func (s *Store) Participants() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants)
}

// Objects returns copies of every world object, sorted by id.
func (s *Store) Objects() []WorldObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]WorldObject, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (s *Store) Object(id string) (WorldObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[id]
	if !ok {
		return WorldObject{}, false
	}
	return o.clone(), true
}

// Sweep drops remote participants that have been silent longer than
// the eviction window. The local entry is exempt. Returns the evicted
// ids so smoothing state can be dropped with them.
func (s *Store) Sweep() []string {
	if s.evictAfter <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var evicted []string
	for id, p := range s.participants {
		if id == s.localId {
			continue
		}
		if now.Sub(p.LastSeen) > s.evictAfter {
			delete(s.participants, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
