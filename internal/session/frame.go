package session

import (
	"github.com/pixil98/go-presence/internal/transport"
	"github.com/pixil98/go-presence/internal/world"
)

// RemoteView pairs a remote participant's authoritative state with
// the smoothed values the renderer should actually draw.
type RemoteView struct {
	Participant  world.Participant
	DisplayX     float64
	DisplayY     float64
	DisplayLevel float64
}

// Frame is the per-tick output consumed by the rendering layer.
type Frame struct {
	Tick      uint64
	Transport transport.Kind
	Local     world.Participant
	Remotes   []RemoteView
	Objects   []world.WorldObject
	Chat      []world.ChatEntry
}

// Frame snapshots the current presence state. The local participant
// is presented at its authoritative position, unsmoothed; remote
// participants at their interpolated display positions.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	tick := s.tick
	s.mu.Unlock()

	f := Frame{
		Tick:      tick,
		Transport: s.TransportKind(),
		Objects:   s.store.Objects(),
		Chat:      s.chat.Entries(),
	}

	for _, p := range s.store.Participants() {
		if p.Id == s.localId {
			f.Local = p
			continue
		}

		view := RemoteView{Participant: p, DisplayX: p.X, DisplayY: p.Y, DisplayLevel: p.Level}
		if v, ok := s.interp.View(p.Id); ok {
			view.DisplayX = v.X
			view.DisplayY = v.Y
			view.DisplayLevel = v.Level
		}
		f.Remotes = append(f.Remotes, view)
	}

	return f
}
