package world

import (
	"time"

	"github.com/pixil98/go-presence/internal/wire"
)

// Participant is one peer's authoritative state as this process knows
// it. The local participant's position is owned by the simulation;
// remote participants' fields are owned by reconciliation.
type Participant struct {
	Id         string
	Profile    wire.Profile
	X          float64
	Y          float64
	Direction  wire.Direction
	CamEnabled bool
	MicEnabled bool
	Level      float64
	LastSeen   time.Time
}

// Snapshot flattens the participant into its wire representation.
func (p *Participant) Snapshot() wire.Snapshot {
	return wire.Snapshot{
		Id:         p.Id,
		Profile:    p.Profile,
		X:          p.X,
		Y:          p.Y,
		Direction:  p.Direction,
		CamEnabled: p.CamEnabled,
		MicEnabled: p.MicEnabled,
		Level:      p.Level,
	}
}
