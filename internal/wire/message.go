package wire

import "time"

// Message is the closed set of events peers exchange over a channel.
// Every variant is an immutable value once constructed.
type Message interface {
	isMessage()
}

// Profile is the display identity a peer broadcasts about itself.
type Profile struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Accessory string `json:"accessory,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// Snapshot is a full participant state as carried by join and state
// messages.
type Snapshot struct {
	Id         string    `json:"id"`
	Profile    Profile   `json:"profile"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Direction  Direction `json:"direction"`
	CamEnabled bool      `json:"camEnabled"`
	MicEnabled bool      `json:"micEnabled"`
	Level      float64   `json:"level"`
}

// Join announces a peer's presence. Receivers upsert the snapshot and,
// if they are not the sender, reply with a State of their own.
type Join struct {
	Snapshot
}

// Leave tells receivers to drop the participant and any smoothing
// state kept for it.
type Leave struct {
	Id string `json:"id"`
}

// State is an unconditional upsert, used as the join handshake reply.
type State struct {
	Snapshot
}

// Move is a positional update. Receivers apply it only when the delta
// exceeds a small epsilon.
type Move struct {
	Id        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Direction Direction `json:"direction"`
}

// Avatar updates identity and capability flags. It creates the
// participant at a default position when the id is unknown.
type Avatar struct {
	Id         string  `json:"id"`
	Profile    Profile `json:"profile"`
	CamEnabled bool    `json:"camEnabled"`
	MicEnabled bool    `json:"micEnabled"`
}

// Voice carries the speaking level in [0,1]. Applied only to already
// known participants.
type Voice struct {
	Id         string  `json:"id"`
	Level      float64 `json:"level"`
	MicEnabled bool    `json:"micEnabled"`
}

// LightPatch is a partial update for a toggle-light object. Nil fields
// are absent and leave the current value untouched.
type LightPatch struct {
	On *bool `json:"on,omitempty"`
}

// BoardPatch is a partial update for a notice-board object.
type BoardPatch struct {
	Highlight *string  `json:"highlight,omitempty"`
	Pinned    []string `json:"pinned,omitempty"`
}

// Object shallow-merges a partial state into the matching world
// object. Exactly one patch variant should be set, matching the
// object's kind.
type Object struct {
	Id    string      `json:"id"`
	Light *LightPatch `json:"light,omitempty"`
	Board *BoardPatch `json:"board,omitempty"`
}

// Chat is appended to a bounded log; it is not part of the presence
// store.
type Chat struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func (Join) isMessage()   {}
func (Leave) isMessage()  {}
func (State) isMessage()  {}
func (Move) isMessage()   {}
func (Avatar) isMessage() {}
func (Voice) isMessage()  {}
func (Object) isMessage() {}
func (Chat) isMessage()   {}
