package world

import (
	"fmt"

	"github.com/pixil98/go-presence/internal/wire"
)

type ObjectKind string

const (
	KindToggleLight ObjectKind = "toggle-light"
	KindNoticeBoard ObjectKind = "notice-board"
)

// Rect is an object's bounding rectangle in world units. Geometry is
// immutable after scene initialization.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ObjectState is the closed set of per-kind mutable object state.
type ObjectState interface {
	isObjectState()
}

type LightState struct {
	On bool
}

type BoardState struct {
	Highlight string
	Pinned    []string
}

func (LightState) isObjectState() {}
func (BoardState) isObjectState() {}

// WorldObject is a scene fixture. Only State mutates at runtime.
type WorldObject struct {
	Id          string
	Kind        ObjectKind
	Rect        Rect
	Interactive bool
	State       ObjectState
}

func (o *WorldObject) Validate() error {
	if o.Id == "" {
		return fmt.Errorf("object id is required")
	}
	switch o.Kind {
	case KindToggleLight, KindNoticeBoard:
	default:
		return fmt.Errorf("object %s: unknown kind %q", o.Id, o.Kind)
	}
	if o.Rect.W <= 0 || o.Rect.H <= 0 {
		return fmt.Errorf("object %s: rect must have positive size", o.Id)
	}
	return nil
}

// merge applies a patch to the state variant matching the object's
// kind. Each field overwrites key-wise, so applying the same patch
// twice is a no-op after the first. A patch for a mismatched kind is
// ignored.
func (o *WorldObject) merge(patch wire.Object) bool {
	switch st := o.State.(type) {
	case LightState:
		if patch.Light == nil {
			return false
		}
		changed := false
		if patch.Light.On != nil && st.On != *patch.Light.On {
			st.On = *patch.Light.On
			changed = true
		}
		o.State = st
		return changed
	case BoardState:
		if patch.Board == nil {
			return false
		}
		changed := false
		if patch.Board.Highlight != nil && st.Highlight != *patch.Board.Highlight {
			st.Highlight = *patch.Board.Highlight
			changed = true
		}
		if patch.Board.Pinned != nil {
			st.Pinned = append([]string(nil), patch.Board.Pinned...)
			changed = true
		}
		o.State = st
		return changed
	}
	return false
}

// clone returns a copy safe to hand outside the store's lock.
func (o *WorldObject) clone() WorldObject {
	cp := *o
	if bs, ok := cp.State.(BoardState); ok {
		bs.Pinned = append([]string(nil), bs.Pinned...)
		cp.State = bs
	}
	return cp
}
