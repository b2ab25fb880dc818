package wire

import "fmt"

// Direction is a quantized cardinal facing.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirUp, DirDown, DirLeft, DirRight:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}
