package world

// Bounds describes the walkable world rectangle and the avatar
// footprint used to inset position clamping.
type Bounds struct {
	Width      float64
	Height     float64
	AvatarSize float64
}

// DefaultBounds matches the reference scene dimensions.
var DefaultBounds = Bounds{Width: 1024, Height: 640, AvatarSize: 32}

// Clamp pins a point inside the world, inset by half an avatar's
// footprint on every side.
func (b Bounds) Clamp(x, y float64) (float64, float64) {
	half := b.AvatarSize / 2
	if x < half {
		x = half
	}
	if x > b.Width-half {
		x = b.Width - half
	}
	if y < half {
		y = half
	}
	if y > b.Height-half {
		y = b.Height - half
	}
	return x, y
}

// Center is the default spawn point for participants whose position
// is not yet known.
func (b Bounds) Center() (float64, float64) {
	return b.Width / 2, b.Height / 2
}
