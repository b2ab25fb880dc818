package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-presence/internal/scene"
	"github.com/pixil98/go-presence/internal/world"
)

type WorldConfig struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	AvatarSize float64 `json:"avatar_size"`

	// ObjectsPath points at the scene asset directory. Empty means an
	// empty scene.
	ObjectsPath string `json:"objects_path"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.Width < 0 || c.Height < 0 {
		el.Add(fmt.Errorf("world dimensions must not be negative"))
	}
	if c.AvatarSize < 0 {
		el.Add(fmt.Errorf("avatar_size must not be negative"))
	}
	if c.ObjectsPath != "" {
		if _, err := os.Stat(c.ObjectsPath); err != nil {
			el.Add(fmt.Errorf("invalid objects_path %q: %w", c.ObjectsPath, err))
		}
	}

	return el.Err()
}

func (c *WorldConfig) bounds() world.Bounds {
	b := world.DefaultBounds
	if c.Width > 0 {
		b.Width = c.Width
	}
	if c.Height > 0 {
		b.Height = c.Height
	}
	if c.AvatarSize > 0 {
		b.AvatarSize = c.AvatarSize
	}
	return b
}

func (c *WorldConfig) loadObjects() ([]world.WorldObject, error) {
	if c.ObjectsPath == "" {
		return nil, nil
	}
	return scene.Load(c.ObjectsPath)
}
