package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	Room         RoomConfig      `json:"room"`
	TickInterval string          `json:"tick_interval"`
	World        WorldConfig     `json:"world"`
	Nats         NatsConfig      `json:"nats"`
	Transport    TransportConfig `json:"transport"`
	Broadcast    BroadcastConfig `json:"broadcast"`
	Presence     PresenceConfig  `json:"presence"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < time.Millisecond {
			el.Add(fmt.Errorf("tick_interval must be at least 1ms"))
		}
	}

	el.Add(c.Room.validate())
	el.Add(c.World.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Transport.validate())
	el.Add(c.Broadcast.validate())
	el.Add(c.Presence.validate())

	return el.Err()
}

type RoomConfig struct {
	Id string `json:"id"`

	// PeerId is optional; a random identity is generated when empty.
	PeerId    string `json:"peer_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Accessory string `json:"accessory"`
}

func (c *RoomConfig) validate() error {
	el := errors.NewErrorList()

	if c.Id == "" {
		el.Add(fmt.Errorf("room id is required"))
	}
	if c.Name == "" {
		el.Add(fmt.Errorf("display name is required"))
	}

	return el.Err()
}

type PresenceConfig struct {
	// EvictAfter drops remote peers that stop sending without a
	// leave. Empty uses the default; "0" disables eviction.
	EvictAfter string `json:"evict_after"`

	ChatLimit int `json:"chat_limit"`
}

func (c *PresenceConfig) validate() error {
	el := errors.NewErrorList()

	if c.EvictAfter != "" {
		if _, err := time.ParseDuration(c.EvictAfter); err != nil {
			el.Add(fmt.Errorf("parsing evict_after: %w", err))
		}
	}
	if c.ChatLimit < 0 {
		el.Add(fmt.Errorf("chat_limit must not be negative"))
	}

	return el.Err()
}
