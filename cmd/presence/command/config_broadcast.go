package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-presence/internal/broadcast"
)

type BroadcastConfig struct {
	MoveInterval    string  `json:"move_interval"`
	VoiceInterval   string  `json:"voice_interval"`
	VoiceHysteresis float64 `json:"voice_hysteresis"`
}

func (c *BroadcastConfig) validate() error {
	el := errors.NewErrorList()

	for name, v := range map[string]string{
		"move_interval":  c.MoveInterval,
		"voice_interval": c.VoiceInterval,
	} {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			el.Add(fmt.Errorf("parsing %s: %w", name, err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("%s must be positive", name))
		}
	}

	if c.VoiceHysteresis < 0 || c.VoiceHysteresis > 1 {
		el.Add(fmt.Errorf("voice_hysteresis must be within [0,1]"))
	}

	return el.Err()
}

func (c *BroadcastConfig) schedulerOpts() []broadcast.SchedulerOpt {
	var opts []broadcast.SchedulerOpt

	if c.MoveInterval != "" {
		if d, err := time.ParseDuration(c.MoveInterval); err == nil {
			opts = append(opts, broadcast.WithMoveInterval(d))
		}
	}
	if c.VoiceInterval != "" {
		if d, err := time.ParseDuration(c.VoiceInterval); err == nil {
			opts = append(opts, broadcast.WithVoiceInterval(d))
		}
	}
	if c.VoiceHysteresis > 0 {
		opts = append(opts, broadcast.WithHysteresis(c.VoiceHysteresis))
	}

	return opts
}
