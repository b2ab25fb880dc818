package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type TransportConfig struct {
	// NatsUrl points at an externally managed pub/sub service. It is
	// ignored when nats.embedded is set.
	NatsUrl string `json:"nats_url"`

	// LocalBroker enables the same-device broadcast tier.
	LocalBroker bool `json:"local_broker"`

	// StoreDir enables the polling fallback on a shared directory.
	StoreDir     string `json:"store_dir"`
	PollInterval string `json:"poll_interval"`
}

func (c *TransportConfig) validate() error {
	el := errors.NewErrorList()

	if c.PollInterval != "" {
		if _, err := time.ParseDuration(c.PollInterval); err != nil {
			el.Add(fmt.Errorf("parsing poll_interval: %w", err))
		}
	}

	return el.Err()
}

func (c *TransportConfig) pollInterval() time.Duration {
	if c.PollInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}
