// Package driver runs the simulation/render loop: a single logical
// tick at a fixed cadence driving every registered manager in order.
package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultTickLength approximates a 60Hz render clock.
	DefaultTickLength = 16 * time.Millisecond
)

type Manager interface {
	Tick(context.Context) error
}

type Driver struct {
	tickLength time.Duration
	managers   []Manager
}

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs every manager once. A failing manager is logged and
// skipped; presence degrades rather than halting the loop.
func (d *Driver) Tick(ctx context.Context) {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			slog.WarnContext(ctx, "manager tick", "error", err)
		}
	}
}
