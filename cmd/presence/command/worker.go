package command

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pixil98/go-presence/internal/driver"
	"github.com/pixil98/go-presence/internal/session"
	"github.com/pixil98/go-presence/internal/transport"
	"github.com/pixil98/go-presence/internal/wire"
	"github.com/pixil98/go-presence/internal/world"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	workers := service.WorkerList{}

	peerId := cfg.Room.PeerId
	if peerId == "" {
		peerId = uuid.NewString()
	}

	// Transport tiers, probed in priority order by the selector.
	var selOpts []transport.SelectorOpt
	if cfg.Nats.Embedded {
		srv, err := cfg.Nats.buildNatsServer()
		if err != nil {
			return nil, fmt.Errorf("creating nats server: %w", err)
		}
		workers["nats"] = srv
		selOpts = append(selOpts, transport.WithNats(srv))
	} else if cfg.Transport.NatsUrl != "" {
		selOpts = append(selOpts, transport.WithNats(transport.StaticNats(cfg.Transport.NatsUrl)))
	}
	if cfg.Transport.LocalBroker {
		selOpts = append(selOpts, transport.WithRegistry(transport.NewRegistry()))
	}
	if cfg.Transport.StoreDir != "" {
		selOpts = append(selOpts, transport.WithStore(cfg.Transport.StoreDir, cfg.Transport.pollInterval()))
	}
	selector := transport.NewSelector(peerId, selOpts...)

	objects, err := cfg.World.loadObjects()
	if err != nil {
		return nil, fmt.Errorf("loading scene objects: %w", err)
	}

	var storeOpts []world.StoreOpt
	if cfg.Presence.EvictAfter != "" {
		d, err := time.ParseDuration(cfg.Presence.EvictAfter)
		if err != nil {
			return nil, fmt.Errorf("parsing evict_after: %w", err)
		}
		storeOpts = append(storeOpts, world.WithEvictAfter(d))
	}

	var sessOpts []session.Opt
	if schedOpts := cfg.Broadcast.schedulerOpts(); len(schedOpts) > 0 {
		sessOpts = append(sessOpts, session.WithSchedulerOpts(schedOpts...))
	}
	if cfg.Presence.ChatLimit > 0 {
		sessOpts = append(sessOpts, session.WithChatLimit(cfg.Presence.ChatLimit))
	}

	profile := wire.Profile{
		Name:      cfg.Room.Name,
		Color:     cfg.Room.Color,
		Accessory: cfg.Room.Accessory,
	}

	sess := session.New(peerId, cfg.Room.Id, profile, cfg.World.bounds(), objects, selector, clockwork.NewRealClock(), storeOpts, sessOpts...)
	workers["session"] = sess

	var driverOpts []driver.DriverOpt
	if cfg.TickInterval != "" {
		d, err := time.ParseDuration(cfg.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	workers["driver"] = driver.NewDriver([]driver.Manager{sess}, driverOpts...)

	return workers, nil
}
