package transport

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultPollInterval = 150 * time.Millisecond

	// recordTTL is how long a writer keeps its own records on disk
	// before garbage-collecting them.
	recordTTL = 10 * time.Second
)

// storeProvider is the last-resort tier: a shared directory acting as
// a mutable key-value store, polled for change. Each post becomes one
// record file named by write time and writer id; the poll loop skips
// records carrying the local writer id, so a peer never reads back
// its own posts.
type storeProvider struct {
	dir          string
	writerId     string
	pollInterval time.Duration

	mu       sync.Mutex
	handlers map[int]func([]byte)
	nextId   int
	lastName string
	seq      int

	done      chan struct{}
	closeOnce sync.Once
}

func newStoreProvider(dir, roomId, writerId string, pollInterval time.Duration) (*storeProvider, error) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	roomDir := filepath.Join(dir, roomId)
	if err := os.MkdirAll(roomDir, 0755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	p := &storeProvider{
		dir:          roomDir,
		writerId:     writerId,
		pollInterval: pollInterval,
		handlers:     map[int]func([]byte){},
		done:         make(chan struct{}),
	}

	// Start reading after records that already exist, so a late
	// joiner does not replay the room's history out of order.
	if names, err := p.listRecords(); err == nil && len(names) > 0 {
		p.lastName = names[len(names)-1]
	}

	go p.poll()
	return p, nil
}

func (p *storeProvider) Post(data []byte) error {
	p.mu.Lock()
	p.seq++
	name := fmt.Sprintf("%020d-%06d-%s.msg", time.Now().UnixNano(), p.seq, p.writerId)
	p.mu.Unlock()

	path := filepath.Join(p.dir, name)

	// Write-then-rename so a concurrent poller never reads a partial
	// record.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publishing record: %w", err)
	}
	return nil
}

func (p *storeProvider) Subscribe(handler func(data []byte)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextId
	p.nextId++
	p.handlers[id] = handler

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}, nil
}

func (p *storeProvider) Kind() Kind {
	return KindStore
}

func (p *storeProvider) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (p *storeProvider) poll() {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.drain()
			p.collectGarbage()
		}
	}
}

// drain reads every record newer than the last one seen, skipping
// records written by this provider.
func (p *storeProvider) drain() {
	names, err := p.listRecords()
	if err != nil {
		slog.Debug("listing store records", "dir", p.dir, "error", err)
		return
	}

	for _, name := range names {
		if name <= p.lastNameSeen() {
			continue
		}
		p.setLastName(name)

		if p.writtenBySelf(name) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(p.dir, name))
		if err != nil {
			slog.Debug("reading store record", "record", name, "error", err)
			continue
		}

		p.mu.Lock()
		handlers := make([]func([]byte), 0, len(p.handlers))
		for _, h := range p.handlers {
			handlers = append(handlers, h)
		}
		p.mu.Unlock()

		for _, h := range handlers {
			h(data)
		}
	}
}

// collectGarbage removes this writer's own expired records. Each peer
// cleans up only after itself to avoid delete races.
func (p *storeProvider) collectGarbage() {
	names, err := p.listRecords()
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-recordTTL).UnixNano()
	for _, name := range names {
		if !p.writtenBySelf(name) {
			continue
		}
		var stamp int64
		if _, err := fmt.Sscanf(name, "%d-", &stamp); err != nil {
			continue
		}
		if stamp < cutoff {
			_ = os.Remove(filepath.Join(p.dir, name))
		}
	}
}

func (p *storeProvider) listRecords() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".msg") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (p *storeProvider) writtenBySelf(name string) bool {
	return strings.HasSuffix(name, "-"+p.writerId+".msg")
}

func (p *storeProvider) lastNameSeen() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastName
}

func (p *storeProvider) setLastName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name > p.lastName {
		p.lastName = name
	}
}
