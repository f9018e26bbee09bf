// Package journal records what the carrier controller does during a battle.
// Events are queued without blocking the engine tick and written to a
// storage backend in batches by a background writer.
package journal

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bannercarrier/extension/internal/queue"
	"github.com/bannercarrier/extension/internal/storage"
	"github.com/bannercarrier/extension/pkg/core"
)

// DefaultFlushInterval is how often the writer drains the queue.
const DefaultFlushInterval = 2 * time.Second

var (
	ErrNoBackend = errors.New("no storage backend")
	ErrClosed    = errors.New("journal closed")
)

// NewBattleID returns a fresh battle identifier.
func NewBattleID() string {
	return uuid.NewString()
}

// Dependencies holds everything a Recorder needs.
type Dependencies struct {
	Backend       storage.Backend
	Logger        zerolog.Logger
	FlushInterval time.Duration
}

// Recorder queues carrier events and writes them to the backend. Record is
// safe to call from the engine tick; everything else is called from the
// battle lifecycle.
type Recorder struct {
	deps  Dependencies
	queue *queue.Buffer[core.CarrierEvent]

	writeMu  sync.Mutex
	inBattle bool

	stopChan  chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool

	written atomic.Int64
	dropped atomic.Int64
}

// New creates a Recorder. Start launches its writer.
func New(deps Dependencies) (*Recorder, error) {
	if deps.Backend == nil {
		return nil, ErrNoBackend
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Recorder{
		deps:     deps,
		queue:    queue.NewBuffer[core.CarrierEvent](),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start initializes the backend and launches the background writer.
func (r *Recorder) Start() error {
	var err error
	r.startOnce.Do(func() {
		if err = r.deps.Backend.Init(); err != nil {
			err = fmt.Errorf("failed to init storage: %w", err)
			close(r.done)
			return
		}
		go r.writeLoop()
	})
	return err
}

// Record queues an event. It never blocks on storage.
func (r *Recorder) Record(e core.CarrierEvent) {
	if r.closed.Load() {
		r.dropped.Add(1)
		return
	}
	r.queue.Push(e)
}

// Pending returns the number of queued events.
func (r *Recorder) Pending() int {
	return r.queue.Len()
}

// Written returns the number of events handed to the backend.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Dropped returns the number of events discarded.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// StartBattle opens a battle on the backend. Events still queued from a
// previous battle are written first.
func (r *Recorder) StartBattle(b *core.BattleInfo) error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if r.inBattle {
		_ = r.finishLocked()
	}
	if err := r.deps.Backend.StartBattle(b); err != nil {
		return fmt.Errorf("failed to start battle %s: %w", b.ID, err)
	}
	r.inBattle = true
	r.deps.Logger.Debug().Str("battle", b.ID).Msg("Journal battle started")
	return nil
}

// EndBattle writes everything queued and closes the battle on the backend.
func (r *Recorder) EndBattle() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if !r.inBattle {
		return nil
	}
	return r.finishLocked()
}

func (r *Recorder) finishLocked() error {
	if err := r.flushLocked(); err != nil {
		n := r.queue.Drain()
		r.dropped.Add(int64(len(n)))
		r.deps.Logger.Error().Err(err).Int("count", len(n)).Msg("Dropping unwritten journal events")
	}
	r.inBattle = false
	if err := r.deps.Backend.EndBattle(); err != nil {
		return fmt.Errorf("failed to end battle: %w", err)
	}
	if ex, ok := r.deps.Backend.(storage.Exportable); ok {
		meta := ex.GetExportMetadata()
		r.deps.Logger.Info().
			Str("battle", meta.BattleID).
			Str("path", ex.GetExportedFilePath()).
			Int("events", meta.EventCount).
			Msg("Journal exported")
	}
	return nil
}

// Flush writes every queued event now.
func (r *Recorder) Flush() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.flushLocked()
}

// flushLocked drains the queue into the backend. On failure the batch goes
// back to the front of the queue for the next cycle.
func (r *Recorder) flushLocked() error {
	if !r.inBattle {
		return nil
	}
	items := r.queue.Drain()
	if len(items) == 0 {
		return nil
	}
	if err := r.deps.Backend.RecordEvents(items); err != nil {
		r.deps.Logger.Error().Err(err).Int("count", len(items)).Msg("Error writing journal events")
		r.queue.Requeue(items)
		return err
	}
	r.written.Add(int64(len(items)))
	return nil
}

// writeLoop periodically drains the queue until Close.
func (r *Recorder) writeLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			_ = r.Flush()
		}
	}
}

// Close stops the writer, ends an open battle and closes the backend.
func (r *Recorder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.stopChan)
		r.startOnce.Do(func() { close(r.done) })
		<-r.done

		if endErr := r.EndBattle(); endErr != nil {
			err = endErr
		}
		if cerr := r.deps.Backend.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
