// Package engine runs one world: the fixed-interval tick loop, the mutation
// gateway, the concurrent decision-request lifecycle, and the debounced
// change notification.
//
// Concurrency model: a single owner goroutine holds the world state. Tick
// steps, decision-task results, and every inbound call (join, guardian-angel
// messages, snapshots) execute as closures submitted over one channel and
// run strictly one at a time, so all read-then-write logic inside the owner
// is race-free without locks. Oracle calls run on worker goroutines and only
// ever send their result back through the same channel; stale results are
// discarded by the generation check rather than cancelled.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pookielabs/pookieverse/internal/level"
	"github.com/pookielabs/pookieverse/internal/oracle"
	"github.com/pookielabs/pookieverse/internal/trade"
	"github.com/pookielabs/pookieverse/internal/world"
)

// Timing constants, all in milliseconds unless noted.
const (
	DefaultTickInterval = time.Second
	notifyDebounce      = 10 * time.Millisecond

	reIdleMillis         = 3_000  // post-move, post-interaction, and failure re-idle
	joinIdleMillis       = 3_000  // a fresh pookie looks around first
	listenerIdleMillis   = 7_000  // overhearing speech
	speakerIdleMillis    = 12_000 // after saying something
	hitCooldownMillis    = 5_000  // attacker cooldown
	tradeActorIdleMillis = 5_000  // after offering/accepting/rejecting a trade
	deadDurationMillis   = 60_000
	moveStartDelayMillis = 1_000 // client-lag buffer before a move begins

	minDamage = 25
	maxDamage = 50
)

// Event is a notable occurrence, handed to the configured EventSink.
type Event struct {
	WorldID         string `json:"world_id" db:"world_id"`
	TimestampMillis int64  `json:"timestamp_millis" db:"timestamp_millis"`
	Category        string `json:"category" db:"category"` // "join", "speech", "combat", "death", "trade", "facility", "guardian", "respawn"
	Pookie          string `json:"pookie" db:"pookie"`
	Text            string `json:"text" db:"text"`
}

// EventSink receives engine events. Record is called from the owner
// goroutine and must not block.
type EventSink interface {
	Record(e Event)
}

// ErrWorldFull is returned by Join when the level's capacity is reached.
var ErrWorldFull = fmt.Errorf("max pookies reached")

// ErrPookieNotFound is returned for operations addressing an unknown pookie.
var ErrPookieNotFound = fmt.Errorf("pookie not found")

// Config holds everything needed to build a world.
type Config struct {
	ID           string
	Level        *level.Level
	Decider      oracle.Decider
	Seed         int64         // 0 = time-based
	TickInterval time.Duration // 0 = DefaultTickInterval
	Sink         EventSink     // optional
	NowMillis    int64         // world start time; 0 = wall clock
}

// World is one running simulation. All exported methods are safe for
// concurrent use: they submit work to the owner goroutine and wait.
type World struct {
	id      string
	state   *world.State
	ledger  *trade.Ledger
	decider oracle.Decider
	rng     *rand.Rand
	sink    EventSink

	thinkingCounter uint64

	tickInterval time.Duration
	ops          chan func(nowMillis int64)
	notifyCh     chan struct{}
	stopCh       chan struct{}
	doneCh       chan struct{}

	// Owner-goroutine state for the debounced broadcast.
	notifyTimer *time.Timer

	subscribers map[string]func(*world.State)
}

// New builds a world on the given level. Call Run to start it.
func New(cfg Config) (*World, error) {
	if cfg.Level == nil {
		return nil, fmt.Errorf("config has no level")
	}
	if err := cfg.Level.Validate(); err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}
	if cfg.Decider == nil {
		return nil, fmt.Errorf("config has no decider")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := cfg.NowMillis
	if now == 0 {
		now = time.Now().UnixMilli()
	}
	interval := cfg.TickInterval
	if interval == 0 {
		interval = DefaultTickInterval
	}
	return &World{
		id:           cfg.ID,
		state:        world.NewState(cfg.Level, now),
		ledger:       trade.NewLedger(),
		decider:      cfg.Decider,
		rng:          rand.New(rand.NewSource(seed)),
		sink:         cfg.Sink,
		tickInterval: interval,
		ops:          make(chan func(int64), 256),
		notifyCh:     make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		subscribers:  make(map[string]func(*world.State)),
	}, nil
}

// ID returns the world's identifier.
func (w *World) ID() string {
	return w.id
}

// Run starts the owner goroutine and blocks until Stop is called.
func (w *World) Run() {
	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()
	slog.Info("world started", "world", w.id, "max_pookies", w.state.Level.MaxPookies)

	for {
		select {
		case <-w.stopCh:
			close(w.doneCh)
			slog.Info("world stopped", "world", w.id)
			return
		case t := <-ticker.C:
			w.tick(t.UnixMilli())
		case op := <-w.ops:
			op(time.Now().UnixMilli())
		case <-w.notifyCh:
			w.broadcast()
		}
	}
}

// Stop shuts the world down and waits for the owner goroutine to exit.
func (w *World) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// do submits fn to the owner goroutine and waits for it to run.
func (w *World) do(fn func(nowMillis int64)) {
	done := make(chan struct{})
	w.ops <- func(now int64) {
		fn(now)
		close(done)
	}
	<-done
}

// Snapshot returns a deep copy of the current world state.
func (w *World) Snapshot() *world.State {
	var snap *world.State
	w.do(func(int64) {
		snap = w.state.Clone()
	})
	return snap
}

// Subscription is a handle to an observer registration.
type Subscription struct {
	unsubscribe func()
}

// Unsubscribe removes the observer. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Subscribe registers a callback invoked with a fresh snapshot at most once
// per debounce window. Callbacks run on the owner goroutine and must return
// quickly; hand the snapshot off to another goroutine for slow work.
func (w *World) Subscribe(cb func(*world.State)) *Subscription {
	id := uuid.NewString()
	w.do(func(int64) {
		w.subscribers[id] = cb
	})
	return &Subscription{unsubscribe: func() {
		w.do(func(int64) {
			delete(w.subscribers, id)
		})
	}}
}

// Join adds a pookie to the world and returns its name.
func (w *World) Join() (string, error) {
	var name string
	var err error
	w.do(func(now int64) {
		name, err = w.join(now)
	})
	return name, err
}

// SendGuardianAngelMessage delivers out-of-band advice to one pookie. The
// pookie is interrupted into idle with zero wait so it reacts next tick.
func (w *World) SendGuardianAngelMessage(pookieName, text string) error {
	var err error
	w.do(func(now int64) {
		err = w.guardianMessage(pookieName, text, now)
	})
	return err
}

// PendingOffersFor returns copies of the unexpired trade offers addressed to
// the given pookie.
func (w *World) PendingOffersFor(pookieName string) []trade.Offer {
	var out []trade.Offer
	w.do(func(now int64) {
		for _, o := range w.ledger.PendingFor(pookieName, now) {
			cp := *o
			cp.ItemsOffered = append([]world.ItemStack(nil), o.ItemsOffered...)
			cp.ItemsRequested = append([]world.ItemStack(nil), o.ItemsRequested...)
			out = append(out, cp)
		}
	})
	return out
}

// ── Owner-goroutine internals ────────────────────────────────────────────

// markDirty schedules the debounced observer broadcast. A burst of
// mutations within the window coalesces into one notification.
func (w *World) markDirty() {
	if w.notifyTimer != nil {
		w.notifyTimer.Stop()
	}
	w.notifyTimer = time.AfterFunc(notifyDebounce, func() {
		select {
		case w.notifyCh <- struct{}{}:
		default:
		}
	})
}

// broadcast snapshots the state once and fans it out to all subscribers.
func (w *World) broadcast() {
	if len(w.subscribers) == 0 {
		return
	}
	snap := w.state.Clone()
	for _, cb := range w.subscribers {
		cb(snap)
	}
}

func (w *World) emit(category, pookie, text string, now int64) {
	if w.sink == nil {
		return
	}
	w.sink.Record(Event{
		WorldID:         w.id,
		TimestampMillis: now,
		Category:        category,
		Pookie:          pookie,
		Text:            text,
	})
}

// join creates a pookie with a fresh personality and one of every item type.
func (w *World) join(now int64) (string, error) {
	if len(w.state.Pookies) >= w.state.Level.MaxPookies {
		return "", ErrWorldFull
	}

	name := ""
	for i := 0; name == "" || w.state.Pookies[name] != nil; i++ {
		if i > 100 {
			name = uuid.NewString()
		} else {
			name = world.Names[w.rng.Intn(len(world.Names))]
		}
	}

	itemIDs := make([]string, 0, len(w.state.Level.ItemTypes))
	for id := range w.state.Level.ItemTypes {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)
	inv := make(world.Inventory, 0, len(itemIDs))
	for _, id := range itemIDs {
		inv = append(inv, world.InventoryItem{ID: id, Amount: 1})
	}

	w.state.Pookies[name] = &world.Pookie{
		Personality: world.GeneratePersonality(w.rng),
		CurrentAction: world.Idle(
			w.rng.Float64()*w.state.Level.Width,
			w.rng.Float64()*w.state.Level.Height,
			now, joinIdleMillis,
		),
		Inventory: inv,
		Health:    world.MaxHealth,
		Food:      world.MaxFood,
	}
	w.emit("join", name, fmt.Sprintf("%s joined the world", name), now)
	slog.Info("pookie joined", "world", w.id, "pookie", name)
	w.markDirty()
	return name, nil
}

// guardianMessage appends the advice to the pookie's memory and interrupts
// it so the message is processed on the next tick.
func (w *World) guardianMessage(name, text string, now int64) error {
	p := w.state.Pookies[name]
	if p == nil {
		return ErrPookieNotFound
	}
	p.Remember(world.Notice(world.ThoughtGuardianAngel, text, now))
	// Dead pookies keep the advice in memory but stay dead until respawn.
	if p.Alive() {
		loc := p.CurrentAction.PositionAt(now)
		p.CurrentAction = world.Idle(loc.X, loc.Y, now, 0)
	}
	w.emit("guardian", name, text, now)
	w.markDirty()
	return nil
}
