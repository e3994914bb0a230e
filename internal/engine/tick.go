package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/pookielabs/pookieverse/internal/oracle"
	"github.com/pookielabs/pookieverse/internal/world"
)

// tick advances every time-based transition, then launches decision tasks
// for pookies that have been idle long enough. It never blocks on the
// oracle: decision tasks are fire-and-forget and report back through the
// ops channel.
func (w *World) tick(now int64) {
	w.completeMoves(now)
	w.completeInteractions(now)
	w.respawnDead(now)
	w.dispatchDecisions(now)
	w.ledger.PruneExpired(now)
}

// completeMoves transitions pookies whose move has ended to idle at the
// move's endpoint.
func (w *World) completeMoves(now int64) {
	for _, p := range w.state.Pookies {
		a := p.CurrentAction
		if a.Type == world.ActionMove && now > a.EndMillis {
			p.CurrentAction = world.Idle(a.EndX, a.EndY, now, reIdleMillis)
			w.markDirty()
		}
	}
}

// completeInteractions finishes facility interactions past their deadline:
// the pookie receives one random item from the level's catalog and a
// facility notice, then returns to idle.
func (w *World) completeInteractions(now int64) {
	for name, p := range w.state.Pookies {
		a := p.CurrentAction
		if a.Type != world.ActionInteract || now <= a.UntilMillis {
			continue
		}
		facility, ok := w.state.Level.Facilities[a.FacilityID]
		if ok && len(w.state.Level.ItemTypes) > 0 {
			itemID := w.randomItemID()
			p.Inventory = p.Inventory.Add([]world.ItemStack{{ItemID: itemID, Amount: 1}})
			text := fmt.Sprintf("You received 1x %s from %s!", itemID, facility.DisplayName)
			p.Remember(world.Notice(world.ThoughtFacility, text, now))
			w.emit("facility", name, text, now)
		}
		p.CurrentAction = world.Idle(a.X, a.Y, now, reIdleMillis)
		w.markDirty()
	}
}

// respawnDead revives pookies whose death window has passed: full health at
// a random point. The previous thoughts and inventory are kept.
func (w *World) respawnDead(now int64) {
	for name, p := range w.state.Pookies {
		a := p.CurrentAction
		if a.Type != world.ActionDead || now <= a.UntilMillis {
			continue
		}
		p.Health = world.MaxHealth
		p.CurrentAction = world.Idle(
			w.rng.Float64()*w.state.Level.Width,
			w.rng.Float64()*w.state.Level.Height,
			now, reIdleMillis,
		)
		p.Remember(world.Notice(world.ThoughtActionChange, "You wake up somewhere new, alive again.", now))
		w.emit("respawn", name, fmt.Sprintf("%s came back to life", name), now)
		w.markDirty()
	}
}

// dispatchDecisions moves idle pookies past their minimum idle time into
// thinking, snapshots their perception, and starts one decision task each.
func (w *World) dispatchDecisions(now int64) {
	for name, p := range w.state.Pookies {
		a := p.CurrentAction
		if a.Type != world.ActionIdle || now <= a.SinceMillis+a.MinIdleDurationMillis {
			continue
		}

		w.thinkingCounter++
		gen := w.thinkingCounter
		p.CurrentAction = world.Thinking(a.X, a.Y, now, gen)
		w.markDirty()

		// The perception is resolved entirely at dispatch time; the task
		// never reads world state again until its result is applied.
		perception := w.buildPerception(name, now)
		go w.runDecisionTask(name, gen, perception)
	}
}

// runDecisionTask is the only engine code that runs off the owner
// goroutine. It calls the oracle, substitutes the fallback for any failure,
// and submits the result back through the mutation gateway.
func (w *World) runDecisionTask(name string, gen uint64, p *oracle.Perception) {
	dec, err := w.decider.Decide(p)
	if err != nil {
		slog.Warn("oracle decision failed", "world", w.id, "pookie", name, "error", err)
		dec = oracle.Fallback()
	}
	w.ops <- func(now int64) {
		w.applyDecision(name, gen, p, dec, now)
	}
}

func (w *World) randomItemID() string {
	ids := make([]string, 0, len(w.state.Level.ItemTypes))
	for id := range w.state.Level.ItemTypes {
		ids = append(ids, id)
	}
	// Sort so the draw depends only on the world's seeded rng.
	sort.Strings(ids)
	return ids[w.rng.Intn(len(ids))]
}
