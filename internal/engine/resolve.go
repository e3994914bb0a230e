package engine

import (
	"fmt"
	"log/slog"

	"github.com/pookielabs/pookieverse/internal/geometry"
	"github.com/pookielabs/pookieverse/internal/oracle"
	"github.com/pookielabs/pookieverse/internal/world"
)

// applyDecision reconciles a finished decision task with current state.
// The pookie's rationale is logged regardless; the decision itself is
// applied only if the pookie still exists and is still thinking with the
// generation it was dispatched with. Anything else means the pookie was
// interrupted in the meantime and the result is stale.
//
// Every precondition below is re-validated against current state, not the
// dispatch-time snapshot: time has passed, and a concurrently resolving
// trade or hit may have changed inventories and positions.
func (w *World) applyDecision(name string, gen uint64, p *oracle.Perception, dec oracle.Decision, now int64) {
	self := w.state.Pookies[name]
	if self == nil {
		return
	}

	if dec.Thought != "" {
		self.Remember(world.SelfThought(dec.Thought, false, now))
		w.markDirty()
	}

	a := self.CurrentAction
	if a.Type != world.ActionThinking || a.Generation != gen {
		slog.Debug("stale decision discarded", "world", w.id, "pookie", name, "generation", gen)
		return
	}

	switch dec.Kind {
	case oracle.KindIdle:
		w.resolveIdle(name, self, dec, now)
	case oracle.KindSay:
		w.resolveSay(name, self, dec.Message, now)
	case oracle.KindMoveToFacility:
		w.resolveMoveToFacility(name, self, dec.FacilityID, now)
	case oracle.KindMoveToPookie:
		w.resolveMoveToPookie(name, self, dec.PookieName, now)
	case oracle.KindInteract:
		w.resolveInteract(name, self, dec.FacilityID, now)
	case oracle.KindHitPookie:
		w.resolveHit(name, self, dec.TargetPookie, now)
	case oracle.KindOfferTrade:
		w.resolveOfferTrade(name, self, dec, now)
	case oracle.KindAcceptOffer:
		w.resolveAcceptOffer(name, self, dec.OfferID, now)
	case oracle.KindRejectOffer:
		w.resolveRejectOffer(name, self, dec.OfferID, now)
	default:
		// The oracle client validates against the closed set; an unknown
		// kind here is a programming error, not a runtime condition.
		slog.Error("unhandled decision kind", "world", w.id, "kind", dec.Kind)
		w.failAndIdle(self, "Guess I thought something that didn't make sense.", now)
	}
	w.markDirty()
}

// failAndIdle logs a user-level failure as a thought and re-idles for the
// default window. Failures never propagate as errors.
func (w *World) failAndIdle(p *world.Pookie, text string, now int64) {
	p.Remember(world.Notice(world.ThoughtActionChange, text, now))
	loc := p.CurrentAction.PositionAt(now)
	p.CurrentAction = world.Idle(loc.X, loc.Y, now, reIdleMillis)
}

func (w *World) reIdle(p *world.Pookie, minMillis, now int64) {
	loc := p.CurrentAction.PositionAt(now)
	p.CurrentAction = world.Idle(loc.X, loc.Y, now, minMillis)
}

func (w *World) resolveIdle(name string, self *world.Pookie, dec oracle.Decision, now int64) {
	self.Remember(world.Notice(world.ThoughtActionChange,
		fmt.Sprintf("Idling for %d seconds.", dec.Seconds), now))
	w.reIdle(self, int64(dec.Seconds)*1000, now)
}

// resolveSay broadcasts speech: every living pookie within speech distance
// of the speaker's current position overhears it and is interrupted with a
// short re-idle window so it can react promptly. The speaker re-idles with
// a longer window to avoid instantly re-triggering.
func (w *World) resolveSay(name string, self *world.Pookie, message string, now int64) {
	self.Remember(world.SelfThought(message, true, now))
	selfLoc := self.CurrentAction.PositionAt(now)

	for otherName, other := range w.state.Pookies {
		if otherName == name || !other.Alive() {
			continue
		}
		loc := other.CurrentAction.PositionAt(now)
		if geometry.Distance(selfLoc.X, selfLoc.Y, loc.X, loc.Y) > w.state.Level.SpeechDistance {
			continue
		}
		other.Remember(world.Overheard(name, message, now))
		other.CurrentAction = world.Idle(loc.X, loc.Y, now, listenerIdleMillis)
	}

	w.emit("speech", name, message, now)
	w.reIdle(self, speakerIdleMillis, now)
}

// resolveMoveToFacility schedules a walk to a uniformly random point inside
// the facility's interaction radius. The move starts one second in the
// future so laggy clients see the transition before the pookie is underway.
func (w *World) resolveMoveToFacility(name string, self *world.Pookie, facilityID string, now int64) {
	facility, ok := w.state.Level.Facilities[facilityID]
	if !ok {
		w.failAndIdle(self, fmt.Sprintf("Can't find facility %s anymore.", facilityID), now)
		return
	}
	self.Remember(world.Notice(world.ThoughtActionChange,
		fmt.Sprintf("Moving towards facility %s", facility.DisplayName), now))

	target := geometry.RandomPointWithinRadius(w.rng, facility.X, facility.Y, w.state.Level.FacilityInteractionDistance)
	w.scheduleMove(self, target, now)
}

func (w *World) resolveMoveToPookie(name string, self *world.Pookie, targetName string, now int64) {
	self.Remember(world.Notice(world.ThoughtActionChange,
		fmt.Sprintf("Moving towards pookie %s", targetName), now))

	target := w.state.Pookies[targetName]
	if target == nil {
		w.reIdle(self, reIdleMillis, now)
		return
	}
	targetLoc := target.CurrentAction.PositionAt(now)
	point := geometry.RandomPointWithinRadius(w.rng, targetLoc.X, targetLoc.Y, w.state.Level.SpeechDistance)
	w.scheduleMove(self, point, now)
}

func (w *World) scheduleMove(self *world.Pookie, target geometry.Point, now int64) {
	loc := self.CurrentAction.PositionAt(now)
	dist := geometry.Dist(loc, target)
	travelMillis := geometry.TravelTime(dist, w.state.Level.WalkSpeedPerSecond).Milliseconds()
	start := now + moveStartDelayMillis
	self.CurrentAction = world.Move(loc.X, loc.Y, start, target.X, target.Y, start+travelMillis)
}

func (w *World) resolveInteract(name string, self *world.Pookie, facilityID string, now int64) {
	facility, ok := w.state.Level.Facilities[facilityID]
	if !ok {
		w.failAndIdle(self, fmt.Sprintf("Can't find facility %s anymore.", facilityID), now)
		return
	}
	loc := self.CurrentAction.PositionAt(now)
	if geometry.Distance(loc.X, loc.Y, facility.X, facility.Y) > w.state.Level.FacilityInteractionDistance {
		w.failAndIdle(self, fmt.Sprintf(
			"Can't interact with %s - too far away. Need to move closer first.", facility.DisplayName), now)
		return
	}
	self.Remember(world.Notice(world.ThoughtActionChange,
		fmt.Sprintf("Interacting with %s...", facility.DisplayName), now))
	self.CurrentAction = world.Interact(loc.X, loc.Y, facilityID, facility.InteractionName,
		now, now+facility.InteractionDurationMillis)
}

// resolveHit deals random damage in [25, 50] to a living target within
// speech distance. Health is clamped at zero; a kill puts the target into
// the dead state for a fixed window.
func (w *World) resolveHit(name string, self *world.Pookie, targetName string, now int64) {
	target := w.state.Pookies[targetName]
	if target == nil || !target.Alive() {
		w.failAndIdle(self, fmt.Sprintf("Can't hit %s - they're already dead or gone.", targetName), now)
		return
	}
	selfLoc := self.CurrentAction.PositionAt(now)
	targetLoc := target.CurrentAction.PositionAt(now)
	if geometry.Dist(selfLoc, targetLoc) > w.state.Level.SpeechDistance {
		w.failAndIdle(self, fmt.Sprintf("Can't hit %s - they're too far away.", targetName), now)
		return
	}

	damage := w.rng.Intn(maxDamage-minDamage+1) + minDamage

	self.Remember(world.Thought{Source: world.ThoughtHitSomeone, TargetName: targetName, Damage: damage, TimestampMillis: now})
	target.Remember(world.Thought{Source: world.ThoughtGotHit, ByName: name, Damage: damage, TimestampMillis: now})

	target.Health -= damage
	if target.Health <= 0 {
		target.Health = 0
		target.CurrentAction = world.Dead(targetLoc.X, targetLoc.Y, now, now+deadDurationMillis)
		target.Remember(world.Notice(world.ThoughtActionChange,
			fmt.Sprintf("You died! You were killed by %s.", name), now))
		self.Remember(world.Notice(world.ThoughtActionChange,
			fmt.Sprintf("You killed %s!", targetName), now))
		w.emit("death", targetName, fmt.Sprintf("%s was killed by %s", targetName, name), now)
	} else {
		// Interrupt the target so it reacts to the hit next tick.
		target.CurrentAction = world.Idle(targetLoc.X, targetLoc.Y, now, 0)
	}

	w.emit("combat", name, fmt.Sprintf("%s hit %s for %d damage", name, targetName, damage), now)
	w.reIdle(self, hitCooldownMillis, now)
}

// resolveOfferTrade registers an offer in the ledger, announces it out loud
// to the target, and interrupts the target with zero wait so it reacts on
// the next tick.
func (w *World) resolveOfferTrade(name string, self *world.Pookie, dec oracle.Decision, now int64) {
	target := w.state.Pookies[dec.TargetPookie]
	if target == nil || !target.Alive() {
		w.failAndIdle(self, fmt.Sprintf("Can't trade with %s - they're already dead or gone.", dec.TargetPookie), now)
		return
	}
	selfLoc := self.CurrentAction.PositionAt(now)
	targetLoc := target.CurrentAction.PositionAt(now)
	if geometry.Dist(selfLoc, targetLoc) > w.state.Level.SpeechDistance {
		w.failAndIdle(self, fmt.Sprintf("Can't trade with %s - they're too far away.", dec.TargetPookie), now)
		return
	}
	if !self.Inventory.Has(dec.ItemsOffered) {
		w.failAndIdle(self, "Can't make this trade offer - I don't have enough items.", now)
		return
	}

	offer := w.ledger.Create(name, dec.TargetPookie, dec.ItemsOffered, dec.ItemsRequested, now)

	offerMessage := fmt.Sprintf("%s, I will offer you %s for %s",
		dec.TargetPookie, stacksText(offer.ItemsOffered), stacksText(offer.ItemsRequested))
	self.Remember(world.SelfThought(offerMessage, true, now))

	target.Remember(world.Thought{
		Source:          world.ThoughtTradeOffer,
		OfferID:         offer.ID,
		FromName:        name,
		ItemsOffered:    append([]world.ItemStack(nil), offer.ItemsOffered...),
		ItemsRequested:  append([]world.ItemStack(nil), offer.ItemsRequested...),
		TimestampMillis: now,
	})
	target.Remember(world.Overheard(name, offerMessage, now))
	target.CurrentAction = world.Idle(targetLoc.X, targetLoc.Y, now, 0)

	w.emit("trade", name, fmt.Sprintf("%s offered %s a trade", name, dec.TargetPookie), now)
	w.reIdle(self, tradeActorIdleMillis, now)
}

// resolveAcceptOffer executes a trade after double-validation: the offer
// must exist, be addressed to this pookie, be unexpired, and both sides
// must still hold their items right now. Trades are not reserved, so the
// offerer's inventory is re-checked at acceptance time.
func (w *World) resolveAcceptOffer(name string, self *world.Pookie, offerID string, now int64) {
	offer := w.ledger.Get(offerID)
	if offer == nil || offer.ToPookie != name {
		w.failAndIdle(self, "Can't accept offer - it doesn't exist or isn't for me.", now)
		return
	}
	if offer.Expired(now) {
		w.ledger.Remove(offerID)
		w.failAndIdle(self, "Can't accept offer - it has expired.", now)
		return
	}
	if !self.Inventory.Has(offer.ItemsRequested) {
		// Merely short on items right now; the offer stays open.
		w.failAndIdle(self, "Can't accept offer - I don't have enough items.", now)
		return
	}
	offerer := w.state.Pookies[offer.FromPookie]
	if offerer == nil || !offerer.Inventory.Has(offer.ItemsOffered) {
		w.ledger.Remove(offerID)
		w.failAndIdle(self, fmt.Sprintf("Can't accept offer - %s no longer has the items.", offer.FromPookie), now)
		return
	}

	// Swap both ways atomically within this single owner turn.
	self.Inventory = self.Inventory.Remove(offer.ItemsRequested).Add(offer.ItemsOffered)
	offerer.Inventory = offerer.Inventory.Remove(offer.ItemsOffered).Add(offer.ItemsRequested)
	w.ledger.Remove(offerID)

	acceptLine := "OK, let's trade!"
	self.Remember(world.SelfThought(acceptLine, true, now))
	self.Remember(world.Thought{
		Source:          world.ThoughtTradeCompleted,
		WithName:        offer.FromPookie,
		ItemsGiven:      append([]world.ItemStack(nil), offer.ItemsRequested...),
		ItemsReceived:   append([]world.ItemStack(nil), offer.ItemsOffered...),
		TimestampMillis: now,
	})
	offerer.Remember(world.Overheard(name, acceptLine, now))
	offerer.Remember(world.Thought{
		Source:          world.ThoughtTradeCompleted,
		WithName:        name,
		ItemsGiven:      append([]world.ItemStack(nil), offer.ItemsOffered...),
		ItemsReceived:   append([]world.ItemStack(nil), offer.ItemsRequested...),
		TimestampMillis: now,
	})

	w.emit("trade", name, fmt.Sprintf("%s accepted a trade from %s", name, offer.FromPookie), now)
	w.reIdle(self, tradeActorIdleMillis, now)
}

func (w *World) resolveRejectOffer(name string, self *world.Pookie, offerID string, now int64) {
	offer := w.ledger.Get(offerID)
	if offer == nil || offer.ToPookie != name {
		w.failAndIdle(self, "Can't reject offer - it doesn't exist or isn't for me.", now)
		return
	}
	w.ledger.Remove(offerID)

	rejectLine := "I don't want that"
	self.Remember(world.SelfThought(rejectLine, true, now))

	if offerer := w.state.Pookies[offer.FromPookie]; offerer != nil {
		offerer.Remember(world.Overheard(name, rejectLine, now))
		offerer.Remember(world.Thought{Source: world.ThoughtTradeRejected, ByName: name, TimestampMillis: now})
	}

	w.emit("trade", name, fmt.Sprintf("%s rejected a trade from %s", name, offer.FromPookie), now)
	w.reIdle(self, tradeActorIdleMillis, now)
}

func stacksText(items []world.ItemStack) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%dx %s", it.Amount, it.ItemID)
	}
	return out
}
