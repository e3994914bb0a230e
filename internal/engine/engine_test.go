package engine

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pookielabs/pookieverse/internal/level"
	"github.com/pookielabs/pookieverse/internal/oracle"
	"github.com/pookielabs/pookieverse/internal/world"
)

type scriptedDecider struct {
	dec oracle.Decision
	err error
}

func (d *scriptedDecider) Decide(p *oracle.Perception) (oracle.Decision, error) {
	return d.dec, d.err
}

const testStart = int64(1_000_000)

func newTestWorld(t *testing.T, lvl *level.Level) *World {
	t.Helper()
	if lvl == nil {
		lvl = level.Default()
	}
	w, err := New(Config{
		ID:        "test-world",
		Level:     lvl,
		Decider:   &scriptedDecider{dec: oracle.Fallback()},
		Seed:      42,
		NowMillis: testStart,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

// addPookie places a pookie directly into state, idling at (x, y) with no
// minimum idle time. Tests drive the owner methods synchronously instead of
// going through Run.
func addPookie(w *World, name string, x, y float64) *world.Pookie {
	p := &world.Pookie{
		Personality:   "You are a test pookie.",
		CurrentAction: world.Idle(x, y, testStart, 0),
		Health:        world.MaxHealth,
		Food:          world.MaxFood,
	}
	w.state.Pookies[name] = p
	return p
}

func TestJoinCapacityAndStartingInventory(t *testing.T) {
	lvl := level.Default()
	w := newTestWorld(t, lvl)

	names := map[string]bool{}
	for i := 0; i < lvl.MaxPookies; i++ {
		name, err := w.join(testStart)
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		if names[name] {
			t.Fatalf("duplicate name %q", name)
		}
		names[name] = true

		p := w.state.Pookies[name]
		if p.Health != world.MaxHealth || p.Food != world.MaxFood {
			t.Fatalf("new pookie health/food = %d/%d", p.Health, p.Food)
		}
		for itemID := range lvl.ItemTypes {
			if p.Inventory.Count(itemID) != 1 {
				t.Fatalf("new pookie holds %d of %q, want 1", p.Inventory.Count(itemID), itemID)
			}
		}
		loc := p.CurrentAction.PositionAt(testStart)
		if loc.X < 0 || loc.X > lvl.Width || loc.Y < 0 || loc.Y > lvl.Height {
			t.Fatalf("spawn point (%g, %g) outside level", loc.X, loc.Y)
		}
	}

	if _, err := w.join(testStart); err != ErrWorldFull {
		t.Fatalf("join over capacity: got %v, want ErrWorldFull", err)
	}
}

func TestStaleDecisionDiscardedButThoughtKept(t *testing.T) {
	w := newTestWorld(t, nil)
	p := addPookie(w, "Pookieboo", 50, 50)
	p.CurrentAction = world.Thinking(50, 50, testStart, 7)

	dec := oracle.Decision{Kind: oracle.KindSay, Thought: "stale rationale", Message: "hello?"}
	w.applyDecision("Pookieboo", 6, &oracle.Perception{}, dec, testStart+100)

	if p.CurrentAction.Type != world.ActionThinking || p.CurrentAction.Generation != 7 {
		t.Fatalf("stale decision mutated action: %+v", p.CurrentAction)
	}
	last := p.Thoughts[len(p.Thoughts)-1]
	if last.Source != world.ThoughtSelf || last.Text != "stale rationale" || last.SpokenLoudly {
		t.Fatalf("rationale not logged as quiet self thought: %+v", last)
	}
}

func TestIdleDecisionSetsMinimumWindow(t *testing.T) {
	w := newTestWorld(t, nil)
	p := addPookie(w, "Pookieboo", 50, 50)
	p.CurrentAction = world.Thinking(50, 50, testStart, 1)

	dec := oracle.Decision{Kind: oracle.KindIdle, Seconds: 8, Thought: "resting"}
	w.applyDecision("Pookieboo", 1, &oracle.Perception{}, dec, testStart+100)

	a := p.CurrentAction
	if a.Type != world.ActionIdle || a.MinIdleDurationMillis != 8_000 {
		t.Fatalf("idle action = %+v, want 8000ms idle", a)
	}
	last := p.Thoughts[len(p.Thoughts)-1]
	if last.Text != "Idling for 8 seconds." {
		t.Fatalf("idle notice = %q", last.Text)
	}
}

func TestSayInterruptsNearbyListenersOnly(t *testing.T) {
	lvl := level.Default() // speech distance 80
	w := newTestWorld(t, lvl)
	speaker := addPookie(w, "Pookieboo", 100, 100)
	near := addPookie(w, "Snugglewump", 150, 100)   // 50 away
	edge := addPookie(w, "Wigglesworth", 180, 100)  // exactly 80 away
	far := addPookie(w, "Puddington", 300, 100)     // 200 away
	dead := addPookie(w, "Bumblesnoot", 110, 100)   // nearby but dead
	dead.Health = 0
	dead.CurrentAction = world.Dead(110, 100, testStart, testStart+deadDurationMillis)

	speaker.CurrentAction = world.Thinking(100, 100, testStart, 3)
	now := testStart + 500
	dec := oracle.Decision{Kind: oracle.KindSay, Message: "berries by the bush!", Thought: "sharing"}
	w.applyDecision("Pookieboo", 3, &oracle.Perception{}, dec, now)

	if speaker.CurrentAction.MinIdleDurationMillis != speakerIdleMillis {
		t.Fatalf("speaker idle = %d, want %d", speaker.CurrentAction.MinIdleDurationMillis, speakerIdleMillis)
	}
	spoken := speaker.Thoughts[len(speaker.Thoughts)-1]
	if spoken.Source != world.ThoughtSelf || !spoken.SpokenLoudly {
		t.Fatalf("speech not logged loudly: %+v", spoken)
	}

	for _, listener := range []*world.Pookie{near, edge} {
		heard := listener.Thoughts[len(listener.Thoughts)-1]
		if heard.Source != world.ThoughtSomeoneElseSaid || heard.SayerName != "Pookieboo" {
			t.Fatalf("listener missed speech: %+v", heard)
		}
		if listener.CurrentAction.MinIdleDurationMillis != listenerIdleMillis {
			t.Fatalf("listener idle = %d, want %d", listener.CurrentAction.MinIdleDurationMillis, listenerIdleMillis)
		}
	}

	if len(far.Thoughts) != 0 {
		t.Fatalf("out-of-range pookie overheard: %+v", far.Thoughts)
	}
	if dead.CurrentAction.Type != world.ActionDead {
		t.Fatalf("dead pookie interrupted by speech: %+v", dead.CurrentAction)
	}
}

func TestMoveToFacilityTravelTime(t *testing.T) {
	lvl := level.Default()
	lvl.WalkSpeedPerSecond = 10
	lvl.FacilityInteractionDistance = 5
	lvl.Facilities = map[string]level.Facility{
		"facility-well": {
			X: 100, Y: 0,
			DisplayName:               "Water Well",
			InteractionName:           "drink",
			InteractionDurationMillis: 5000,
		},
	}
	w := newTestWorld(t, lvl)
	p := addPookie(w, "Pookieboo", 0, 0)
	p.CurrentAction = world.Thinking(0, 0, testStart, 1)

	now := testStart + 200
	dec := oracle.Decision{Kind: oracle.KindMoveToFacility, FacilityID: "facility-well", Thought: "thirsty"}
	w.applyDecision("Pookieboo", 1, &oracle.Perception{}, dec, now)

	a := p.CurrentAction
	if a.Type != world.ActionMove {
		t.Fatalf("action = %+v, want move", a)
	}
	if a.StartMillis != now+moveStartDelayMillis {
		t.Fatalf("move starts at %d, want %d", a.StartMillis, now+moveStartDelayMillis)
	}

	dist := math.Hypot(a.EndX-a.StartX, a.EndY-a.StartY)
	if dist < 95 || dist > 105 {
		t.Fatalf("target %g units away, want within 5 of the well at 100", dist)
	}
	wantMillis := int64(dist / 10 * 1000)
	gotMillis := a.EndMillis - a.StartMillis
	if diff := gotMillis - wantMillis; diff < -1 || diff > 1 {
		t.Fatalf("travel time %dms, want %dms", gotMillis, wantMillis)
	}
}

func TestInteractRequiresProximity(t *testing.T) {
	lvl := level.Default()
	w := newTestWorld(t, lvl)
	p := addPookie(w, "Pookieboo", 500, 500) // far from every facility
	p.CurrentAction = world.Thinking(500, 500, testStart, 1)

	dec := oracle.Decision{Kind: oracle.KindInteract, FacilityID: "facility-well", Thought: "thirsty"}
	w.applyDecision("Pookieboo", 1, &oracle.Perception{}, dec, testStart+100)

	if p.CurrentAction.Type != world.ActionIdle {
		t.Fatalf("distant interact should re-idle, got %+v", p.CurrentAction)
	}
	last := p.Thoughts[len(p.Thoughts)-1]
	if last.Source != world.ThoughtActionChange || last.Text != "Can't interact with Water Well - too far away. Need to move closer first." {
		t.Fatalf("failure notice = %+v", last)
	}
}

func TestInteractCompletionGrantsItem(t *testing.T) {
	lvl := level.Default()
	w := newTestWorld(t, lvl)
	well := lvl.Facilities["facility-well"]
	p := addPookie(w, "Pookieboo", well.X, well.Y)
	p.CurrentAction = world.Thinking(well.X, well.Y, testStart, 1)

	dec := oracle.Decision{Kind: oracle.KindInteract, FacilityID: "facility-well", Thought: "thirsty"}
	w.applyDecision("Pookieboo", 1, &oracle.Perception{}, dec, testStart)

	a := p.CurrentAction
	if a.Type != world.ActionInteract || a.UntilMillis != testStart+well.InteractionDurationMillis {
		t.Fatalf("interact action = %+v", a)
	}

	before := p.Inventory.Total()
	w.tick(a.UntilMillis + 1)

	if p.CurrentAction.Type != world.ActionIdle {
		t.Fatalf("interaction did not complete: %+v", p.CurrentAction)
	}
	if p.Inventory.Total() != before+1 {
		t.Fatalf("inventory total %d, want %d", p.Inventory.Total(), before+1)
	}
	last := p.Thoughts[len(p.Thoughts)-1]
	if last.Source != world.ThoughtFacility {
		t.Fatalf("no facility notice: %+v", last)
	}
}

func TestMoveCompletionIdlesAtEndpoint(t *testing.T) {
	w := newTestWorld(t, nil)
	p := addPookie(w, "Pookieboo", 0, 0)
	p.CurrentAction = world.Move(0, 0, testStart, 60, 80, testStart+2000)

	w.tick(testStart + 2001)

	a := p.CurrentAction
	if a.Type != world.ActionIdle || a.X != 60 || a.Y != 80 {
		t.Fatalf("after move completion: %+v", a)
	}
	if a.MinIdleDurationMillis != reIdleMillis {
		t.Fatalf("post-move idle = %d, want %d", a.MinIdleDurationMillis, reIdleMillis)
	}
}

func TestHitDamageBoundsAndDeath(t *testing.T) {
	w := newTestWorld(t, nil)
	attacker := addPookie(w, "Pookieboo", 100, 100)
	victim := addPookie(w, "Snugglewump", 120, 100)

	now := testStart
	for i := 0; victim.Alive(); i++ {
		if i > 10 {
			t.Fatalf("victim survived %d max-damage-bounded hits from full health", i)
		}
		before := victim.Health
		attacker.CurrentAction = world.Thinking(100, 100, now, uint64(i+1))
		dec := oracle.Decision{Kind: oracle.KindHitPookie, TargetPookie: "Snugglewump", Thought: "grr"}
		w.applyDecision("Pookieboo", uint64(i+1), &oracle.Perception{}, dec, now)

		dealt := before - victim.Health
		if victim.Health > 0 && (dealt < minDamage || dealt > maxDamage) {
			t.Fatalf("hit %d dealt %d damage, want [%d, %d]", i, dealt, minDamage, maxDamage)
		}
		if victim.Health < 0 {
			t.Fatalf("health went negative: %d", victim.Health)
		}
		now += hitCooldownMillis + 1
	}

	if victim.CurrentAction.Type != world.ActionDead {
		t.Fatalf("dead victim action = %+v", victim.CurrentAction)
	}
	if victim.CurrentAction.UntilMillis-victim.CurrentAction.DiedAtMillis != deadDurationMillis {
		t.Fatalf("dead window = %d", victim.CurrentAction.UntilMillis-victim.CurrentAction.DiedAtMillis)
	}

	// A dead pookie cannot be hit again.
	attacker.CurrentAction = world.Thinking(100, 100, now, 99)
	dec := oracle.Decision{Kind: oracle.KindHitPookie, TargetPookie: "Snugglewump", Thought: "again"}
	w.applyDecision("Pookieboo", 99, &oracle.Perception{}, dec, now)
	if victim.Health != 0 || victim.CurrentAction.Type != world.ActionDead {
		t.Fatalf("dead victim was hit again: health=%d action=%+v", victim.Health, victim.CurrentAction)
	}
	last := attacker.Thoughts[len(attacker.Thoughts)-1]
	if last.Source != world.ThoughtActionChange {
		t.Fatalf("attacker got no failure notice: %+v", last)
	}
}

func TestHitOutOfRangeFails(t *testing.T) {
	w := newTestWorld(t, nil)
	attacker := addPookie(w, "Pookieboo", 0, 0)
	victim := addPookie(w, "Snugglewump", 500, 400)

	attacker.CurrentAction = world.Thinking(0, 0, testStart, 1)
	dec := oracle.Decision{Kind: oracle.KindHitPookie, TargetPookie: "Snugglewump", Thought: "grr"}
	w.applyDecision("Pookieboo", 1, &oracle.Perception{}, dec, testStart)

	if victim.Health != world.MaxHealth {
		t.Fatalf("out-of-range hit landed: health = %d", victim.Health)
	}
	if attacker.CurrentAction.Type != world.ActionIdle {
		t.Fatalf("attacker should re-idle after failed hit: %+v", attacker.CurrentAction)
	}
}

func TestRespawnAfterDeadWindow(t *testing.T) {
	w := newTestWorld(t, nil)
	p := addPookie(w, "Pookieboo", 100, 100)
	p.Health = 0
	p.Inventory = world.Inventory{{ID: "berries", Amount: 2}}
	p.CurrentAction = world.Dead(100, 100, testStart, testStart+deadDurationMillis)

	w.tick(testStart + deadDurationMillis)
	if p.CurrentAction.Type != world.ActionDead {
		t.Fatalf("respawned before window elapsed: %+v", p.CurrentAction)
	}

	w.tick(testStart + deadDurationMillis + 1)
	if p.CurrentAction.Type != world.ActionIdle {
		t.Fatalf("did not respawn: %+v", p.CurrentAction)
	}
	if p.Health != world.MaxHealth {
		t.Fatalf("respawn health = %d", p.Health)
	}
	if p.Inventory.Count("berries") != 2 {
		t.Fatalf("respawn lost inventory: %+v", p.Inventory)
	}
}

func TestGuardianAngelMessageInterruptsLivingOnly(t *testing.T) {
	w := newTestWorld(t, nil)
	alive := addPookie(w, "Pookieboo", 100, 100)
	alive.CurrentAction = world.Move(100, 100, testStart, 200, 200, testStart+5000)
	dead := addPookie(w, "Snugglewump", 150, 150)
	dead.Health = 0
	dead.CurrentAction = world.Dead(150, 150, testStart, testStart+deadDurationMillis)

	if err := w.guardianMessage("Pookieboo", "go drink some water", testStart+1000); err != nil {
		t.Fatalf("guardianMessage: %v", err)
	}
	if alive.CurrentAction.Type != world.ActionIdle {
		t.Fatalf("living pookie not interrupted: %+v", alive.CurrentAction)
	}
	last := alive.Thoughts[len(alive.Thoughts)-1]
	if last.Source != world.ThoughtGuardianAngel || last.Text != "go drink some water" {
		t.Fatalf("guardian thought = %+v", last)
	}

	if err := w.guardianMessage("Snugglewump", "wake up", testStart+1000); err != nil {
		t.Fatalf("guardianMessage to dead pookie: %v", err)
	}
	if dead.CurrentAction.Type != world.ActionDead {
		t.Fatalf("dead pookie interrupted by guardian: %+v", dead.CurrentAction)
	}
	kept := dead.Thoughts[len(dead.Thoughts)-1]
	if kept.Source != world.ThoughtGuardianAngel {
		t.Fatalf("dead pookie lost guardian advice: %+v", kept)
	}

	if err := w.guardianMessage("Nobody", "hi", testStart); err != ErrPookieNotFound {
		t.Fatalf("unknown pookie: got %v, want ErrPookieNotFound", err)
	}
}

func TestDispatchWaitsForMinimumIdle(t *testing.T) {
	w := newTestWorld(t, nil)
	p := addPookie(w, "Pookieboo", 100, 100)
	p.CurrentAction = world.Idle(100, 100, testStart, 5_000)

	w.dispatchDecisions(testStart + 5_000)
	if p.CurrentAction.Type != world.ActionIdle {
		t.Fatalf("dispatched before minimum idle elapsed: %+v", p.CurrentAction)
	}

	w.dispatchDecisions(testStart + 5_001)
	if p.CurrentAction.Type != world.ActionThinking {
		t.Fatalf("not dispatched after minimum idle: %+v", p.CurrentAction)
	}
	if p.CurrentAction.Generation == 0 {
		t.Fatalf("thinking without a generation: %+v", p.CurrentAction)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	w := newTestWorld(t, nil)
	p := addPookie(w, "Pookieboo", 100, 100)
	p.Inventory = world.Inventory{{ID: "berries", Amount: 1}}

	snap := w.state.Clone()
	snap.Pookies["Pookieboo"].Inventory[0].Amount = 99
	snap.Pookies["Pookieboo"].Remember(world.SelfThought("tampered", false, testStart))

	if p.Inventory[0].Amount != 1 {
		t.Fatalf("snapshot mutation leaked into live inventory: %+v", p.Inventory)
	}
	if len(p.Thoughts) != 0 {
		t.Fatalf("snapshot mutation leaked into live thoughts: %+v", p.Thoughts)
	}
}

func TestBroadcastCoalescesBurstIntoOneSnapshot(t *testing.T) {
	w, err := New(Config{
		ID:           "test-world",
		Level:        level.Default(),
		Decider:      &scriptedDecider{dec: oracle.Fallback()},
		Seed:         42,
		TickInterval: time.Hour,
		NowMillis:    testStart,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go w.Run()
	t.Cleanup(w.Stop)

	var mu sync.Mutex
	var snaps []*world.State
	sub := w.Subscribe(func(s *world.State) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	// Three mutations in a single owner turn. Each schedules a
	// notification; the window should collapse them into one.
	var joined string
	w.do(func(now int64) {
		joined, err = w.join(now)
		w.guardianMessage(joined, "find the well", now)
		w.guardianMessage(joined, "drink some water", now)
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	waitForBroadcasts(t, &mu, &snaps, 1)
	time.Sleep(100 * time.Millisecond) // several extra debounce windows

	mu.Lock()
	if len(snaps) != 1 {
		mu.Unlock()
		t.Fatalf("broadcasts = %d, want 1 for a coalesced burst", len(snaps))
	}
	p := snaps[0].Pookies[joined]
	mu.Unlock()
	if p == nil {
		t.Fatalf("broadcast snapshot missing %q", joined)
	}
	advice := 0
	for _, th := range p.Thoughts {
		if th.Source == world.ThoughtGuardianAngel {
			advice++
		}
	}
	if advice != 2 {
		t.Fatalf("snapshot has %d guardian thoughts, want the full burst of 2", advice)
	}

	// A later mutation opens a fresh window and broadcasts again.
	w.do(func(now int64) {
		w.guardianMessage(joined, "now rest", now)
	})
	waitForBroadcasts(t, &mu, &snaps, 2)
}

func waitForBroadcasts(t *testing.T, mu *sync.Mutex, snaps *[]*world.State, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(*snaps)
		mu.Unlock()
		if n >= want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("saw %d broadcasts, want %d", n, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPerceptionTrimsMemoryWindow(t *testing.T) {
	w := newTestWorld(t, nil)
	p := addPookie(w, "Pookieboo", 100, 100)
	total := oracle.MaxPromptThoughts + 20
	for i := 0; i < total; i++ {
		p.Remember(world.SelfThought(fmt.Sprintf("thought %d", i), false, testStart+int64(i)))
	}

	perc := w.buildPerception("Pookieboo", testStart+int64(total))
	if len(perc.Thoughts) != oracle.MaxPromptThoughts {
		t.Fatalf("perception carries %d thoughts, want %d", len(perc.Thoughts), oracle.MaxPromptThoughts)
	}
	if got, want := perc.Thoughts[0].Text, fmt.Sprintf("thought %d", total-oracle.MaxPromptThoughts); got != want {
		t.Fatalf("window start = %q, want %q (newest thoughts kept)", got, want)
	}
	if got, want := perc.Thoughts[len(perc.Thoughts)-1].Text, fmt.Sprintf("thought %d", total-1); got != want {
		t.Fatalf("window end = %q, want %q", got, want)
	}
}
