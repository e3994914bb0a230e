package engine

import (
	"sort"

	"github.com/pookielabs/pookieverse/internal/geometry"
	"github.com/pookielabs/pookieverse/internal/oracle"
	"github.com/pookielabs/pookieverse/internal/world"
)

// buildPerception captures everything the pookie can know at this instant:
// its own memory, every other pookie's interpolated position and whether it
// is within speech distance, per-facility interaction eligibility, and the
// pending trade offers addressed to it. The result is self-contained; the
// decision task never reads live state.
func (w *World) buildPerception(name string, now int64) *oracle.Perception {
	self := w.state.Pookies[name]
	selfLoc := self.CurrentAction.PositionAt(now)
	lvl := w.state.Level

	p := &oracle.Perception{
		PookieName:  name,
		Personality: self.Personality,
		WorldPrompt: lvl.WorldPrompt,
		Health:      self.Health,
		Food:        self.Food,
		X:           selfLoc.X,
		Y:           selfLoc.Y,
		Inventory:   append(world.Inventory(nil), self.Inventory...),
	}
	p.Thoughts = append([]world.Thought(nil), self.RecentThoughts(oracle.MaxPromptThoughts)...)

	otherNames := make([]string, 0, len(w.state.Pookies))
	for otherName := range w.state.Pookies {
		if otherName != name {
			otherNames = append(otherNames, otherName)
		}
	}
	sort.Strings(otherNames)
	for _, otherName := range otherNames {
		other := w.state.Pookies[otherName]
		loc := other.CurrentAction.PositionAt(now)
		p.Others = append(p.Others, oracle.OtherPookie{
			Name:         otherName,
			X:            loc.X,
			Y:            loc.Y,
			Dead:         !other.Alive(),
			WithinSpeech: geometry.Distance(selfLoc.X, selfLoc.Y, loc.X, loc.Y) <= lvl.SpeechDistance,
		})
	}

	facilityIDs := make([]string, 0, len(lvl.Facilities))
	for id := range lvl.Facilities {
		facilityIDs = append(facilityIDs, id)
	}
	sort.Strings(facilityIDs)
	for _, id := range facilityIDs {
		f := lvl.Facilities[id]
		dist := geometry.Distance(selfLoc.X, selfLoc.Y, f.X, f.Y)
		p.Facilities = append(p.Facilities, oracle.FacilitySight{
			ID:                id,
			DisplayName:       f.DisplayName,
			X:                 f.X,
			Y:                 f.Y,
			Distance:          dist,
			CanInteract:       dist <= lvl.FacilityInteractionDistance,
			InteractionPrompt: f.InteractionPrompt,
		})
	}

	for _, o := range w.ledger.PendingFor(name, now) {
		p.PendingOffers = append(p.PendingOffers, oracle.OfferSight{
			OfferID:        o.ID,
			FromPookie:     o.FromPookie,
			ItemsOffered:   append([]world.ItemStack(nil), o.ItemsOffered...),
			ItemsRequested: append([]world.ItemStack(nil), o.ItemsRequested...),
		})
	}

	return p
}
