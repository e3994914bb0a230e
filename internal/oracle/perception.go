// Package oracle wraps the external decision oracle (an LLM): it renders a
// perception snapshot into a prompt, calls the model, and validates the
// returned decision against the closed set of action kinds and the entities
// visible in the snapshot. Every failure mode — transport error, malformed
// payload, unknown kind, dangling reference — collapses to a safe idle
// fallback; the engine never sees an oracle problem as anything else.
package oracle

import "github.com/pookielabs/pookieverse/internal/world"

// Perception is everything a pookie knows at decision time. It is built by
// the engine when the pookie enters the thinking state and is never re-read
// afterwards, so validation must be resolvable from this snapshot alone.
type Perception struct {
	PookieName  string
	Personality string
	WorldPrompt string

	Health int
	Food   int
	X, Y   float64

	Inventory world.Inventory
	Thoughts  []world.Thought

	Others        []OtherPookie
	Facilities    []FacilitySight
	PendingOffers []OfferSight
}

// OtherPookie is another agent as seen in the snapshot.
type OtherPookie struct {
	Name         string
	X, Y         float64
	Dead         bool
	WithinSpeech bool
}

// FacilitySight is a facility as seen in the snapshot.
type FacilitySight struct {
	ID                string
	DisplayName       string
	X, Y              float64
	Distance          float64
	CanInteract       bool
	InteractionPrompt string
}

// OfferSight is a pending trade offer addressed to the perceiving pookie.
type OfferSight struct {
	OfferID        string
	FromPookie     string
	ItemsOffered   []world.ItemStack
	ItemsRequested []world.ItemStack
}

// facilityIDs returns the set of facility ids visible in the snapshot.
func (p *Perception) facilityIDs() map[string]bool {
	out := make(map[string]bool, len(p.Facilities))
	for _, f := range p.Facilities {
		out[f.ID] = true
	}
	return out
}

// otherNames returns the set of other pookie names visible in the snapshot.
func (p *Perception) otherNames() map[string]bool {
	out := make(map[string]bool, len(p.Others))
	for _, o := range p.Others {
		out[o.Name] = true
	}
	return out
}
