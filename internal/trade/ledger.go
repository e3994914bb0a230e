// Package trade holds the in-memory registry of outstanding trade offers.
// Offers are owned by the ledger, not embedded in pookies, and expire 60
// seconds after creation. The ledger is only ever touched from the engine's
// owner goroutine, so it carries no locking of its own.
package trade

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pookielabs/pookieverse/internal/world"
)

// OfferTTLMillis is how long an offer stays acceptable after creation.
const OfferTTLMillis = 60_000

// Offer is a time-limited proposal to exchange inventory items.
type Offer struct {
	ID             string            `json:"id"`
	FromPookie     string            `json:"fromPookieName"`
	ToPookie       string            `json:"toPookieName"`
	ItemsOffered   []world.ItemStack `json:"itemsOffered"`
	ItemsRequested []world.ItemStack `json:"itemsRequested"`
	CreatedMillis  int64             `json:"timestampMillis"`
}

// Expired reports whether the offer is older than the TTL at the given time.
func (o *Offer) Expired(nowMillis int64) bool {
	return nowMillis-o.CreatedMillis > OfferTTLMillis
}

// Ledger is the registry of pending offers keyed by id.
type Ledger struct {
	offers map[string]*Offer
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{offers: make(map[string]*Offer)}
}

// Create registers a new offer and returns it.
func (l *Ledger) Create(from, to string, offered, requested []world.ItemStack, nowMillis int64) *Offer {
	o := &Offer{
		ID:             fmt.Sprintf("trade-%s", uuid.NewString()),
		FromPookie:     from,
		ToPookie:       to,
		ItemsOffered:   offered,
		ItemsRequested: requested,
		CreatedMillis:  nowMillis,
	}
	l.offers[o.ID] = o
	return o
}

// Get returns the offer with the given id, or nil.
func (l *Ledger) Get(id string) *Offer {
	return l.offers[id]
}

// Remove deletes the offer with the given id.
func (l *Ledger) Remove(id string) {
	delete(l.offers, id)
}

// PendingFor returns the unexpired offers addressed to the given pookie.
func (l *Ledger) PendingFor(pookieName string, nowMillis int64) []*Offer {
	var out []*Offer
	for _, o := range l.offers {
		if o.ToPookie == pookieName && !o.Expired(nowMillis) {
			out = append(out, o)
		}
	}
	return out
}

// PruneExpired drops every offer past its TTL and returns how many were
// removed.
func (l *Ledger) PruneExpired(nowMillis int64) int {
	n := 0
	for id, o := range l.offers {
		if o.Expired(nowMillis) {
			delete(l.offers, id)
			n++
		}
	}
	return n
}

// Len returns the number of offers currently held, expired or not.
func (l *Ledger) Len() int {
	return len(l.offers)
}
