package oracle

import (
	"fmt"
	"unicode/utf8"

	"github.com/pookielabs/pookieverse/internal/world"
)

// Kind is one of the closed set of decision kinds the oracle may return.
type Kind string

const (
	KindIdle           Kind = "idle"
	KindSay            Kind = "say"
	KindMoveToFacility Kind = "move-to-facility"
	KindMoveToPookie   Kind = "move-to-pookie"
	KindInteract       Kind = "interact-with-facility"
	KindHitPookie      Kind = "hit-pookie"
	KindOfferTrade     Kind = "offer-trade"
	KindAcceptOffer    Kind = "accept-offer"
	KindRejectOffer    Kind = "reject-offer"
)

// Bounds applied during validation.
const (
	MinIdleSeconds   = 1
	MaxIdleSeconds   = 20
	MaxMessageLength = 200
)

// Decision is a validated next action for one pookie. Kind selects which of
// the remaining fields are meaningful. Thought is a free-text rationale used
// only for the pookie's memory log.
type Decision struct {
	Kind    Kind   `json:"type"`
	Thought string `json:"thought,omitempty"`

	Seconds        int               `json:"seconds,omitempty"`          // idle
	Message        string            `json:"message,omitempty"`          // say
	FacilityID     string            `json:"facilityId,omitempty"`       // move-to-facility, interact-with-facility
	PookieName     string            `json:"pookieName,omitempty"`       // move-to-pookie
	TargetPookie   string            `json:"targetPookieName,omitempty"` // hit-pookie, offer-trade
	ItemsOffered   []world.ItemStack `json:"itemsOffered,omitempty"`     // offer-trade
	ItemsRequested []world.ItemStack `json:"itemsRequested,omitempty"`   // offer-trade
	OfferID        string            `json:"offerId,omitempty"`          // accept-offer, reject-offer
}

// FallbackSeconds is the idle duration used whenever the oracle fails.
const FallbackSeconds = 3

// Fallback is the safe decision substituted for any oracle failure or
// invalid response.
func Fallback() Decision {
	return Decision{
		Kind:    KindIdle,
		Seconds: FallbackSeconds,
		Thought: "Guess I thought something that didn't make sense. Pookieverse glitch!",
	}
}

// Truncate cuts s to at most max bytes, backing up so the cut never splits
// a UTF-8 rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Validate checks a raw decision against the perception snapshot it was made
// from, clamping numeric fields into range. References to facilities or
// pookies not visible in the snapshot are rejected; the caller substitutes
// Fallback() for any error.
func Validate(d Decision, p *Perception) (Decision, error) {
	switch d.Kind {
	case KindIdle:
		if d.Seconds < MinIdleSeconds {
			d.Seconds = MinIdleSeconds
		}
		if d.Seconds > MaxIdleSeconds {
			d.Seconds = MaxIdleSeconds
		}
		return d, nil

	case KindSay:
		if d.Message == "" {
			return d, fmt.Errorf("say decision has empty message")
		}
		d.Message = Truncate(d.Message, MaxMessageLength)
		return d, nil

	case KindMoveToFacility, KindInteract:
		if !p.facilityIDs()[d.FacilityID] {
			return d, fmt.Errorf("unknown facility %q", d.FacilityID)
		}
		return d, nil

	case KindMoveToPookie:
		if !p.otherNames()[d.PookieName] {
			return d, fmt.Errorf("unknown pookie %q", d.PookieName)
		}
		return d, nil

	case KindHitPookie:
		if !p.otherNames()[d.TargetPookie] {
			return d, fmt.Errorf("unknown pookie %q", d.TargetPookie)
		}
		return d, nil

	case KindOfferTrade:
		if !p.otherNames()[d.TargetPookie] {
			return d, fmt.Errorf("unknown pookie %q", d.TargetPookie)
		}
		if len(d.ItemsOffered) == 0 || len(d.ItemsRequested) == 0 {
			return d, fmt.Errorf("trade offer with empty item lists")
		}
		for _, it := range append(append([]world.ItemStack(nil), d.ItemsOffered...), d.ItemsRequested...) {
			if it.ItemID == "" || it.Amount <= 0 {
				return d, fmt.Errorf("trade offer with invalid stack %+v", it)
			}
		}
		return d, nil

	case KindAcceptOffer, KindRejectOffer:
		if d.OfferID == "" {
			return d, fmt.Errorf("%s decision with empty offer id", d.Kind)
		}
		return d, nil

	default:
		return d, fmt.Errorf("unknown decision kind %q", d.Kind)
	}
}
