package oracle

import (
	"fmt"
	"strings"

	"github.com/pookielabs/pookieverse/internal/world"
)

// MaxPromptThoughts is how much of a pookie's memory fits in one prompt.
// The perception builder trims the thought log to this many entries.
const MaxPromptThoughts = 60

// BuildPrompt renders a perception snapshot into the user prompt handed to
// the model.
func BuildPrompt(p *Perception) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a pookie in the Pookieverse. Your name is %s. %s\n\n", p.PookieName, p.Personality)
	if p.WorldPrompt != "" {
		fmt.Fprintf(&b, "%s\n\n", p.WorldPrompt)
	}
	fmt.Fprintf(&b, "Health: %d/100. Food: %d/100.\n\n", p.Health, p.Food)
	fmt.Fprintf(&b, "You are currently idle at %.1f, %.1f.\n\n", p.X, p.Y)

	if len(p.Inventory) == 0 {
		b.WriteString("Your inventory is empty.\n\n")
	} else {
		items := make([]string, 0, len(p.Inventory))
		for _, it := range p.Inventory {
			items = append(items, fmt.Sprintf("%dx %s", it.Amount, it.ID))
		}
		fmt.Fprintf(&b, "You have the following inventory: %s.\n\n", strings.Join(items, ", "))
	}

	b.WriteString("You have a guardian angel. It can see what happens around you and tries to be helpful. " +
		"No one else can see or hear your guardian angel. Usually you should listen to your guardian angel, " +
		"but if you feel like your guardian angel has been giving you bad advice, you can start ignoring it. " +
		"It will be clear when your guardian angel is talking to you; don't hallucinate it.\n\n")

	b.WriteString("Here are all the pookies in the Pookieverse:\n")
	for _, o := range p.Others {
		status := "They are too far away from you to hear you or trade right now."
		if o.Dead {
			status = "They are dead."
		} else if o.WithinSpeech {
			status = "They can hear you if you say something, and you can trade with them."
		}
		fmt.Fprintf(&b, "- %s is at %.1f, %.1f. %s\n", o.Name, o.X, o.Y, status)
	}
	b.WriteString("\n")

	b.WriteString("Here are all the facilities in the Pookieverse:\n")
	for _, f := range p.Facilities {
		reach := "Too far - move closer first."
		if f.CanInteract {
			reach = "You can interact with it now!"
		}
		fmt.Fprintf(&b, "- %s (id: %s) is at %.1f, %.1f (%.1f units away). %s Interaction: %q\n",
			f.DisplayName, f.ID, f.X, f.Y, f.Distance, reach, f.InteractionPrompt)
	}
	b.WriteString("\n")

	if len(p.PendingOffers) == 0 {
		b.WriteString("You have no pending trade offers.\n\n")
	} else {
		b.WriteString("You have the following pending trade offers:\n")
		for _, o := range p.PendingOffers {
			fmt.Fprintf(&b, "- Offer ID %q from %s: They offer %s for your %s\n",
				o.OfferID, o.FromPookie, stacksText(o.ItemsOffered), stacksText(o.ItemsRequested))
		}
		b.WriteString("\n")
	}

	b.WriteString(responseFormatInstructions)

	b.WriteString("\nIf you have previously thought or said something already, don't repeat yourself. " +
		"Say something new, or try something different.\n\nBelow is your memory:\n\n")
	for _, t := range p.Thoughts {
		fmt.Fprintf(&b, "- %s\n", thoughtText(t))
	}

	return b.String()
}

const responseFormatInstructions = `You MUST respond with ONLY a valid JSON object (no markdown, no explanation) in one of these formats:
- {"type": "idle", "seconds": <number between 5-20>, "thought": "<short reasoning, max 1 sentence>"} - Stay idle for a few seconds, then think again. If a pookie or guardian angel talks to you during this time, you will be interrupted. You almost never want to just randomly idle; it's better to walk around or talk to other pookies.
- {"type": "say", "message": "<short message, max 1 sentence>", "thought": "<short reasoning, max 1 sentence>"} - Pookies near you will hear you and be able to interact with you.
- {"type": "move-to-facility", "facilityId": "<facility id>", "thought": "<short reasoning, max 1 sentence>"} - Move to a facility.
- {"type": "move-to-pookie", "pookieName": "<pookie name>", "thought": "<short reasoning, max 1 sentence>"} - Move to a different pookie.
- {"type": "interact-with-facility", "facilityId": "<facility id>", "thought": "<short reasoning, max 1 sentence>"} - Interact with a nearby facility. You must be close enough. After interacting, you will receive a random item!
- {"type": "hit-pookie", "targetPookieName": "<pookie name>", "thought": "<short reasoning, max 1 sentence>"} - Hit another pookie within speech distance! Only do this if you have a very good reason.
- {"type": "offer-trade", "targetPookieName": "<pookie name>", "itemsOffered": [{"itemId": "<item>", "amount": <num>}], "itemsRequested": [{"itemId": "<item>", "amount": <num>}], "thought": "<reasoning>"} - Offer a trade to a pookie within speech distance. You must have the items you're offering.
- {"type": "accept-offer", "offerId": "<offer id>", "thought": "<reasoning>"} - Accept a pending trade offer. You must have the items requested.
- {"type": "reject-offer", "offerId": "<offer id>", "thought": "<reasoning>"} - Reject a pending trade offer.

IMPORTANT: If you are close enough to a facility, you should strongly consider using "interact-with-facility" to get a free item! Moving around and interacting with facilities is very valuable. If there are many pookies nearby, you might want to walk somewhere else (you don't like crowds). However, if someone actively talks to you, you should respond.
`

func stacksText(items []world.ItemStack) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Amount, it.ItemID))
	}
	return strings.Join(parts, ", ")
}

// thoughtText renders one memory entry as a line of prompt text.
func thoughtText(t world.Thought) string {
	switch t.Source {
	case world.ThoughtSelf:
		verb := "thought"
		if t.SpokenLoudly {
			verb = "said"
		}
		return fmt.Sprintf("You %s: %q", verb, t.Text)
	case world.ThoughtGuardianAngel:
		return fmt.Sprintf("Your guardian angel said: %s", t.Text)
	case world.ThoughtActionChange:
		return fmt.Sprintf("Action update: %s", t.Text)
	case world.ThoughtFacility:
		return fmt.Sprintf("Facility update: %s", t.Text)
	case world.ThoughtSomeoneElseSaid:
		return fmt.Sprintf("%s said: %q", t.SayerName, t.Text)
	case world.ThoughtTradeOffer:
		return fmt.Sprintf("Trade offer (ID: %s) from %s: They offer %s for your %s",
			t.OfferID, t.FromName, stacksText(t.ItemsOffered), stacksText(t.ItemsRequested))
	case world.ThoughtTradeCompleted:
		return fmt.Sprintf("Trade completed with %s: You gave %s and received %s",
			t.WithName, stacksText(t.ItemsGiven), stacksText(t.ItemsReceived))
	case world.ThoughtTradeRejected:
		return fmt.Sprintf("%s rejected your trade offer", t.ByName)
	case world.ThoughtGotHit:
		return fmt.Sprintf("%s hit you for %d damage! Ouch!", t.ByName, t.Damage)
	case world.ThoughtHitSomeone:
		return fmt.Sprintf("You hit %s for %d damage!", t.TargetName, t.Damage)
	default:
		return fmt.Sprintf("(%s) %s", t.Source, t.Text)
	}
}
