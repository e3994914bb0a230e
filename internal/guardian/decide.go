package guardian

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pookielabs/pookieverse/internal/oracle"
	"github.com/pookielabs/pookieverse/internal/world"
)

const systemPrompt = `You are an automated guardian angel watching over the Pookieverse — a small world of autonomous pookies who think for themselves, trade, chat, and sometimes get into trouble.

Your role: observe the flock and send zero or one short piece of advice per cycle, to at most one pookie. You are a guardian, not a puppeteer. The pookies live their own lives; you only whisper.

## Core Values (in priority order)

1. KEEP THEM ALIVE — If a pookie's health is low, nudge it away from fights and towards restful facilities.
2. KEEP THEM FED — If food is low, point the pookie to a facility that gives food items.
3. KEEP THEM SOCIAL — If a pookie has been alone and quiet for a long time, suggest visiting another pookie.
4. RESPECT AUTONOMY — Most cycles need no advice at all. Advice a pookie ignores is fine; advice every cycle is nagging. When in doubt, stay silent.

## Response Format

Respond with ONLY valid JSON (no markdown, no explanation outside the JSON):
{
  "action": "none",
  "rationale": "Brief explanation of your assessment."
}

To advise a pookie:
{
  "action": "advise",
  "rationale": "Pookieboo is at 20 health and keeps picking fights.",
  "pookieName": "Pookieboo",
  "message": "You look hurt. Maybe rest at the shelter instead of fighting?"
}

## Important Rules

- Respond ONLY with JSON. No prose, no markdown fences.
- "action" must be "none" or "advise".
- Advice is delivered to the pookie as a voice from its guardian angel. Write it in second person, gently, under 200 characters.
- Never mention that you are automated or that the pookie is simulated.`

// Advice represents the oracle's recommended action for one cycle.
type Advice struct {
	Action     string `json:"action"`
	Rationale  string `json:"rationale"`
	PookieName string `json:"pookieName,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Decide sends the triage summary to the oracle and returns validated
// advice. memoryText is the formatted recent-cycle history; it may be
// empty.
func Decide(client *oracle.Client, snap *world.State, health *FlockHealth, memoryText string) (*Advice, error) {
	prompt := formatFlock(snap, health)
	if memoryText != "" {
		prompt += "\n" + memoryText
	}

	slog.Debug("guardian prompt", "length", len(prompt))

	resp, err := client.Complete(context.Background(), systemPrompt, prompt, 512)
	if err != nil {
		return nil, fmt.Errorf("oracle call: %w", err)
	}

	// Strip markdown fences if the model wraps them anyway.
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var advice Advice
	if err := json.Unmarshal([]byte(resp), &advice); err != nil {
		return nil, fmt.Errorf("parse advice (raw: %s): %w", resp, err)
	}

	if err := enforceGuardrails(&advice, snap); err != nil {
		return nil, fmt.Errorf("guardrail violation: %w", err)
	}
	return &advice, nil
}

// enforceGuardrails validates and clamps the advice within safe bounds.
func enforceGuardrails(a *Advice, snap *world.State) error {
	switch a.Action {
	case "none":
		a.PookieName = ""
		a.Message = ""
		return nil

	case "advise":
		if a.PookieName == "" || snap.Pookies[a.PookieName] == nil {
			return fmt.Errorf("advise targets unknown pookie %q", a.PookieName)
		}
		a.Message = strings.TrimSpace(a.Message)
		if a.Message == "" {
			return fmt.Errorf("advise with empty message")
		}
		if len(a.Message) > oracle.MaxMessageLength {
			slog.Warn("guardian advice truncated", "length", len(a.Message))
			a.Message = oracle.Truncate(a.Message, oracle.MaxMessageLength)
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", a.Action)
	}
}

// formatFlock builds a concise prompt from the snapshot and triage result.
func formatFlock(snap *world.State, health *FlockHealth) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Flock (%d pookies, crisis level %s)\n", health.Total, health.CrisisLevel)
	fmt.Fprintf(&b, "Alive: %d | Dead (awaiting respawn): %d\n", health.Total-health.Dead, health.Dead)
	fmt.Fprintf(&b, "Avg health: %.0f | Avg food: %.0f\n\n", health.AvgHealth, health.AvgFood)

	names := make([]string, 0, len(snap.Pookies))
	for name := range snap.Pookies {
		names = append(names, name)
	}
	// Stable order so the model sees a consistent listing.
	sort.Strings(names)

	for _, name := range names {
		p := snap.Pookies[name]
		fmt.Fprintf(&b, "- %s: health %d, food %d, doing %s", name, p.Health, p.Food, p.CurrentAction.Type)
		if n := len(p.Thoughts); n > 0 {
			last := p.Thoughts[n-1]
			if last.Text != "" {
				fmt.Fprintf(&b, ", last thought: %q", last.Text)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if health.Neediest != nil && health.Neediest.NeedScore > 0 {
		fmt.Fprintf(&b, "Triage suggests %s needs attention most (score %d).\n",
			health.Neediest.Name, health.Neediest.NeedScore)
	} else {
		b.WriteString("Triage found nobody in urgent need.\n")
	}

	if len(snap.Level.Facilities) > 0 {
		b.WriteString("\n## Facilities\n")
		ids := make([]string, 0, len(snap.Level.Facilities))
		for id := range snap.Level.Facilities {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			f := snap.Level.Facilities[id]
			fmt.Fprintf(&b, "- %s: %s\n", f.DisplayName, f.InteractionPrompt)
		}
	}

	return b.String()
}
