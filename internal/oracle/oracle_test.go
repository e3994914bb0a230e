package oracle

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pookielabs/pookieverse/internal/world"
)

func testPerception() *Perception {
	return &Perception{
		PookieName:  "Momo",
		Personality: "You are a curious and honest pookie who wants to find a friend",
		WorldPrompt: "A tiny test world.",
		Health:      100,
		Food:        100,
		X:           10, Y: 20,
		Inventory: world.Inventory{{ID: "berries", Amount: 2}},
		Others: []OtherPookie{
			{Name: "Boo", X: 15, Y: 20, WithinSpeech: true},
			{Name: "Nibble", X: 500, Y: 400},
		},
		Facilities: []FacilitySight{
			{ID: "facility-well", DisplayName: "Water Well", X: 100, Y: 200, Distance: 200, InteractionPrompt: "Drink"},
		},
		PendingOffers: []OfferSight{
			{OfferID: "trade-abc", FromPookie: "Boo",
				ItemsOffered:   []world.ItemStack{{ItemID: "firewood", Amount: 1}},
				ItemsRequested: []world.ItemStack{{ItemID: "berries", Amount: 2}}},
		},
	}
}

func TestParseDecisionPlainJSON(t *testing.T) {
	d, err := ParseDecision(`{"type": "say", "message": "hi Boo!", "thought": "greeting"}`, testPerception())
	if err != nil {
		t.Fatalf("ParseDecision: %v", err)
	}
	if d.Kind != KindSay || d.Message != "hi Boo!" || d.Thought != "greeting" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestParseDecisionCodeFence(t *testing.T) {
	text := "Sure, here's my move:\n```json\n{\"type\": \"move-to-pookie\", \"pookieName\": \"Boo\", \"thought\": \"say hi\"}\n```"
	d, err := ParseDecision(text, testPerception())
	if err != nil {
		t.Fatalf("ParseDecision: %v", err)
	}
	if d.Kind != KindMoveToPookie || d.PookieName != "Boo" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestParseDecisionSurroundingProse(t *testing.T) {
	text := `I think the best move is {"type": "idle", "seconds": 8, "thought": "waiting"} right now.`
	d, err := ParseDecision(text, testPerception())
	if err != nil {
		t.Fatalf("ParseDecision: %v", err)
	}
	if d.Kind != KindIdle || d.Seconds != 8 {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestParseDecisionRejectsGarbage(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here",
		`{"type": "fly-away", "thought": "zoom"}`,
		`{"seconds": 5}`,
		`{"type": "say"}`,
		`{"type": "offer-trade", "targetPookieName": "Boo"}`,
	} {
		if _, err := ParseDecision(text, testPerception()); err == nil {
			t.Fatalf("expected error for %q", text)
		}
	}
}

func TestValidateClampsIdleSeconds(t *testing.T) {
	p := testPerception()
	d, err := Validate(Decision{Kind: KindIdle, Seconds: 500}, p)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if d.Seconds != MaxIdleSeconds {
		t.Fatalf("seconds = %d, want clamp to %d", d.Seconds, MaxIdleSeconds)
	}
	d, err = Validate(Decision{Kind: KindIdle, Seconds: 0}, p)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if d.Seconds != MinIdleSeconds {
		t.Fatalf("seconds = %d, want clamp to %d", d.Seconds, MinIdleSeconds)
	}
}

func TestValidateTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("a", MaxMessageLength*2)
	d, err := Validate(Decision{Kind: KindSay, Message: long}, testPerception())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(d.Message) != MaxMessageLength {
		t.Fatalf("message length = %d, want %d", len(d.Message), MaxMessageLength)
	}
}

func TestValidateRejectsDanglingReferences(t *testing.T) {
	p := testPerception()
	cases := []Decision{
		{Kind: KindMoveToFacility, FacilityID: "facility-nowhere"},
		{Kind: KindInteract, FacilityID: "facility-nowhere"},
		{Kind: KindMoveToPookie, PookieName: "Ghost"},
		{Kind: KindHitPookie, TargetPookie: "Ghost"},
		{Kind: KindOfferTrade, TargetPookie: "Ghost",
			ItemsOffered:   []world.ItemStack{{ItemID: "berries", Amount: 1}},
			ItemsRequested: []world.ItemStack{{ItemID: "firewood", Amount: 1}}},
		{Kind: KindOfferTrade, TargetPookie: "Boo",
			ItemsOffered:   []world.ItemStack{{ItemID: "berries", Amount: -1}},
			ItemsRequested: []world.ItemStack{{ItemID: "firewood", Amount: 1}}},
		{Kind: KindAcceptOffer},
		{Kind: "unknown-kind"},
	}
	for _, d := range cases {
		if _, err := Validate(d, p); err == nil {
			t.Fatalf("expected error for %+v", d)
		}
	}
}

func TestFallback(t *testing.T) {
	d := Fallback()
	if d.Kind != KindIdle || d.Seconds != FallbackSeconds {
		t.Fatalf("fallback = %+v", d)
	}
	if d.Thought == "" {
		t.Fatalf("fallback should carry a diagnostic thought")
	}
}

func TestBuildPromptMentionsEverything(t *testing.T) {
	p := testPerception()
	p.Thoughts = []world.Thought{
		world.SelfThought("a quiet morning", false, 1000),
		world.Overheard("Boo", "hello!", 2000),
		{Source: world.ThoughtGotHit, ByName: "Nibble", Damage: 30, TimestampMillis: 3000},
	}
	prompt := BuildPrompt(p)

	for _, want := range []string{
		"Your name is Momo",
		"Health: 100/100",
		"2x berries",
		"Boo is at 15.0, 20.0. They can hear you",
		"Nibble is at 500.0, 400.0. They are too far away",
		"Water Well (id: facility-well)",
		`Offer ID "trade-abc" from Boo`,
		`You thought: "a quiet morning"`,
		`Boo said: "hello!"`,
		"Nibble hit you for 30 damage",
		"guardian angel",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptRendersWholeMemory(t *testing.T) {
	p := testPerception()
	p.Thoughts = append(p.Thoughts,
		world.SelfThought("an old musing", false, 1),
		world.SelfThought("the newest musing", false, 99999),
	)
	prompt := BuildPrompt(p)
	if !strings.Contains(prompt, "an old musing") || !strings.Contains(prompt, "the newest musing") {
		t.Fatalf("prompt missing memory entries")
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; a byte-index cut at the limit would split it.
	msg := strings.Repeat("a", MaxMessageLength-1) + "é"
	got := Truncate(msg, MaxMessageLength)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) != MaxMessageLength-1 {
		t.Fatalf("truncated length = %d, want %d (cut backed up to rune start)", len(got), MaxMessageLength-1)
	}

	d, err := Validate(Decision{Kind: KindSay, Message: strings.Repeat("é", MaxMessageLength)}, testPerception())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !utf8.ValidString(d.Message) || len(d.Message) > MaxMessageLength {
		t.Fatalf("say message not rune-safe after truncation: len=%d", len(d.Message))
	}
}
