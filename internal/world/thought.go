package world

// ThoughtSource tags the variant of a thought log entry.
type ThoughtSource string

const (
	ThoughtSelf            ThoughtSource = "self"
	ThoughtGuardianAngel   ThoughtSource = "guardian-angel"
	ThoughtFacility        ThoughtSource = "facility"
	ThoughtActionChange    ThoughtSource = "self-action-change"
	ThoughtSomeoneElseSaid ThoughtSource = "someone-else-said"
	ThoughtTradeOffer      ThoughtSource = "trade-offer-received"
	ThoughtTradeCompleted  ThoughtSource = "trade-completed"
	ThoughtTradeRejected   ThoughtSource = "trade-rejected"
	ThoughtGotHit          ThoughtSource = "got-hit"
	ThoughtHitSomeone      ThoughtSource = "hit-someone"
)

// Thought is one immutable, timestamped entry in a pookie's memory log.
// Entries are append-only and never mutated after insertion.
type Thought struct {
	Source          ThoughtSource `json:"source"`
	TimestampMillis int64         `json:"timestampMillis"`

	// self / guardian-angel / facility / self-action-change / someone-else-said.
	Text string `json:"text,omitempty"`

	// self only: whether the thought was spoken out loud.
	SpokenLoudly bool `json:"spokenLoudly,omitempty"`

	// someone-else-said only.
	SayerName string `json:"sayerPookieName,omitempty"`

	// trade-offer-received only.
	OfferID        string      `json:"offerId,omitempty"`
	FromName       string      `json:"fromPookieName,omitempty"`
	ItemsOffered   []ItemStack `json:"itemsOffered,omitempty"`
	ItemsRequested []ItemStack `json:"itemsRequested,omitempty"`

	// trade-completed only.
	WithName      string      `json:"withPookieName,omitempty"`
	ItemsGiven    []ItemStack `json:"itemsGiven,omitempty"`
	ItemsReceived []ItemStack `json:"itemsReceived,omitempty"`

	// trade-rejected only.
	ByName string `json:"byPookieName,omitempty"`

	// got-hit / hit-someone.
	TargetName string `json:"targetPookieName,omitempty"`
	Damage     int    `json:"damage,omitempty"`
}

// SelfThought records something the pookie thought (or said, when loud).
func SelfThought(text string, loud bool, now int64) Thought {
	return Thought{Source: ThoughtSelf, Text: text, SpokenLoudly: loud, TimestampMillis: now}
}

// Notice records a system notice of the given source with free text.
func Notice(source ThoughtSource, text string, now int64) Thought {
	return Thought{Source: source, Text: text, TimestampMillis: now}
}

// Overheard records speech heard from another pookie.
func Overheard(sayer, text string, now int64) Thought {
	return Thought{Source: ThoughtSomeoneElseSaid, SayerName: sayer, Text: text, TimestampMillis: now}
}
