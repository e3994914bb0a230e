package world

// Health and food are both bounded to [0, 100].
const (
	MaxHealth = 100
	MaxFood   = 100
)

// Pookie is one simulated agent. The personality is assigned at join and
// never changes; everything else is mutated exclusively through the engine's
// mutation gateway.
type Pookie struct {
	Personality   string    `json:"personality"`
	CurrentAction Action    `json:"currentAction"`
	Inventory     Inventory `json:"inventory"`
	Thoughts      []Thought `json:"thoughts"`
	Health        int       `json:"health"`
	Food          int       `json:"food"`
}

// Alive reports whether the pookie is not dead.
func (p *Pookie) Alive() bool {
	return p.CurrentAction.Type != ActionDead
}

// Remember appends a thought to the pookie's memory log.
func (p *Pookie) Remember(t Thought) {
	p.Thoughts = append(p.Thoughts, t)
}

// RecentThoughts returns the last n thoughts, oldest first.
func (p *Pookie) RecentThoughts(n int) []Thought {
	if len(p.Thoughts) <= n {
		return p.Thoughts
	}
	return p.Thoughts[len(p.Thoughts)-n:]
}

// clone deep-copies the pookie so that snapshots never alias engine-owned
// slices.
func (p *Pookie) clone() *Pookie {
	cp := *p
	cp.Inventory = append(Inventory(nil), p.Inventory...)
	cp.Thoughts = make([]Thought, len(p.Thoughts))
	for i, t := range p.Thoughts {
		cp.Thoughts[i] = cloneThought(t)
	}
	return &cp
}

func cloneThought(t Thought) Thought {
	t.ItemsOffered = append([]ItemStack(nil), t.ItemsOffered...)
	t.ItemsRequested = append([]ItemStack(nil), t.ItemsRequested...)
	t.ItemsGiven = append([]ItemStack(nil), t.ItemsGiven...)
	t.ItemsReceived = append([]ItemStack(nil), t.ItemsReceived...)
	return t
}
