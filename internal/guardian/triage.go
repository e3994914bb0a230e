package guardian

import (
	"sort"

	"github.com/pookielabs/pookieverse/internal/world"
)

// Wellbeing thresholds used by triage.
const (
	lowHealth = 35
	lowFood   = 25
)

// PookieHealth is the triage view of one pookie.
type PookieHealth struct {
	Name      string
	Health    int
	Food      int
	Dead      bool
	Action    world.ActionType
	NeedScore int // higher = needs attention sooner
}

// FlockHealth holds derived diagnostic signals computed from a snapshot.
// Runs before the oracle call — deterministic and free.
type FlockHealth struct {
	Total       int
	Dead        int
	LowHealth   int
	LowFood     int
	AvgHealth   float64
	AvgFood     float64
	Neediest    *PookieHealth // nil when the flock is empty or all dead
	CrisisLevel string        // "CRITICAL", "WARNING", "WATCH", "HEALTHY"
}

// Triage computes a FlockHealth from the snapshot.
func Triage(snap *world.State) *FlockHealth {
	h := &FlockHealth{Total: len(snap.Pookies)}
	if h.Total == 0 {
		h.CrisisLevel = "HEALTHY"
		return h
	}

	var scored []PookieHealth
	totalHealth, totalFood := 0, 0
	for name, p := range snap.Pookies {
		ph := PookieHealth{
			Name:   name,
			Health: p.Health,
			Food:   p.Food,
			Dead:   !p.Alive(),
			Action: p.CurrentAction.Type,
		}
		if ph.Dead {
			h.Dead++
			continue // dead pookies respawn on their own; advice can wait
		}
		totalHealth += p.Health
		totalFood += p.Food
		if p.Health < lowHealth {
			h.LowHealth++
			ph.NeedScore += lowHealth - p.Health
		}
		if p.Food < lowFood {
			h.LowFood++
			ph.NeedScore += lowFood - p.Food
		}
		scored = append(scored, ph)
	}

	alive := h.Total - h.Dead
	if alive > 0 {
		h.AvgHealth = float64(totalHealth) / float64(alive)
		h.AvgFood = float64(totalFood) / float64(alive)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].NeedScore != scored[j].NeedScore {
			return scored[i].NeedScore > scored[j].NeedScore
		}
		return scored[i].Name < scored[j].Name
	})
	if len(scored) > 0 {
		neediest := scored[0]
		h.Neediest = &neediest
	}

	deadFraction := float64(h.Dead) / float64(h.Total)
	switch {
	case alive == 0:
		h.CrisisLevel = "CRITICAL"
	case deadFraction >= 0.5 || h.LowHealth > alive/2:
		h.CrisisLevel = "CRITICAL"
	case h.LowHealth > 0 || deadFraction > 0:
		h.CrisisLevel = "WARNING"
	case h.LowFood > 0:
		h.CrisisLevel = "WATCH"
	default:
		h.CrisisLevel = "HEALTHY"
	}
	return h
}
