// Level generation using simplex noise. The generator scatters facilities
// over the map at local maxima of an "appeal" field so that generated levels
// feel hand-placed rather than uniformly random.
package level

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds level generation parameters.
type GenConfig struct {
	Seed          int64
	Width, Height float64
	MaxPookies    int
	Facilities    int // How many facilities to place.
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:       0,
		Width:      600,
		Height:     500,
		MaxPookies: 4,
		Facilities: 4,
	}
}

// facilityTemplate is one of the stock facilities the generator draws from.
type facilityTemplate struct {
	id       string
	facility Facility
}

func templates() []facilityTemplate {
	base := Default()
	out := make([]facilityTemplate, 0, len(base.Facilities))
	// Deterministic order: iterate the default catalog via a fixed id list.
	for _, id := range []string{"facility-well", "facility-campfire", "facility-berry-bush", "facility-shelter"} {
		out = append(out, facilityTemplate{id: id, facility: base.Facilities[id]})
	}
	return out
}

// Generate creates a level with facilities placed at appeal-field maxima.
// The item catalog and tuning distances come from the default level.
func Generate(cfg GenConfig) (*Level, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.Facilities <= 0 {
		return nil, fmt.Errorf("facility count must be positive, got %d", cfg.Facilities)
	}

	appeal := opensimplex.NewNormalized(seed)
	rng := rand.New(rand.NewSource(seed + 1))

	l := Default()
	l.Width = cfg.Width
	l.Height = cfg.Height
	l.MaxPookies = cfg.MaxPookies
	l.Facilities = make(map[string]Facility, cfg.Facilities)

	tmpl := templates()
	const margin = 0.08 // Keep facilities off the level border.

	for i := 0; i < cfg.Facilities; i++ {
		// Sample candidate points and keep the most appealing one that is
		// not too close to an already placed facility.
		var best Facility
		bestScore := math.Inf(-1)
		found := false
		for c := 0; c < 64; c++ {
			x := (margin + rng.Float64()*(1-2*margin)) * cfg.Width
			y := (margin + rng.Float64()*(1-2*margin)) * cfg.Height
			if tooClose(l.Facilities, x, y, minSpacing(cfg)) {
				continue
			}
			score := appeal.Eval2(x*0.01, y*0.01)
			if score > bestScore {
				bestScore = score
				t := tmpl[i%len(tmpl)]
				f := t.facility
				f.X, f.Y = x, y
				best = f
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("could not place facility %d of %d (level too crowded)", i+1, cfg.Facilities)
		}
		t := tmpl[i%len(tmpl)]
		id := t.id
		if i >= len(tmpl) {
			id = fmt.Sprintf("%s-%d", t.id, i/len(tmpl)+1)
		}
		l.Facilities[id] = best
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("generated level invalid: %w", err)
	}
	return l, nil
}

func minSpacing(cfg GenConfig) float64 {
	// Spread facilities so their interaction radii rarely overlap.
	area := cfg.Width * cfg.Height
	return math.Sqrt(area/float64(cfg.Facilities)) * 0.4
}

func tooClose(placed map[string]Facility, x, y, spacing float64) bool {
	for _, f := range placed {
		dx := f.X - x
		dy := f.Y - y
		if math.Sqrt(dx*dx+dy*dy) < spacing {
			return true
		}
	}
	return false
}
