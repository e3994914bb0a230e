// Package world provides the data model of a running world: pookies, their
// action state machine, thought logs, and inventories. Everything here is
// plain value data — numbers, strings, booleans, maps, and slices — so a
// WorldState can be snapshotted and handed to observers verbatim at any time.
package world

import "github.com/pookielabs/pookieverse/internal/geometry"

// ActionType tags the active variant of a pookie's current action.
type ActionType string

const (
	ActionIdle     ActionType = "idle"
	ActionThinking ActionType = "thinking"
	ActionMove     ActionType = "move"
	ActionInteract ActionType = "interact-with-facility"
	ActionDead     ActionType = "dead"
)

// Action is a tagged variant; exactly one is active per pookie. The Type
// field selects which of the remaining fields are meaningful.
type Action struct {
	Type ActionType `json:"type"`

	// idle / thinking / interact-with-facility / dead: the stationary position.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	SinceMillis int64 `json:"sinceTimestampMillis,omitempty"`

	// idle only.
	MinIdleDurationMillis int64 `json:"minIdleDurationMillis,omitempty"`

	// thinking only. Generation is allocated from a per-world counter when
	// entering the state and is how stale oracle results are detected.
	Generation uint64 `json:"generation,omitempty"`

	// move only.
	StartX      float64 `json:"startX,omitempty"`
	StartY      float64 `json:"startY,omitempty"`
	StartMillis int64   `json:"startTimestampMillis,omitempty"`
	EndX        float64 `json:"endX,omitempty"`
	EndY        float64 `json:"endY,omitempty"`
	EndMillis   int64   `json:"endTimestampMillis,omitempty"`

	// interact-with-facility only.
	FacilityID      string `json:"facilityId,omitempty"`
	InteractionName string `json:"interactionName,omitempty"`

	// interact-with-facility and dead.
	UntilMillis int64 `json:"untilTimestampMillis,omitempty"`

	// dead only.
	DiedAtMillis int64 `json:"diedAtTimestampMillis,omitempty"`
}

// Idle returns an idle action at (x, y) that lasts at least minIdle millis.
func Idle(x, y float64, now, minIdleMillis int64) Action {
	return Action{
		Type:                  ActionIdle,
		X:                     x,
		Y:                     y,
		SinceMillis:           now,
		MinIdleDurationMillis: minIdleMillis,
	}
}

// Thinking returns a thinking action at (x, y) carrying the given generation.
func Thinking(x, y float64, now int64, generation uint64) Action {
	return Action{
		Type:        ActionThinking,
		X:           x,
		Y:           y,
		SinceMillis: now,
		Generation:  generation,
	}
}

// Move returns a move action from (startX, startY) at startMillis to
// (endX, endY) at endMillis.
func Move(startX, startY float64, startMillis int64, endX, endY float64, endMillis int64) Action {
	return Action{
		Type:        ActionMove,
		StartX:      startX,
		StartY:      startY,
		StartMillis: startMillis,
		EndX:        endX,
		EndY:        endY,
		EndMillis:   endMillis,
	}
}

// Interact returns an interact-with-facility action at (x, y) lasting until
// untilMillis.
func Interact(x, y float64, facilityID, interactionName string, now, untilMillis int64) Action {
	return Action{
		Type:            ActionInteract,
		X:               x,
		Y:               y,
		FacilityID:      facilityID,
		InteractionName: interactionName,
		SinceMillis:     now,
		UntilMillis:     untilMillis,
	}
}

// Dead returns a dead action at (x, y) lasting until untilMillis.
func Dead(x, y float64, now, untilMillis int64) Action {
	return Action{
		Type:         ActionDead,
		X:            x,
		Y:            y,
		DiedAtMillis: now,
		SinceMillis:  now,
		UntilMillis:  untilMillis,
	}
}

// PositionAt returns the pookie's interpolated position at the given time.
// For a move the position is the linear interpolation between start and end,
// clamped to the endpoints before startMillis and after endMillis. Every
// other action is stationary at (X, Y).
func (a Action) PositionAt(nowMillis int64) geometry.Point {
	if a.Type != ActionMove {
		return geometry.Point{X: a.X, Y: a.Y}
	}
	span := a.EndMillis - a.StartMillis
	if span <= 0 {
		return geometry.Point{X: a.EndX, Y: a.EndY}
	}
	t := float64(nowMillis-a.StartMillis) / float64(span)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return geometry.Point{
		X: a.StartX + (a.EndX-a.StartX)*t,
		Y: a.StartY + (a.EndY-a.StartY)*t,
	}
}
