// Package level defines the immutable world layout: dimensions, interaction
// distances, the item-type catalog, and the facility catalog. A Level is
// created once per world and never mutated afterwards.
package level

import "fmt"

// Level is the immutable configuration of one world.
type Level struct {
	MaxPookies                  int     `json:"maxPookies" yaml:"maxPookies"`
	WorldPrompt                 string  `json:"worldPrompt" yaml:"worldPrompt"`
	Width                       float64 `json:"width" yaml:"width"`
	Height                      float64 `json:"height" yaml:"height"`
	SpeechDistance              float64 `json:"speechDistance" yaml:"speechDistance"`
	FacilityInteractionDistance float64 `json:"facilityInteractionDistance" yaml:"facilityInteractionDistance"`
	WalkSpeedPerSecond          float64 `json:"walkSpeedPerSecond" yaml:"walkSpeedPerSecond"`

	BackgroundImage BackgroundImage `json:"backgroundImage" yaml:"backgroundImage"`

	ItemTypes  map[string]ItemType `json:"itemTypes" yaml:"itemTypes"`
	Facilities map[string]Facility `json:"facilities" yaml:"facilities"`
}

// BackgroundImage references the level's backdrop. Width/height are the
// actual image dimensions in pixels; all other coordinates are game units.
type BackgroundImage struct {
	URL      string `json:"url" yaml:"url"`
	WidthPx  int    `json:"widthPx" yaml:"widthPx"`
	HeightPx int    `json:"heightPx" yaml:"heightPx"`
}

// ItemType describes one entry of the item catalog.
type ItemType struct {
	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description" yaml:"description"`
	SpriteURL   string `json:"spriteUrl" yaml:"spriteUrl"`
}

// Facility is a fixed-position world object pookies can walk to and interact
// with for a timed reward.
type Facility struct {
	X                         float64        `json:"x" yaml:"x"`
	Y                         float64        `json:"y" yaml:"y"`
	DisplayName               string         `json:"displayName" yaml:"displayName"`
	InteractionPrompt         string         `json:"interactionPrompt" yaml:"interactionPrompt"`
	InteractionName           string         `json:"interactionName" yaml:"interactionName"`
	InteractionDurationMillis int64          `json:"interactionDurationMillis" yaml:"interactionDurationMillis"`
	Variables                 map[string]any `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Validate checks the structural requirements a Level must meet before a
// world can be built on it.
func (l *Level) Validate() error {
	if l.MaxPookies <= 0 {
		return fmt.Errorf("maxPookies must be positive, got %d", l.MaxPookies)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("level dimensions must be positive, got %gx%g", l.Width, l.Height)
	}
	if l.WalkSpeedPerSecond <= 0 {
		return fmt.Errorf("walkSpeedPerSecond must be positive, got %g", l.WalkSpeedPerSecond)
	}
	if l.SpeechDistance <= 0 {
		return fmt.Errorf("speechDistance must be positive, got %g", l.SpeechDistance)
	}
	if l.FacilityInteractionDistance <= 0 {
		return fmt.Errorf("facilityInteractionDistance must be positive, got %g", l.FacilityInteractionDistance)
	}
	for id, f := range l.Facilities {
		if f.X < 0 || f.X > l.Width || f.Y < 0 || f.Y > l.Height {
			return fmt.Errorf("facility %q at (%g, %g) is outside the %gx%g level", id, f.X, f.Y, l.Width, l.Height)
		}
		if f.InteractionDurationMillis <= 0 {
			return fmt.Errorf("facility %q has non-positive interaction duration", id)
		}
	}
	return nil
}

// Default returns the built-in level: a small meadow with four facilities and
// a handful of item types.
func Default() *Level {
	return &Level{
		MaxPookies:                  4,
		WorldPrompt:                 "The Pookieverse is a cozy meadow world. Be yourself, explore, and make the most of your little life.",
		Width:                       600,
		Height:                      500,
		SpeechDistance:              80,
		FacilityInteractionDistance: 40,
		WalkSpeedPerSecond:          50,
		BackgroundImage: BackgroundImage{
			URL:      "/assets/meadow.png",
			WidthPx:  1200,
			HeightPx: 1000,
		},
		ItemTypes: map[string]ItemType{
			"berries": {
				DisplayName: "Berries",
				Description: "A handful of sweet berries.",
				SpriteURL:   "/assets/items/berries.png",
			},
			"water-bottle": {
				DisplayName: "Water Bottle",
				Description: "Fresh well water.",
				SpriteURL:   "/assets/items/water-bottle.png",
			},
			"firewood": {
				DisplayName: "Firewood",
				Description: "Dry sticks, good for a campfire.",
				SpriteURL:   "/assets/items/firewood.png",
			},
			"blanket": {
				DisplayName: "Blanket",
				Description: "A warm woolen blanket.",
				SpriteURL:   "/assets/items/blanket.png",
			},
		},
		Facilities: map[string]Facility{
			"facility-well": {
				X: 100, Y: 200,
				DisplayName:               "Water Well",
				InteractionPrompt:         "Drink some cool water",
				InteractionName:           "drink",
				InteractionDurationMillis: 5000,
				Variables:                 map[string]any{"waterLevel": 80, "isClean": true},
			},
			"facility-campfire": {
				X: 300, Y: 150,
				DisplayName:               "Campfire",
				InteractionPrompt:         "Warm up by the fire",
				InteractionName:           "warm",
				InteractionDurationMillis: 6000,
				Variables:                 map[string]any{"isLit": true, "fuel": 50},
			},
			"facility-berry-bush": {
				X: 450, Y: 300,
				DisplayName:               "Berry Bush",
				InteractionPrompt:         "Pick some ripe berries",
				InteractionName:           "pick",
				InteractionDurationMillis: 4000,
				Variables:                 map[string]any{"berryCount": 12, "ripeness": "ripe"},
			},
			"facility-shelter": {
				X: 200, Y: 400,
				DisplayName:               "Shelter",
				InteractionPrompt:         "Rest under the roof",
				InteractionName:           "rest",
				InteractionDurationMillis: 8000,
				Variables:                 map[string]any{"capacity": 4, "currentOccupants": 0},
			},
		},
	}
}
