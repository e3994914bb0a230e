package world

import (
	"github.com/pookielabs/pookieverse/internal/level"
)

// State is the root aggregate of one world. It is exclusively owned by one
// engine instance; observers only ever see deep copies.
type State struct {
	Level         *level.Level       `json:"level"`
	StartedMillis int64              `json:"startTimestampMillis"`
	Pookies       map[string]*Pookie `json:"pookies"`
}

// NewState creates an empty world on the given level.
func NewState(l *level.Level, nowMillis int64) *State {
	return &State{
		Level:         l,
		StartedMillis: nowMillis,
		Pookies:       make(map[string]*Pookie),
	}
}

// Clone returns a deep copy of the state. The level is shared: it is
// immutable after world creation.
func (s *State) Clone() *State {
	cp := &State{
		Level:         s.Level,
		StartedMillis: s.StartedMillis,
		Pookies:       make(map[string]*Pookie, len(s.Pookies)),
	}
	for name, p := range s.Pookies {
		cp.Pookies[name] = p.clone()
	}
	return cp
}
