// Package gate decides which training modes a user may select.
package gate

import (
	"github.com/abhisek/kotowari/internal/progress"
	"github.com/abhisek/kotowari/internal/training"
)

// Modes reports which training modes are selectable.
type Modes struct {
	CombinedAvailable   bool `json:"combined_available"`
	PerElementAvailable bool `json:"per_element_available"`
}

// Allows reports whether m is selectable.
func (m Modes) Allows(mode training.Mode) bool {
	switch mode {
	case training.ModeCombined:
		return m.CombinedAvailable
	case training.ModePerElement:
		return m.PerElementAvailable
	}
	return false
}

// Evaluate returns the selectable modes for rec. Per-element practice is
// always available; combined practice needs every element in set passed.
func Evaluate(set training.Set, rec progress.Record) Modes {
	modes := Modes{PerElementAvailable: true, CombinedAvailable: len(set) > 0}
	for _, e := range set {
		if !rec.Passed(e.ID) {
			modes.CombinedAvailable = false
			break
		}
	}
	return modes
}

// Resolve returns the mode to use given the current selection. An
// unavailable combined selection falls back to per-element; forced is
// true when that happened.
func Resolve(current training.Mode, modes Modes) (mode training.Mode, forced bool) {
	if current == training.ModeCombined && !modes.CombinedAvailable {
		return training.ModePerElement, true
	}
	return current, false
}

// Remaining returns the elements of set not yet passed in rec.
func Remaining(set training.Set, rec progress.Record) training.Set {
	var out training.Set
	for _, e := range set {
		if !rec.Passed(e.ID) {
			out = append(out, e)
		}
	}
	return out
}
