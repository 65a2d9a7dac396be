package training

import "fmt"

// Mode is a practice mode.
type Mode string

const (
	// ModeCombined evaluates every aspect of a refusal with a score.
	ModeCombined Mode = "combined"
	// ModePerElement coaches a single element and issues a verdict.
	ModePerElement Mode = "per-element"
)

// AllModes returns the modes in display order.
func AllModes() []Mode {
	return []Mode{ModeCombined, ModePerElement}
}

// DisplayName returns the human-readable label for a mode.
func (m Mode) DisplayName() string {
	switch m {
	case ModeCombined:
		return "総合実践 (全要素を評価)"
	case ModePerElement:
		return "要素別トレーニング (一点集中)"
	default:
		return string(m)
	}
}

// ParseMode converts user input to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCombined, ModePerElement:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeCombined, ModePerElement)
}
