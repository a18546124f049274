package leash

import (
	"slices"

	"github.com/chewxy/math32"

	"github.com/nerrad567/oscleash/internal/settings"
)

// Vector is the locomotion derived from one leash. Axes are in [-1, 1].
type Vector struct {
	Vertical   float32 `json:"vertical"`
	Horizontal float32 `json:"horizontal"`
	Turn       float32 `json:"turn"`
	Running    bool    `json:"running"`
}

// Stop is the full-stop vector.
var Stop = Vector{}

// Speed is the larger of the planar axis magnitudes.
func (v Vector) Speed() float32 {
	return math32.Max(math32.Abs(v.Vertical), math32.Abs(v.Horizontal))
}

// Moving reports whether either planar axis is non-zero.
func (v Vector) Moving() bool {
	return v.Vertical != 0 || v.Horizontal != 0
}

// SelectActive picks the device that drives movement: the first grabbed
// device, or the first device when none is grabbed. ok is false when
// devices is empty.
func SelectActive(devices []State) (State, bool) {
	for _, d := range devices {
		if d.IsGrabbed {
			return d, true
		}
	}
	if len(devices) > 0 {
		return devices[0], true
	}
	return State{}, false
}

// Process runs one calculation pass for a debounced batch of changed device
// names.
//
// Returns:
//   - Vector: Movement to emit
//   - bool: false when the pass should be skipped because the active device
//     has no new data in batch
func Process(devices []State, batch []string, cfg settings.Settings) (Vector, bool) {
	active, ok := SelectActive(devices)
	if !ok {
		return Stop, true
	}
	if !slices.Contains(batch, active.Name) {
		return Vector{}, false
	}
	return Calculate(active, cfg), true
}

// Calculate derives the movement vector for one device.
//
// Planar axes scale with Stretch times StrengthMultiplier and are clamped.
// Vertical pull at or past UpDownDeadzone suppresses planar movement, and a
// non-zero UpDownCompensation divides the planar axes by the clamped
// modifier 1 - (Y+ + Y-) * compensation, clamping the result. Turning
// assists a directional leash until it has swung past TurningGoal.
//
// Stretch past RunDeadzone runs and past WalkDeadzone walks. Anything less,
// or a released grab, stops.
func Calculate(s State, cfg settings.Settings) Vector {
	multiplier := s.Stretch * cfg.StrengthMultiplier
	vertical := clamp((s.ZPos - s.ZNeg) * multiplier)
	horizontal := clamp((s.XPos - s.XNeg) * multiplier)

	yCombined := s.YPos + s.YNeg
	if yCombined >= cfg.UpDownDeadzone {
		vertical = 0
		horizontal = 0
	}

	if cfg.UpDownCompensation != 0 {
		// A modifier near zero amplifies sharply; only exact zero is skipped.
		// The quotient is clamped so the axes stay within [-1, 1].
		yModifier := clamp(1 - yCombined*cfg.UpDownCompensation)
		if yModifier != 0 {
			vertical = clamp(vertical / yModifier)
			horizontal = clamp(horizontal / yModifier)
		}
	}

	turn := turnSpeed(s, cfg, vertical, horizontal)

	if !s.IsGrabbed {
		return Stop
	}
	switch {
	case s.Stretch > cfg.RunDeadzone:
		return Vector{Vertical: vertical, Horizontal: horizontal, Turn: turn, Running: true}
	case s.Stretch > cfg.WalkDeadzone:
		return Vector{Vertical: vertical, Horizontal: horizontal, Turn: turn}
	default:
		return Stop
	}
}

func turnSpeed(s State, cfg settings.Settings, vertical, horizontal float32) float32 {
	if !cfg.TurningEnabled || s.Stretch <= cfg.TurningDeadzone || s.Direction == Unknown {
		return 0
	}

	speed := cfg.TurningMultiplier
	goal := float32(cfg.TurningGoal) / 180

	switch {
	case s.Direction == North && s.ZPos < goal:
		speed *= horizontal
		if s.XPos > s.XNeg {
			speed += s.ZNeg
		} else {
			speed -= s.ZNeg
		}
	case s.Direction == South && s.ZNeg < goal:
		speed *= -horizontal
		if s.XPos > s.XNeg {
			speed -= s.ZPos
		} else {
			speed += s.ZPos
		}
	case s.Direction == East && s.XPos < goal:
		speed *= vertical
		if s.ZPos > s.ZNeg {
			speed += s.XNeg
		} else {
			speed -= s.XNeg
		}
	case s.Direction == West && s.XNeg < goal:
		speed *= -vertical
		if s.ZPos > s.ZNeg {
			speed -= s.XPos
		} else {
			speed += s.XPos
		}
	default:
		speed = 0
	}

	return clamp(speed)
}

func clamp(v float32) float32 {
	return math32.Max(-1, math32.Min(1, v))
}
