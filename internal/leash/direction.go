package leash

import "strings"

// Direction is the pull direction a leash is configured for.
// It drives the turning heuristics in Calculate.
type Direction int

const (
	Unknown Direction = iota
	North
	East
	South
	West
)

var directionNames = map[Direction]string{
	Unknown: "Unknown",
	North:   "North",
	East:    "East",
	South:   "South",
	West:    "West",
}

// String returns the canonical name of the direction.
func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler so directions render by name
// in JSON payloads.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDirection matches s case-insensitively against the direction names.
// Unknown itself is not a valid parse result; ok is false for it.
func ParseDirection(s string) (Direction, bool) {
	for d, name := range directionNames {
		if d == Unknown {
			continue
		}
		if strings.EqualFold(s, name) {
			return d, true
		}
	}
	return Unknown, false
}
