package leash

import "strings"

// AddressPrefix is the OSC address prefix carried by every leash parameter.
const AddressPrefix = "/avatar/parameters/OSCLeash/"

// Address is a parsed leash parameter address.
//
// The zero value is the "ignore" sentinel returned for unrecognised shapes.
type Address struct {
	Name      string    // Device name, case-sensitive
	Direction Direction // Pull direction, Unknown when absent or unrecognised
	Key       string    // Raw parameter key as sent
	Param     Param     // Key resolved against the known parameters
}

// Valid reports whether the address names a device.
func (a Address) Valid() bool {
	return a.Name != ""
}

// HasPrefix reports whether address carries the leash prefix.
// The comparison is case-insensitive.
func HasPrefix(address string) bool {
	return len(address) >= len(AddressPrefix) &&
		strings.EqualFold(address[:len(AddressPrefix)], AddressPrefix)
}

// ParseAddress splits a leash parameter address into its parts.
//
// Accepted shapes after the prefix:
//   - name_param
//   - name_direction_param (direction matched case-insensitively)
//   - name_other_param (middle segment discarded, direction Unknown)
//
// Any other shape returns the zero Address. The prefix is stripped when
// present; addresses without it are parsed as-is.
//
// Parameters:
//   - address: Full OSC address, e.g. "/avatar/parameters/OSCLeash/Tail_North_Z+"
//
// Returns:
//   - Address: Parsed parts, or the zero value when the shape is unrecognised
func ParseAddress(address string) Address {
	rest := address
	if HasPrefix(address) {
		rest = address[len(AddressPrefix):]
	}

	parts := strings.Split(rest, "_")

	var a Address
	switch len(parts) {
	case 2:
		a = Address{Name: parts[0], Key: parts[1]}
	case 3:
		dir, _ := ParseDirection(parts[1])
		a = Address{Name: parts[0], Direction: dir, Key: parts[2]}
	default:
		return Address{}
	}

	a.Param = ParseParam(a.Key)
	return a
}
