package leash

// Param is a leash parameter key as it appears at the end of an OSC address.
type Param int

const (
	ParamUnknown Param = iota
	ParamStretch
	ParamXPos
	ParamYPos
	ParamZPos
	ParamXNeg
	ParamYNeg
	ParamZNeg
	ParamIsGrabbed
	ParamAngle
)

var paramsByName = map[string]Param{
	"Stretch":   ParamStretch,
	"X+":        ParamXPos,
	"Y+":        ParamYPos,
	"Z+":        ParamZPos,
	"X-":        ParamXNeg,
	"Y-":        ParamYNeg,
	"Z-":        ParamZNeg,
	"IsGrabbed": ParamIsGrabbed,
	"Angle":     ParamAngle,
}

// floatFields maps every float-valued parameter to the State field it sets.
var floatFields = map[Param]func(*State) *float32{
	ParamStretch: func(s *State) *float32 { return &s.Stretch },
	ParamXPos:    func(s *State) *float32 { return &s.XPos },
	ParamYPos:    func(s *State) *float32 { return &s.YPos },
	ParamZPos:    func(s *State) *float32 { return &s.ZPos },
	ParamXNeg:    func(s *State) *float32 { return &s.XNeg },
	ParamYNeg:    func(s *State) *float32 { return &s.YNeg },
	ParamZNeg:    func(s *State) *float32 { return &s.ZNeg },
}

// ParseParam looks up a parameter key. Keys are case-sensitive, matching the
// names avatars publish.
func ParseParam(s string) Param {
	if p, ok := paramsByName[s]; ok {
		return p
	}
	return ParamUnknown
}

// String returns the wire name of the parameter.
func (p Param) String() string {
	for name, q := range paramsByName {
		if q == p {
			return name
		}
	}
	return "Unknown"
}

// Ignored reports whether updates for p are dropped before reaching the
// registry. Angle is noisy and nothing consumes it.
func (p Param) Ignored() bool {
	return p == ParamAngle
}
