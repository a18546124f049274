package leash

// State is the current telemetry of one leash device.
//
// States are values: Apply returns an updated copy and never mutates the
// receiver.
type State struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	IsGrabbed bool      `json:"is_grabbed"`
	Stretch   float32   `json:"stretch"`
	XPos      float32   `json:"x_pos"`
	YPos      float32   `json:"y_pos"`
	ZPos      float32   `json:"z_pos"`
	XNeg      float32   `json:"x_neg"`
	YNeg      float32   `json:"y_neg"`
	ZNeg      float32   `json:"z_neg"`
}

// NewState seeds a device with a fixed direction and all readings zeroed.
func NewState(name string, dir Direction) State {
	return State{Name: name, Direction: dir}
}

// Apply returns s with one parameter update applied.
//
// Float parameters accept float32 or float64 values. IsGrabbed accepts a
// bool; releasing the grab zeroes Stretch in the same update. A value of the
// wrong type or an unknown parameter leaves the state unchanged.
func (s State) Apply(p Param, value any) State {
	if field, ok := floatFields[p]; ok {
		if f, ok := toFloat32(value); ok {
			*field(&s) = f
		}
		return s
	}

	if p == ParamIsGrabbed {
		if grabbed, ok := value.(bool); ok {
			s.IsGrabbed = grabbed
			if !grabbed {
				s.Stretch = 0
			}
		}
	}
	return s
}

// toFloat32 accepts OSC float arguments and the float64 values decoded from
// OSCQuery JSON. Integers are not float parameters and are rejected.
func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	default:
		return 0, false
	}
}
