package leash

import (
	"math"
	"testing"

	"github.com/nerrad567/oscleash/internal/settings"
)

// testSettings isolates individual rules: compensation and turning are off
// unless a test turns them on.
func testSettings() settings.Settings {
	return settings.Settings{
		IP:                 "127.0.0.1",
		RunDeadzone:        0.6,
		WalkDeadzone:       0.2,
		StrengthMultiplier: 1,
		UpDownCompensation: 0,
		UpDownDeadzone:     0.5,
		TurningEnabled:     false,
		TurningMultiplier:  1,
		TurningDeadzone:    0.1,
		TurningGoal:        90,
	}
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func vectorsEqual(a, b Vector) bool {
	return approx(a.Vertical, b.Vertical) &&
		approx(a.Horizontal, b.Horizontal) &&
		approx(a.Turn, b.Turn) &&
		a.Running == b.Running
}

func TestCalculateWalkScenario(t *testing.T) {
	s := NewState("hip", Unknown).
		Apply(ParamStretch, float32(0.5)).
		Apply(ParamIsGrabbed, true).
		Apply(ParamZPos, float32(0.8))

	got := Calculate(s, testSettings())
	want := Vector{Vertical: 0.4, Horizontal: 0, Turn: 0, Running: false}
	if !vectorsEqual(got, want) {
		t.Errorf("Calculate() = %+v, want %+v", got, want)
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name   string
		state  State
		mutate func(*settings.Settings)
		want   Vector
	}{
		{
			name:  "run tier",
			state: State{IsGrabbed: true, Stretch: 0.8, ZPos: 1},
			want:  Vector{Vertical: 0.8, Running: true},
		},
		{
			name:  "below walk deadzone stops",
			state: State{IsGrabbed: true, Stretch: 0.15, ZPos: 1},
			want:  Stop,
		},
		{
			name:  "walk deadzone is exclusive",
			state: State{IsGrabbed: true, Stretch: 0.2, ZPos: 1},
			want:  Stop,
		},
		{
			name:  "not grabbed always stops",
			state: State{IsGrabbed: false, Stretch: 0.9, ZPos: 1, XPos: 1},
			want:  Stop,
		},
		{
			name:  "axes are clamped",
			state: State{IsGrabbed: true, Stretch: 0.9, ZPos: 1, XNeg: 1},
			mutate: func(s *settings.Settings) {
				s.StrengthMultiplier = 5
			},
			want: Vector{Vertical: 1, Horizontal: -1, Running: true},
		},
		{
			name:  "negative axes subtract",
			state: State{IsGrabbed: true, Stretch: 0.5, ZPos: 0.2, ZNeg: 0.6, XPos: 0.4},
			want:  Vector{Vertical: -0.2, Horizontal: 0.2},
		},
		{
			name:  "up down deadzone suppresses planar movement",
			state: State{IsGrabbed: true, Stretch: 0.5, ZPos: 1, XPos: 1, YPos: 0.3, YNeg: 0.2},
			want:  Vector{},
		},
		{
			name:  "just below up down deadzone keeps movement",
			state: State{IsGrabbed: true, Stretch: 0.5, ZPos: 1, YPos: 0.49},
			want:  Vector{Vertical: 0.5},
		},
		{
			name:  "compensation divides by modifier",
			state: State{IsGrabbed: true, Stretch: 0.5, ZPos: 0.8, YPos: 0.2},
			mutate: func(s *settings.Settings) {
				s.UpDownCompensation = 1
			},
			// modifier = 1 - 0.2 = 0.8; 0.4 / 0.8 = 0.5
			want: Vector{Vertical: 0.5},
		},
		{
			name:  "compensation quotient is clamped",
			state: State{IsGrabbed: true, Stretch: 0.5, ZPos: 1.6, YPos: 0.4},
			mutate: func(s *settings.Settings) {
				s.UpDownCompensation = 1
			},
			// 0.8 / 0.6 exceeds 1
			want: Vector{Vertical: 1},
		},
		{
			name:  "zero modifier skips division",
			state: State{IsGrabbed: true, Stretch: 0.5, ZPos: 0.8, YPos: 0.25},
			mutate: func(s *settings.Settings) {
				s.UpDownCompensation = 4
			},
			want: Vector{Vertical: 0.4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSettings()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			got := Calculate(tt.state, cfg)
			if !vectorsEqual(got, tt.want) {
				t.Errorf("Calculate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateTurning(t *testing.T) {
	turning := func(s *settings.Settings) {
		s.TurningEnabled = true
		s.TurningMultiplier = 1
		s.TurningDeadzone = 0.1
		s.TurningGoal = 90 // goal 0.5
	}

	tests := []struct {
		name   string
		state  State
		mutate func(*settings.Settings)
		want   float32
	}{
		{
			name:  "north pulled right",
			state: State{Direction: North, IsGrabbed: true, Stretch: 0.5, XPos: 0.6, ZNeg: 0.2},
			// horizontal 0.3; 1*0.3 + 0.2
			want: 0.5,
		},
		{
			name:  "north pulled left",
			state: State{Direction: North, IsGrabbed: true, Stretch: 0.5, XNeg: 0.6, ZNeg: 0.2},
			// horizontal -0.3; 1*-0.3 - 0.2
			want: -0.5,
		},
		{
			name:  "north past goal",
			state: State{Direction: North, IsGrabbed: true, Stretch: 0.5, XPos: 0.6, ZPos: 0.5},
			want:  0,
		},
		{
			name:  "south pulled right",
			state: State{Direction: South, IsGrabbed: true, Stretch: 0.5, XPos: 0.6, ZPos: 0.2},
			// 1*-0.3 - 0.2
			want: -0.5,
		},
		{
			name:  "south pulled left",
			state: State{Direction: South, IsGrabbed: true, Stretch: 0.5, XNeg: 0.6, ZPos: 0.2},
			// 1*0.3 + 0.2
			want: 0.5,
		},
		{
			name:  "east pulled forward",
			state: State{Direction: East, IsGrabbed: true, Stretch: 0.5, ZPos: 0.6, XNeg: 0.2},
			// vertical 0.3; 0.3 + 0.2
			want: 0.5,
		},
		{
			name:  "east past goal",
			state: State{Direction: East, IsGrabbed: true, Stretch: 0.5, ZPos: 0.6, XPos: 0.7},
			want:  0,
		},
		{
			name:  "west pulled back",
			state: State{Direction: West, IsGrabbed: true, Stretch: 0.5, ZNeg: 0.6, XPos: 0.2},
			// vertical -0.3; -1*-0.3 + 0.2
			want: 0.5,
		},
		{
			name:  "turn is clamped",
			state: State{Direction: North, IsGrabbed: true, Stretch: 0.9, XPos: 1, ZNeg: 0.9},
			mutate: func(s *settings.Settings) {
				s.TurningMultiplier = 3
			},
			want: 1,
		},
		{
			name:  "unknown direction never turns",
			state: State{Direction: Unknown, IsGrabbed: true, Stretch: 0.5, XPos: 0.6, ZNeg: 0.2},
			want:  0,
		},
		{
			name:  "at turning deadzone never turns",
			state: State{Direction: North, IsGrabbed: true, Stretch: 0.3, XPos: 0.6, ZNeg: 0.2},
			mutate: func(s *settings.Settings) {
				s.TurningDeadzone = 0.3
			},
			want: 0,
		},
		{
			name:  "turning disabled never turns",
			state: State{Direction: North, IsGrabbed: true, Stretch: 0.5, XPos: 0.6, ZNeg: 0.2},
			mutate: func(s *settings.Settings) {
				s.TurningEnabled = false
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSettings()
			turning(&cfg)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			got := Calculate(tt.state, cfg)
			if !approx(got.Turn, tt.want) {
				t.Errorf("Turn = %v, want %v (vector %+v)", got.Turn, tt.want, got)
			}
		})
	}
}

func TestCalculateOutputBounded(t *testing.T) {
	values := []float32{0, 0.1, 0.49, 0.5, 0.99, 1, 2.5}
	dirs := []Direction{Unknown, North, East, South, West}

	cfg := testSettings()
	cfg.TurningEnabled = true
	cfg.TurningMultiplier = 10
	cfg.StrengthMultiplier = 10
	cfg.UpDownCompensation = 3
	cfg.UpDownDeadzone = 10

	for _, dir := range dirs {
		for _, stretch := range values {
			for _, a := range values {
				for _, b := range values {
					s := State{
						Direction: dir, IsGrabbed: true, Stretch: stretch,
						XPos: a, XNeg: b, ZPos: b, ZNeg: a, YPos: a / 4, YNeg: b / 4,
					}
					v := Calculate(s, cfg)
					for _, axis := range []float32{v.Vertical, v.Horizontal, v.Turn} {
						if axis < -1 || axis > 1 || axis != axis {
							t.Fatalf("Calculate(%+v) = %+v out of range", s, v)
						}
					}
				}
			}
		}
	}
}

func TestSelectActive(t *testing.T) {
	tests := []struct {
		name     string
		devices  []State
		wantName string
		wantOK   bool
	}{
		{
			name:   "empty",
			wantOK: false,
		},
		{
			name:     "first grabbed wins",
			devices:  []State{{Name: "a"}, {Name: "b", IsGrabbed: true}, {Name: "c", IsGrabbed: true}},
			wantName: "b",
			wantOK:   true,
		},
		{
			name:     "none grabbed falls back to first",
			devices:  []State{{Name: "a"}, {Name: "b"}},
			wantName: "a",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectActive(tt.devices)
			if ok != tt.wantOK || got.Name != tt.wantName {
				t.Errorf("SelectActive() = (%q, %v), want (%q, %v)", got.Name, ok, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	cfg := testSettings()

	t.Run("empty registry emits full stop", func(t *testing.T) {
		v, ok := Process(nil, []string{"ghost"}, cfg)
		if !ok || v != Stop {
			t.Errorf("Process() = (%+v, %v), want (Stop, true)", v, ok)
		}
	})

	t.Run("active device not in batch skips", func(t *testing.T) {
		devices := []State{
			{Name: "a", IsGrabbed: true, Stretch: 0.5, ZPos: 1},
			{Name: "b", IsGrabbed: false},
		}
		if _, ok := Process(devices, []string{"b"}, cfg); ok {
			t.Error("Process() should skip when the grabbed device has no new data")
		}
	})

	t.Run("two ungrabbed devices use the first", func(t *testing.T) {
		devices := []State{
			{Name: "first", IsGrabbed: false, Stretch: 0, ZPos: 1},
			{Name: "second", IsGrabbed: false, Stretch: 0, XPos: 1},
		}
		v, ok := Process(devices, []string{"first", "second"}, cfg)
		if !ok || v != Stop {
			t.Errorf("Process() = (%+v, %v), want (Stop, true)", v, ok)
		}
		if _, ok := Process(devices, []string{"second"}, cfg); ok {
			t.Error("Process() should skip when only the fallback's sibling changed")
		}
	})

	t.Run("grabbed device in batch calculates", func(t *testing.T) {
		devices := []State{
			{Name: "a"},
			{Name: "hip", IsGrabbed: true, Stretch: 0.5, ZPos: 0.8},
		}
		v, ok := Process(devices, []string{"a", "hip"}, cfg)
		if !ok || !vectorsEqual(v, Vector{Vertical: 0.4}) {
			t.Errorf("Process() = (%+v, %v)", v, ok)
		}
	})
}

func TestVectorSpeed(t *testing.T) {
	v := Vector{Vertical: -0.7, Horizontal: 0.3}
	if !approx(v.Speed(), 0.7) {
		t.Errorf("Speed() = %v, want 0.7", v.Speed())
	}
	if !v.Moving() {
		t.Error("Moving() = false, want true")
	}
	if (Vector{Turn: 1}).Moving() {
		t.Error("turn alone is not planar movement")
	}
}
