package leash

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateApply(t *testing.T) {
	base := State{Name: "Tail", Direction: North, IsGrabbed: true, Stretch: 0.7, XPos: 0.1}

	tests := []struct {
		name  string
		param Param
		value any
		want  State
	}{
		{
			name:  "float sets stretch",
			param: ParamStretch,
			value: float32(0.25),
			want:  State{Name: "Tail", Direction: North, IsGrabbed: true, Stretch: 0.25, XPos: 0.1},
		},
		{
			name:  "float64 from json sets z+",
			param: ParamZPos,
			value: float64(0.5),
			want:  State{Name: "Tail", Direction: North, IsGrabbed: true, Stretch: 0.7, XPos: 0.1, ZPos: 0.5},
		},
		{
			name:  "each negative axis is independent",
			param: ParamYNeg,
			value: float32(0.3),
			want:  State{Name: "Tail", Direction: North, IsGrabbed: true, Stretch: 0.7, XPos: 0.1, YNeg: 0.3},
		},
		{
			name:  "release zeroes stretch",
			param: ParamIsGrabbed,
			value: false,
			want:  State{Name: "Tail", Direction: North, IsGrabbed: false, Stretch: 0, XPos: 0.1},
		},
		{
			name:  "grab keeps stretch",
			param: ParamIsGrabbed,
			value: true,
			want:  base,
		},
		{
			name:  "bool for float key is a no-op",
			param: ParamStretch,
			value: true,
			want:  base,
		},
		{
			name:  "float for grab key is a no-op",
			param: ParamIsGrabbed,
			value: float32(0),
			want:  base,
		},
		{
			name:  "integer is not a float",
			param: ParamXPos,
			value: int32(1),
			want:  base,
		},
		{
			name:  "unknown param is a no-op",
			param: ParamUnknown,
			value: float32(1),
			want:  base,
		},
		{
			name:  "nil value is a no-op",
			param: ParamXNeg,
			value: nil,
			want:  base,
		},
		{
			name:  "angle never mutates state",
			param: ParamAngle,
			value: float32(0.9),
			want:  base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Apply(tt.param, tt.value)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateApplyReleaseAlwaysZeroesStretch(t *testing.T) {
	for _, stretch := range []float32{0, 0.01, 0.5, 1, 3.2} {
		for _, grabbed := range []bool{true, false} {
			s := State{Name: "x", IsGrabbed: grabbed, Stretch: stretch}
			got := s.Apply(ParamIsGrabbed, false)
			if got.Stretch != 0 || got.IsGrabbed {
				t.Errorf("release from (grabbed=%v, stretch=%v) = %+v", grabbed, stretch, got)
			}
		}
	}
}

func TestStateApplyDoesNotMutateReceiver(t *testing.T) {
	s := State{Name: "x", Stretch: 0.4}
	_ = s.Apply(ParamStretch, float32(0.9))
	if s.Stretch != 0.4 {
		t.Errorf("receiver mutated: Stretch = %v", s.Stretch)
	}
}

// Replaying a recorded update sequence onto a fresh state must land on the
// same result as applying it live; the last write per key wins.
func TestStateApplyReplay(t *testing.T) {
	type update struct {
		param Param
		value any
	}
	updates := []update{
		{ParamStretch, float32(0.3)},
		{ParamIsGrabbed, true},
		{ParamZPos, float32(0.8)},
		{ParamStretch, float32(0.6)},
		{ParamIsGrabbed, false},
		{ParamIsGrabbed, true},
		{ParamStretch, float32(0.4)},
		{ParamXNeg, float32(0.2)},
		{ParamZPos, float32(0.1)},
	}

	live := NewState("Tail", South)
	var recorded []update
	for _, u := range updates {
		live = live.Apply(u.param, u.value)
		recorded = append(recorded, u)
	}

	replayed := NewState("Tail", South)
	for _, u := range recorded {
		replayed = replayed.Apply(u.param, u.value)
	}

	if diff := cmp.Diff(live, replayed); diff != "" {
		t.Errorf("replay mismatch (-live +replayed):\n%s", diff)
	}

	want := State{Name: "Tail", Direction: South, IsGrabbed: true, Stretch: 0.4, ZPos: 0.1, XNeg: 0.2}
	if diff := cmp.Diff(want, live); diff != "" {
		t.Errorf("final state mismatch (-want +got):\n%s", diff)
	}
}
