package settings

import (
	"fmt"
	"net"
	"strings"
)

// Bounds for the float tunables.
const (
	MinTunable = 0.0
	MaxTunable = 10.0
)

// Settings is the leash tuning snapshot.
type Settings struct {
	// IP is the local address the OSCQuery service is advertised on.
	IP string `yaml:"ip" json:"ip"`

	RunDeadzone        float32 `yaml:"run_deadzone" json:"run_deadzone"`
	WalkDeadzone       float32 `yaml:"walk_deadzone" json:"walk_deadzone"`
	StrengthMultiplier float32 `yaml:"strength_multiplier" json:"strength_multiplier"`

	// UpDownCompensation of 0 disables compensation.
	UpDownCompensation float32 `yaml:"up_down_compensation" json:"up_down_compensation"`
	UpDownDeadzone     float32 `yaml:"up_down_deadzone" json:"up_down_deadzone"`

	TurningEnabled    bool    `yaml:"turning_enabled" json:"turning_enabled"`
	TurningMultiplier float32 `yaml:"turning_multiplier" json:"turning_multiplier"`
	TurningDeadzone   float32 `yaml:"turning_deadzone" json:"turning_deadzone"`

	// TurningGoal is in degrees, 0 to 180.
	TurningGoal int `yaml:"turning_goal" json:"turning_goal"`
}

// Default returns the settings written to a fresh settings file.
func Default() Settings {
	return Settings{
		IP:                 "127.0.0.1",
		RunDeadzone:        0.70,
		WalkDeadzone:       0.15,
		StrengthMultiplier: 1.2,
		UpDownCompensation: 1.0,
		UpDownDeadzone:     0.5,
		TurningEnabled:     false,
		TurningMultiplier:  0.80,
		TurningDeadzone:    0.15,
		TurningGoal:        90,
	}
}

// LocalIP parses the configured IP.
func (s Settings) LocalIP() (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(s.IP))
	if ip == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, s.IP)
	}
	return ip, nil
}

// Validate checks every field and reports all problems at once.
func (s Settings) Validate() error {
	var errs []string

	if _, err := s.LocalIP(); err != nil {
		errs = append(errs, "ip must be a valid IP address")
	}

	tunables := []struct {
		name  string
		value float32
	}{
		{"run_deadzone", s.RunDeadzone},
		{"walk_deadzone", s.WalkDeadzone},
		{"strength_multiplier", s.StrengthMultiplier},
		{"up_down_compensation", s.UpDownCompensation},
		{"up_down_deadzone", s.UpDownDeadzone},
		{"turning_multiplier", s.TurningMultiplier},
		{"turning_deadzone", s.TurningDeadzone},
	}
	for _, t := range tunables {
		if t.value < MinTunable || t.value > MaxTunable {
			errs = append(errs, fmt.Sprintf("%s must be between %g and %g", t.name, MinTunable, MaxTunable))
		}
	}

	if s.TurningGoal < 0 || s.TurningGoal > 180 {
		errs = append(errs, "turning_goal must be between 0 and 180 degrees")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}
