package settings

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:    "bad ip",
			mutate:  func(s *Settings) { s.IP = "localhost" },
			wantErr: "ip must be a valid IP address",
		},
		{
			name:    "empty ip",
			mutate:  func(s *Settings) { s.IP = "" },
			wantErr: "ip must be a valid IP address",
		},
		{
			name:    "ipv6 is fine",
			mutate:  func(s *Settings) { s.IP = "::1" },
			wantErr: "",
		},
		{
			name:    "negative deadzone",
			mutate:  func(s *Settings) { s.RunDeadzone = -0.1 },
			wantErr: "run_deadzone must be between 0 and 10",
		},
		{
			name:    "multiplier too large",
			mutate:  func(s *Settings) { s.StrengthMultiplier = 11 },
			wantErr: "strength_multiplier must be between 0 and 10",
		},
		{
			name:    "compensation may be zero",
			mutate:  func(s *Settings) { s.UpDownCompensation = 0 },
			wantErr: "",
		},
		{
			name:    "turning goal out of range",
			mutate:  func(s *Settings) { s.TurningGoal = 270 },
			wantErr: "turning_goal must be between 0 and 180 degrees",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	s := Default()
	s.IP = "nope"
	s.WalkDeadzone = 20
	s.TurningGoal = -1

	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	if got := strings.Count(err.Error(), ";"); got != 2 {
		t.Errorf("expected 3 joined errors, got %q", err)
	}
}

func TestLocalIP(t *testing.T) {
	s := Default()
	s.IP = " 192.168.1.20 "
	ip, err := s.LocalIP()
	if err != nil {
		t.Fatalf("LocalIP() error = %v", err)
	}
	if ip.String() != "192.168.1.20" {
		t.Errorf("LocalIP() = %v", ip)
	}

	s.IP = "999.0.0.1"
	if _, err := s.LocalIP(); !errors.Is(err, ErrInvalidIP) {
		t.Errorf("LocalIP() error = %v, want ErrInvalidIP", err)
	}
}
