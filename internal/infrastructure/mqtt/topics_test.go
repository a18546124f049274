package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/nerrad567/oscleash/internal/infrastructure/config"
)

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("desk")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Health", topics.Health(), "oscleash/desk/health"},
		{"StatusConnection", topics.StatusConnection(), "oscleash/desk/status/connection"},
		{"StatusMovement", topics.StatusMovement(), "oscleash/desk/status/movement"},
		{"StatusError", topics.StatusError(), "oscleash/desk/status/error"},
		{"AllStatus", topics.AllStatus(), "oscleash/desk/status/+"},
		{"SettingsCommand", topics.SettingsCommand(), "oscleash/desk/command/settings"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "leash"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "oscleash-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "leash" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}

	cfg.Broker.TLS = true
	opts = buildClientOptions(cfg)
	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(config.MQTTConfig{})
	configureLWT(opts, NewTopics("desk"), "oscleash")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Error("LWT should be enabled and retained")
	}
	if opts.WillTopic != "oscleash/desk/health" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var body healthPayload
	if err := json.Unmarshal(opts.WillPayload, &body); err != nil {
		t.Fatalf("WillPayload not JSON: %v", err)
	}
	if body.Status != "offline" || body.Reason != "unexpected_disconnect" {
		t.Errorf("WillPayload = %+v", body)
	}
}
