// Package config loads and validates the OSCLeash service configuration.
//
// This package manages:
//   - Loading configuration from a YAML file (optional)
//   - Overriding with OSCLEASH_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Leash tuning (deadzones, multipliers, turning) is not part of this file.
// It lives in the settings file named by settings.path and is owned by
// internal/settings, which hot-reloads it.
//
// Secrets (MQTT password, InfluxDB token, JWT secret) should be provided
// through the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/oscleash.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.OSC.ServiceName)
package config
