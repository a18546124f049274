// Package logging provides structured logging for the OSCLeash service.
//
// It wraps log/slog so every record carries the service name and version,
// and so components can be tagged with Component:
//
//	logger, err := logging.New(cfg.Logging, version)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	logger.Component("osc").Info("client found", "peer", peer)
//
// Configuration:
//
//	logging:
//	  level: "info"     # debug, info, warn, error
//	  format: "text"    # text, json
//	  output: "stdout"  # stdout, stderr, or a file path
//
// The OSC receive path logs at debug level only; a client streams dozens of
// parameters per second and info-level logging there floods the output.
package logging
