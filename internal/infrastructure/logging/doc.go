// Package logging provides structured logging for hond.
//
// It wraps log/slog with JSON or text output, level filtering and default
// fields (service, version). Child loggers carry a component or an
// appliance MAC address:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("mqtt").Info("connected", "broker", host)
//	logger.Appliance(mac).Warn("catalog load failed", "error", err)
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log cloud tokens or broker passwords.
package logging
