// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging, metrics and debug introspection for serbridge.
//
// Provides:
//   - YAML/env configuration loading with CLI overrides and file watching
//   - A zap logger with optional lumberjack file rotation
//   - Prometheus counters fed by the relay observer hooks
//   - Debug probes exported as JSON next to the metrics endpoint
package control
