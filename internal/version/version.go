// Package version carries build identity for the CLI and the API.
package version

// Version is the semantic version of the service.
// It can be overridden at build time via -ldflags.
var Version = "0.1.0"

// Service is the human-readable service name reported by health checks.
const Service = "AI PLC Diagnostic API"
