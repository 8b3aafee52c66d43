// Package observe provides tracing, metrics and structured logging for
// tool calls.
//
// Telemetry never touches stdout: in stdio mode stdout carries the MCP
// protocol, so the logger and any stdout-style exporter write to the
// configured writer (stderr by default).
package observe
