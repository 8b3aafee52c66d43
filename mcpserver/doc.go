// Package mcpserver exposes the profile operations as MCP tools.
//
// Every tool call gets a request id and then passes, in order, through the
// optional concurrency cap, telemetry, the optional result cache and
// finally profile.Service. Results are returned as JSON text. Upstream and
// transport failures are ordinary tool results flagged isError; only a
// failed login (or a full bulkhead) fails the invocation itself.
package mcpserver
