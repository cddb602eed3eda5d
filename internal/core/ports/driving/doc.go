// Package driving lists what the CLI, MCP server, watcher and TUI may ask
// of the core. internal/core/services provides the implementations.
package driving
