// Package notifications delivers run summaries and failures via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set, so workflow code
// can call it unconditionally.
package notifications
