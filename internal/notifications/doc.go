// Package notifications delivers sync summaries via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The scheduler and CLI depend only on the Service interface, so
// alternative transports can be added without touching them.
package notifications
