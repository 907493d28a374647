// Package remote defines the closed set of workout API operations queued
// mutations replay against, an HTTP implementation of that set, and the
// network-error classifier the sync engine uses to distinguish connectivity
// loss from business failures.
package remote
