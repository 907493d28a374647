// Package netstate tracks whether the remote workout API is reachable by
// polling its health endpoint.
package netstate
