// Package syncengine drains the offline mutation queue against the remote
// API. A pass replays mutations in creation order, retries business
// rejections with backoff, stops at the first sign of lost connectivity,
// and skips mutations whose session creation has permanently failed.
package syncengine
