// Package scheduler triggers sync passes on connectivity and queue signals,
// then fans the result out to cache invalidation and user notifications.
package scheduler
