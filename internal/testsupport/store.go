package testsupport

import (
	"context"
	"testing"

	"github.com/jaronwright/repsync/internal/config"
	"github.com/jaronwright/repsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Enqueue appends a mutation for tests using the provided store.
func Enqueue(t testing.TB, store *queue.Store, typ queue.MutationType, clientID string, payload any) *queue.Mutation {
	t.Helper()

	mutation, err := store.Enqueue(context.Background(), typ, clientID, payload)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return mutation
}
