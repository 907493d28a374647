package main

import (
	"testing"
)

func TestQueueStatusEmpty(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status failed: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestSessionStartAppearsInQueueList(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "session", "start", "--user", "u1", "--day", "d1")
	if err != nil {
		t.Fatalf("session start failed: %v", err)
	}
	requireContains(t, out, "Queued session start")

	out, _, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list failed: %v", err)
	}
	requireContains(t, out, "start-session")
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, configPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status failed: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "1")
}

func TestSessionStartRequiresFlags(t *testing.T) {
	configPath := writeCLIConfig(t)

	if _, _, err := runCLI(t, configPath, "session", "start", "--user", "u1"); err == nil {
		t.Fatal("expected error when --day is missing")
	}
}

func TestSetLogValidatesSetNumber(t *testing.T) {
	configPath := writeCLIConfig(t)

	_, _, err := runCLI(t, configPath, "set", "log",
		"--session", "s1", "--exercise", "e1", "--set-number", "0", "--reps", "10")
	if err == nil {
		t.Fatal("expected error for non-positive set number")
	}
}

func TestQueueClearRemovesEverything(t *testing.T) {
	configPath := writeCLIConfig(t)

	if _, _, err := runCLI(t, configPath, "set", "delete", "set-1"); err != nil {
		t.Fatalf("set delete failed: %v", err)
	}
	if _, _, err := runCLI(t, configPath, "session", "complete", "s1"); err != nil {
		t.Fatalf("session complete failed: %v", err)
	}

	out, _, err := runCLI(t, configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear failed: %v", err)
	}
	requireContains(t, out, "Cleared 2 mutations")

	out, _, err = runCLI(t, configPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status failed: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueRemoveUnknownID(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "queue", "remove", "does-not-exist")
	if err != nil {
		t.Fatalf("queue remove failed: %v", err)
	}
	requireContains(t, out, "not found")
}

func TestQueueMappingsEmpty(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "queue", "mappings")
	if err != nil {
		t.Fatalf("queue mappings failed: %v", err)
	}
	requireContains(t, out, "No ID mappings recorded")
}

func TestSyncWithEmptyQueue(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "sync")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	requireContains(t, out, "Nothing to sync")
}
