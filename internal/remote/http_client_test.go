package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaronwright/repsync/internal/remote"
)

func TestCreateSessionPostsJSONAndDecodes(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(remote.Session{ID: "s1", UserID: "u1", WorkoutDayID: "d1"})
	}))
	defer server.Close()

	client := remote.NewHTTPClientWithDoer(server.URL, "tok-123", server.Client())
	session, err := client.CreateSession(context.Background(), "u1", "d1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.ID != "s1" {
		t.Fatalf("unexpected session: %#v", session)
	}
	if gotPath != "POST /sessions" {
		t.Fatalf("unexpected request: %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotBody["workoutDayId"] != "d1" {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
}

func TestListSetsDecodesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/s1/sets" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]remote.SetRecord{
			{ID: "set-1", SessionID: "s1", PlanExerciseID: "e1", SetNumber: 1, RepsCompleted: 10, WeightUsed: 135},
		})
	}))
	defer server.Close()

	client := remote.NewHTTPClientWithDoer(server.URL, "", server.Client())
	records, err := client.ListSets(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListSets failed: %v", err)
	}
	if len(records) != 1 || records[0].SetNumber != 1 {
		t.Fatalf("unexpected records: %#v", records)
	}
}

func TestNonSuccessStatusReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "set number already logged", http.StatusConflict)
	}))
	defer server.Close()

	client := remote.NewHTTPClientWithDoer(server.URL, "", server.Client())
	err := client.LogSet(context.Background(), remote.SetEntry{SessionID: "s1", PlanExerciseID: "e1", SetNumber: 1})
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *remote.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.Code != http.StatusConflict {
		t.Fatalf("unexpected code: %d", statusErr.Code)
	}
	if remote.IsNetworkError(err) {
		t.Fatal("status errors must not classify as network errors")
	}
}

func TestTransportFailureClassifiesAsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := remote.NewHTTPClientWithDoer(server.URL, "", server.Client())
	server.Close()

	err := client.DeleteSet(context.Background(), "set-1")
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !remote.IsNetworkError(err) {
		t.Fatalf("expected network classification, got %v", err)
	}
}

func TestDeleteAndUpdateSetPaths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := remote.NewHTTPClientWithDoer(server.URL, "", server.Client())
	ctx := context.Background()
	if err := client.UpdateSet(ctx, "set-9", 8, 145); err != nil {
		t.Fatalf("UpdateSet failed: %v", err)
	}
	if err := client.DeleteSet(ctx, "set-9"); err != nil {
		t.Fatalf("DeleteSet failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "PATCH /sets/set-9" || paths[1] != "DELETE /sets/set-9" {
		t.Fatalf("unexpected requests: %v", paths)
	}
}

func TestQuickLogTemplateSessionReturnsCreatedSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/template-sessions/quick-log" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["performedAt"] != "2026-08-01T10:00:00Z" {
			t.Errorf("unexpected body: %#v", body)
		}
		_ = json.NewEncoder(w).Encode(remote.Session{ID: "ts1", TemplateID: body["templateId"]})
	}))
	defer server.Close()

	client := remote.NewHTTPClientWithDoer(server.URL, "", server.Client())
	session, err := client.QuickLogTemplateSession(context.Background(), "u1", "tpl-1", "2026-08-01T10:00:00Z")
	if err != nil {
		t.Fatalf("QuickLogTemplateSession failed: %v", err)
	}
	if session.ID != "ts1" {
		t.Fatalf("unexpected session: %#v", session)
	}
}
