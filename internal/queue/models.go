package queue

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a queued mutation. Successful mutations
// are removed from the queue, so there is no terminal "synced" status.
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusSyncing,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// MutationType identifies which remote operation a mutation replays. The set
// is closed; the executor dispatches over it exhaustively.
type MutationType string

const (
	TypeStartSession     MutationType = "start-session"
	TypeLogSet           MutationType = "log-set"
	TypeUpdateSet        MutationType = "update-set"
	TypeDeleteSet        MutationType = "delete-set"
	TypeCompleteSession  MutationType = "complete-session"
	TypeStartTemplate    MutationType = "start-template"
	TypeCompleteTemplate MutationType = "complete-template"
	TypeQuickLogTemplate MutationType = "quick-log-template"
)

var allTypes = []MutationType{
	TypeStartSession,
	TypeLogSet,
	TypeUpdateSet,
	TypeDeleteSet,
	TypeCompleteSession,
	TypeStartTemplate,
	TypeCompleteTemplate,
	TypeQuickLogTemplate,
}

var typeSet = func() map[MutationType]struct{} {
	set := make(map[MutationType]struct{}, len(allTypes))
	for _, t := range allTypes {
		set[t] = struct{}{}
	}
	return set
}()

// ParseMutationType converts a string into a known MutationType.
func ParseMutationType(value string) (MutationType, bool) {
	normalized := MutationType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := typeSet[normalized]
	return normalized, ok
}

// CreatesSession reports whether a mutation of this type creates a session on
// the server. When such a mutation fails permanently its client ID poisons
// every later mutation that references it.
func (t MutationType) CreatesSession() bool {
	switch t {
	case TypeStartSession, TypeStartTemplate, TypeQuickLogTemplate:
		return true
	default:
		return false
	}
}

// Mutation is one deferred write persisted in SQLite.
type Mutation struct {
	ID         string
	Type       MutationType
	Payload    json.RawMessage
	ClientID   string
	Status     Status
	RetryCount int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DecodePayload unmarshals the mutation payload into the given struct.
func (m *Mutation) DecodePayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// SessionRef returns the session identifier the payload references, or the
// empty string when the payload carries none. The value may be a client ID
// that has not been resolved to a server ID yet.
func (m *Mutation) SessionRef() string {
	var ref struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(m.Payload, &ref); err != nil {
		return ""
	}
	return ref.SessionID
}

// StartSessionPayload starts a workout session from a plan day.
type StartSessionPayload struct {
	UserID       string `json:"userId"`
	WorkoutDayID string `json:"workoutDayId"`
}

// LogSetPayload records one completed set within a session.
type LogSetPayload struct {
	SessionID      string  `json:"sessionId"`
	PlanExerciseID string  `json:"planExerciseId"`
	SetNumber      int     `json:"setNumber"`
	RepsCompleted  int     `json:"repsCompleted"`
	WeightUsed     float64 `json:"weightUsed"`
}

// UpdateSetPayload edits a previously logged set.
type UpdateSetPayload struct {
	SetID         string  `json:"setId"`
	RepsCompleted int     `json:"repsCompleted"`
	WeightUsed    float64 `json:"weightUsed"`
}

// DeleteSetPayload removes a previously logged set.
type DeleteSetPayload struct {
	SetID string `json:"setId"`
}

// CompleteSessionPayload finishes a workout session.
type CompleteSessionPayload struct {
	SessionID string `json:"sessionId"`
	Notes     string `json:"notes,omitempty"`
}

// StartTemplatePayload starts a session from a standalone template.
type StartTemplatePayload struct {
	UserID     string `json:"userId"`
	TemplateID string `json:"templateId"`
}

// CompleteTemplatePayload finishes a template session.
type CompleteTemplatePayload struct {
	SessionID string `json:"sessionId"`
}

// QuickLogTemplatePayload records a template workout as done in one step.
type QuickLogTemplatePayload struct {
	UserID      string `json:"userId"`
	TemplateID  string `json:"templateId"`
	PerformedAt string `json:"performedAt,omitempty"`
}

// StatsSummary aggregates queue counts per status.
type StatsSummary struct {
	Total   int
	Pending int
	Syncing int
	Failed  int
}
