package remote

import "context"

// Session is a workout session as the server reports it, with its
// server-assigned identifier.
type Session struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	WorkoutDayID string `json:"workoutDayId,omitempty"`
	TemplateID   string `json:"templateId,omitempty"`
	StartedAt    string `json:"startedAt,omitempty"`
	CompletedAt  string `json:"completedAt,omitempty"`
}

// SetRecord is a logged set as the server reports it.
type SetRecord struct {
	ID             string  `json:"id"`
	SessionID      string  `json:"sessionId"`
	PlanExerciseID string  `json:"planExerciseId"`
	SetNumber      int     `json:"setNumber"`
	RepsCompleted  int     `json:"repsCompleted"`
	WeightUsed     float64 `json:"weightUsed"`
}

// SetEntry carries the arguments for logging one set.
type SetEntry struct {
	SessionID      string  `json:"sessionId"`
	PlanExerciseID string  `json:"planExerciseId"`
	SetNumber      int     `json:"setNumber"`
	RepsCompleted  int     `json:"repsCompleted"`
	WeightUsed     float64 `json:"weightUsed"`
}

// Operations is the closed set of remote calls the executor replays queued
// mutations against. All identifiers passed in are server IDs; resolution of
// client-generated IDs happens before this interface is reached.
type Operations interface {
	CreateSession(ctx context.Context, userID, workoutDayID string) (*Session, error)
	CompleteSession(ctx context.Context, sessionID, notes string) error
	LogSet(ctx context.Context, entry SetEntry) error
	ListSets(ctx context.Context, sessionID string) ([]SetRecord, error)
	UpdateSet(ctx context.Context, setID string, repsCompleted int, weightUsed float64) error
	DeleteSet(ctx context.Context, setID string) error
	CreateTemplateSession(ctx context.Context, userID, templateID string) (*Session, error)
	CompleteTemplateSession(ctx context.Context, sessionID string) error
	QuickLogTemplateSession(ctx context.Context, userID, templateID, performedAt string) (*Session, error)
}
