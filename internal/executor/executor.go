package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaronwright/repsync/internal/logging"
	"github.com/jaronwright/repsync/internal/queue"
	"github.com/jaronwright/repsync/internal/remote"
)

// Executor translates one queued mutation into exactly one remote call.
// Client-generated IDs in payloads are resolved through the store's ID map
// before use; server IDs returned by creation calls are recorded back into it.
type Executor struct {
	store  *queue.Store
	ops    remote.Operations
	logger *slog.Logger
}

// New constructs an Executor.
func New(store *queue.Store, ops remote.Operations, logger *slog.Logger) *Executor {
	return &Executor{
		store:  store,
		ops:    ops,
		logger: logging.NewComponentLogger(logger, "executor"),
	}
}

// Execute dispatches the mutation to its remote operation. Remote errors
// propagate to the caller unmodified; the sync engine owns their
// classification and handling.
func (e *Executor) Execute(ctx context.Context, m *queue.Mutation) error {
	switch m.Type {
	case queue.TypeStartSession:
		return e.startSession(ctx, m)
	case queue.TypeLogSet:
		return e.logSet(ctx, m)
	case queue.TypeUpdateSet:
		return e.updateSet(ctx, m)
	case queue.TypeDeleteSet:
		return e.deleteSet(ctx, m)
	case queue.TypeCompleteSession:
		return e.completeSession(ctx, m)
	case queue.TypeStartTemplate:
		return e.startTemplate(ctx, m)
	case queue.TypeCompleteTemplate:
		return e.completeTemplate(ctx, m)
	case queue.TypeQuickLogTemplate:
		return e.quickLogTemplate(ctx, m)
	default:
		return fmt.Errorf("unknown mutation type %q", m.Type)
	}
}

func (e *Executor) startSession(ctx context.Context, m *queue.Mutation) error {
	var payload queue.StartSessionPayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode start-session payload: %w", err)
	}

	session, err := e.ops.CreateSession(ctx, payload.UserID, payload.WorkoutDayID)
	if err != nil {
		return err
	}
	return e.recordMapping(ctx, m, session.ID)
}

func (e *Executor) logSet(ctx context.Context, m *queue.Mutation) error {
	var payload queue.LogSetPayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode log-set payload: %w", err)
	}

	sessionID, err := e.store.Resolve(ctx, payload.SessionID)
	if err != nil {
		return err
	}

	// A previous attempt may have written the set even though the local
	// acknowledgment was lost. Match on the natural key before inserting.
	existing, err := e.ops.ListSets(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, record := range existing {
		if record.PlanExerciseID == payload.PlanExerciseID && record.SetNumber == payload.SetNumber {
			e.logger.Debug("set already recorded remotely, skipping insert",
				logging.String(logging.FieldMutationID, m.ID),
				logging.String("session_id", sessionID),
				logging.Int("set_number", payload.SetNumber),
			)
			return nil
		}
	}

	return e.ops.LogSet(ctx, remote.SetEntry{
		SessionID:      sessionID,
		PlanExerciseID: payload.PlanExerciseID,
		SetNumber:      payload.SetNumber,
		RepsCompleted:  payload.RepsCompleted,
		WeightUsed:     payload.WeightUsed,
	})
}

func (e *Executor) updateSet(ctx context.Context, m *queue.Mutation) error {
	var payload queue.UpdateSetPayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode update-set payload: %w", err)
	}

	setID, err := e.store.Resolve(ctx, payload.SetID)
	if err != nil {
		return err
	}
	return e.ops.UpdateSet(ctx, setID, payload.RepsCompleted, payload.WeightUsed)
}

func (e *Executor) deleteSet(ctx context.Context, m *queue.Mutation) error {
	var payload queue.DeleteSetPayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode delete-set payload: %w", err)
	}

	setID, err := e.store.Resolve(ctx, payload.SetID)
	if err != nil {
		return err
	}
	return e.ops.DeleteSet(ctx, setID)
}

func (e *Executor) completeSession(ctx context.Context, m *queue.Mutation) error {
	var payload queue.CompleteSessionPayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode complete-session payload: %w", err)
	}

	sessionID, err := e.store.Resolve(ctx, payload.SessionID)
	if err != nil {
		return err
	}
	return e.ops.CompleteSession(ctx, sessionID, payload.Notes)
}

func (e *Executor) startTemplate(ctx context.Context, m *queue.Mutation) error {
	var payload queue.StartTemplatePayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode start-template payload: %w", err)
	}

	session, err := e.ops.CreateTemplateSession(ctx, payload.UserID, payload.TemplateID)
	if err != nil {
		return err
	}
	return e.recordMapping(ctx, m, session.ID)
}

func (e *Executor) completeTemplate(ctx context.Context, m *queue.Mutation) error {
	var payload queue.CompleteTemplatePayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode complete-template payload: %w", err)
	}

	sessionID, err := e.store.Resolve(ctx, payload.SessionID)
	if err != nil {
		return err
	}
	return e.ops.CompleteTemplateSession(ctx, sessionID)
}

func (e *Executor) quickLogTemplate(ctx context.Context, m *queue.Mutation) error {
	var payload queue.QuickLogTemplatePayload
	if err := m.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode quick-log-template payload: %w", err)
	}

	session, err := e.ops.QuickLogTemplateSession(ctx, payload.UserID, payload.TemplateID, payload.PerformedAt)
	if err != nil {
		return err
	}
	return e.recordMapping(ctx, m, session.ID)
}

func (e *Executor) recordMapping(ctx context.Context, m *queue.Mutation, serverID string) error {
	if m.ClientID == "" || serverID == "" {
		return nil
	}
	if err := e.store.AddMapping(ctx, m.ClientID, serverID); err != nil {
		return fmt.Errorf("record id mapping: %w", err)
	}
	e.logger.Debug("recorded server id",
		logging.String(logging.FieldClientID, m.ClientID),
		logging.String("server_id", serverID),
	)
	return nil
}
