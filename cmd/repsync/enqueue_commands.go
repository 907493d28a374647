package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jaronwright/repsync/internal/queue"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Queue workout session mutations",
	}

	sessionCmd.AddCommand(newSessionStartCommand(ctx))
	sessionCmd.AddCommand(newSessionCompleteCommand(ctx))

	return sessionCmd
}

func newSessionStartCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var workoutDayID string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Queue starting a session from a plan day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" || strings.TrimSpace(workoutDayID) == "" {
				return fmt.Errorf("--user and --day are required")
			}
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				clientID := newClientID()
				m, err := store.Enqueue(cmd.Context(), queue.TypeStartSession, clientID, queue.StartSessionPayload{
					UserID:       userID,
					WorkoutDayID: workoutDayID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued session start %s (session id %s)\n", m.ID, clientID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User identifier")
	cmd.Flags().StringVar(&workoutDayID, "day", "", "Workout day identifier from the plan")
	return cmd
}

func newSessionCompleteCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "complete <sessionID>",
		Short: "Queue completing a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				m, err := store.Enqueue(cmd.Context(), queue.TypeCompleteSession, newClientID(), queue.CompleteSessionPayload{
					SessionID: args[0],
					Notes:     notes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued session completion %s\n", m.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Session notes")
	return cmd
}

func newSetCommand(ctx *commandContext) *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Queue set mutations",
	}

	setCmd.AddCommand(newSetLogCommand(ctx))
	setCmd.AddCommand(newSetUpdateCommand(ctx))
	setCmd.AddCommand(newSetDeleteCommand(ctx))

	return setCmd
}

func newSetLogCommand(ctx *commandContext) *cobra.Command {
	var sessionID string
	var exerciseID string
	var setNumber int
	var reps int
	var weight float64

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Queue logging a completed set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(exerciseID) == "" {
				return fmt.Errorf("--session and --exercise are required")
			}
			if setNumber <= 0 {
				return fmt.Errorf("--set-number must be positive")
			}
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				m, err := store.Enqueue(cmd.Context(), queue.TypeLogSet, newClientID(), queue.LogSetPayload{
					SessionID:      sessionID,
					PlanExerciseID: exerciseID,
					SetNumber:      setNumber,
					RepsCompleted:  reps,
					WeightUsed:     weight,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued set log %s\n", m.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier (server or local)")
	cmd.Flags().StringVar(&exerciseID, "exercise", "", "Plan exercise identifier")
	cmd.Flags().IntVar(&setNumber, "set-number", 0, "Set number within the exercise")
	cmd.Flags().IntVar(&reps, "reps", 0, "Repetitions completed")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Weight used")
	return cmd
}

func newSetUpdateCommand(ctx *commandContext) *cobra.Command {
	var reps int
	var weight float64

	cmd := &cobra.Command{
		Use:   "update <setID>",
		Short: "Queue editing a logged set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				m, err := store.Enqueue(cmd.Context(), queue.TypeUpdateSet, newClientID(), queue.UpdateSetPayload{
					SetID:         args[0],
					RepsCompleted: reps,
					WeightUsed:    weight,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued set update %s\n", m.ID)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&reps, "reps", 0, "Repetitions completed")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Weight used")
	return cmd
}

func newSetDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <setID>",
		Short: "Queue removing a logged set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				m, err := store.Enqueue(cmd.Context(), queue.TypeDeleteSet, newClientID(), queue.DeleteSetPayload{
					SetID: args[0],
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued set deletion %s\n", m.ID)
				return nil
			})
		},
	}
}

func newTemplateCommand(ctx *commandContext) *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Queue template session mutations",
	}

	templateCmd.AddCommand(newTemplateStartCommand(ctx))
	templateCmd.AddCommand(newTemplateCompleteCommand(ctx))
	templateCmd.AddCommand(newTemplateQuickLogCommand(ctx))

	return templateCmd
}

func newTemplateStartCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var templateID string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Queue starting a template session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" || strings.TrimSpace(templateID) == "" {
				return fmt.Errorf("--user and --template are required")
			}
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				clientID := newClientID()
				m, err := store.Enqueue(cmd.Context(), queue.TypeStartTemplate, clientID, queue.StartTemplatePayload{
					UserID:     userID,
					TemplateID: templateID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued template start %s (session id %s)\n", m.ID, clientID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User identifier")
	cmd.Flags().StringVar(&templateID, "template", "", "Template identifier")
	return cmd
}

func newTemplateCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <sessionID>",
		Short: "Queue completing a template session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				m, err := store.Enqueue(cmd.Context(), queue.TypeCompleteTemplate, newClientID(), queue.CompleteTemplatePayload{
					SessionID: args[0],
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued template completion %s\n", m.ID)
				return nil
			})
		},
	}
}

func newTemplateQuickLogCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var templateID string
	var performedAt string

	cmd := &cobra.Command{
		Use:   "quick-log",
		Short: "Queue logging a whole template workout as done",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" || strings.TrimSpace(templateID) == "" {
				return fmt.Errorf("--user and --template are required")
			}
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				clientID := newClientID()
				m, err := store.Enqueue(cmd.Context(), queue.TypeQuickLogTemplate, clientID, queue.QuickLogTemplatePayload{
					UserID:      userID,
					TemplateID:  templateID,
					PerformedAt: performedAt,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued quick log %s (session id %s)\n", m.ID, clientID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User identifier")
	cmd.Flags().StringVar(&templateID, "template", "", "Template identifier")
	cmd.Flags().StringVar(&performedAt, "performed-at", "", "Date the workout happened (defaults to now on the server)")
	return cmd
}

// newClientID mints a local identifier for entities the server has not seen
// yet. The resolver maps it to the server ID once the creation syncs.
func newClientID() string {
	return "local-" + uuid.NewString()
}
