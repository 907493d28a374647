package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaronwright/repsync/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the offline mutation queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueMappingsCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if stats.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := [][]string{
					{string(queue.StatusPending), strconv.Itoa(stats.Pending)},
					{string(queue.StatusSyncing), strconv.Itoa(stats.Syncing)},
					{string(queue.StatusFailed), strconv.Itoa(stats.Failed)},
					{"total", strconv.Itoa(stats.Total)},
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []queue.Status
			for _, value := range listStatuses {
				status, ok := queue.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				colorize := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						string(item.Type),
						renderStatus(item.Status, colorize),
						strconv.Itoa(item.RetryCount),
						item.CreatedAt.Local().Format(time.DateTime),
						item.Error,
					})
				}
				table := renderTable(
					[]string{"ID", "Type", "Status", "Retries", "Created", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func renderStatus(status queue.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case queue.StatusFailed:
		return ansiRed + string(status) + ansiReset
	case queue.StatusSyncing:
		return ansiYellow + string(status) + ansiReset
	default:
		return string(status)
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [mutationID...]",
		Short: "Reset failed mutations to pending with a fresh retry budget",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				updated, err := store.RetryFailed(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed mutations\n", updated)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued mutation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d mutations\n", removed)
				return nil
			})
		},
	}
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove permanently failed mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				removed, err := store.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed mutations\n", removed)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	var byClientID bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a single mutation by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				if byClientID {
					removed, err := store.DequeueByClientID(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d mutations for client id %s\n", removed, args[0])
					return nil
				}

				removed, err := store.Dequeue(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(out, "Mutation %s not found\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Removed mutation %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&byClientID, "client-id", false, "Treat the argument as a client ID")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight mutations to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				// withStore already resets stuck rows on open; report the
				// current state so the command stays useful as a check.
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queue: %d pending, %d failed\n", stats.Pending, stats.Failed)
				return nil
			})
		},
	}
}

func newQueueMappingsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings",
		Short: "Show resolved client/server ID pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				mappings, err := store.Mappings(cmd.Context())
				if err != nil {
					return err
				}
				if len(mappings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No ID mappings recorded")
					return nil
				}

				clientIDs := make([]string, 0, len(mappings))
				for clientID := range mappings {
					clientIDs = append(clientIDs, clientID)
				}
				sort.Strings(clientIDs)

				rows := make([][]string, 0, len(mappings))
				for _, clientID := range clientIDs {
					rows = append(rows, []string{clientID, mappings[clientID]})
				}
				table := renderTable([]string{"Client ID", "Server ID"}, rows, []columnAlignment{alignLeft, alignLeft})
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}
