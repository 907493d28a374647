package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaronwright/repsync/internal/notifications"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			pending, err := rt.store.PendingCount(cmd.Context())
			if err != nil {
				return err
			}
			if pending == 0 {
				fmt.Fprintln(out, "Nothing to sync")
				return nil
			}

			res := rt.scheduler.RunOnce(cmd.Context())
			switch {
			case res.Interrupted && res.Synced == 0:
				fmt.Fprintln(out, "Sync interrupted: remote API unreachable")
			case res.Interrupted:
				fmt.Fprintf(out, "Sync interrupted after %s\n", notifications.Summary(res.Synced, res.Failed))
			default:
				fmt.Fprintln(out, notifications.Summary(res.Synced, res.Failed))
			}
			return nil
		},
	}
}
