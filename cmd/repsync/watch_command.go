package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/jaronwright/repsync/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch connectivity and sync the queue automatically",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(signalCtx, ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			lockPath := filepath.Join(rt.cfg.Paths.LogDir, "repsync.lock")
			lock := flock.New(lockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another repsync watcher is already running")
			}
			defer lock.Unlock()

			rt.logger.Info("watching for connectivity",
				logging.String("queue_db", rt.store.Path()),
				logging.String("lock_file", lockPath))

			go rt.monitor.Run(signalCtx)
			rt.scheduler.Run(signalCtx)

			rt.logger.Info("repsync watcher shutting down")
			return nil
		},
	}
}
