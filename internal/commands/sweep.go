package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dotcommander/doccache/internal/app"
	"github.com/dotcommander/doccache/internal/manager"
	"github.com/dotcommander/doccache/internal/output"
	"github.com/dotcommander/doccache/internal/store"
)

// NewSweepCmd creates the sweep command.
func NewSweepCmd() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired records from the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && interval <= 0 {
				return cmdErr(errors.New("--interval must be positive"))
			}
			return withStore(cmdContext(cmd), func(h *manager.Handle, cfg app.Config) error {
				sw := store.NewSweeper(h.Store, interval)
				if watch {
					return runSweepLoop(cmdContext(cmd), sw)
				}

				removed, err := sw.SweepOnce(cmdContext(cmd))
				if err != nil {
					return err
				}
				type resp struct {
					Collection string `json:"collection"`
					Removed    int64  `json:"removed"`
				}
				return output.PrintSuccess(resp{Collection: cfg.Collection, Removed: removed})
			})
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep sweeping until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", store.DefaultSweepInterval, "Time between sweeps with --watch")
	return cmd
}

func runSweepLoop(parent context.Context, sw *store.Sweeper) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("sweeper started")
	err := sw.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("sweeper stopped")
		return output.PrintSuccess(struct {
			Stopped bool `json:"stopped"`
		}{Stopped: true})
	}
	return err
}
