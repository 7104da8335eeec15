package main

import (
	"context"
	"fmt"
	"io"

	"github.com/langowen/posratio/deploy/config"
	"github.com/langowen/posratio/internal/bootstrap"
	"github.com/langowen/posratio/internal/entities"
	"github.com/langowen/posratio/internal/refresh"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func refreshCmd() *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh POS ratios from the ratios API",
		Long: `Dispatch a message that makes the worker pull the ratio catalog,
store a new snapshot and drop the cached copy. With --sync the refresh runs
in this process instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			bootstrap.InitLogger(cfg.Log.Level)

			if err := checkRefreshDrivers(cfg, sync); err != nil {
				return err
			}

			deps := bootstrap.New(cfg)
			defer deps.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if sync {
				store, err := deps.Store(ctx, nil)
				if err != nil {
					return err
				}

				fmt.Fprintln(out, "Updating POS ratios...")
				if !store.Refresh(ctx) {
					return errors.New("failed to update POS ratios, see logs for details")
				}
				fmt.Fprintln(out, "POS ratios updated successfully!")

				return nil
			}

			publisher, err := deps.Publisher(ctx)
			if err != nil {
				return err
			}

			return dispatchRefresh(ctx, out, publisher)
		},
	}

	cmd.Flags().BoolVar(&sync, "sync", false, "Refresh in this process instead of dispatching a message")

	return cmd
}

// checkRefreshDrivers rejects setups where the CLI would act on state that
// lives only inside this short-lived process.
func checkRefreshDrivers(cfg *config.Config, sync bool) error {
	if sync && cfg.Ratios.CacheDriver == "memory" {
		return errors.New("refresh --sync cannot invalidate a memory cache held by another process, use cache driver redis or trigger the refresh through the API")
	}

	if !sync && cfg.Queue.Driver == "memory" {
		return errors.New("queue driver memory only works inside the API process, use redis or kafka, or trigger the refresh through the API")
	}

	return nil
}

func dispatchRefresh(ctx context.Context, out io.Writer, publisher refresh.Publisher) error {
	fmt.Fprintln(out, "Dispatching a message to update POS ratios...")

	msg, err := refresh.NewCoordinator(publisher).Trigger(ctx, entities.OriginCLI)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Message dispatched successfully! The worker will handle the update process asynchronously.")
	fmt.Fprintf(out, "Message id: %s\n", msg.ID)

	return nil
}
