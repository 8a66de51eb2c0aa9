package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dailyfix/pkg/outbox"
)

func newOutboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and replay outbox events",
	}

	var limit int
	failedCmd := &cobra.Command{
		Use:   "failed",
		Short: "List events that exhausted their retries",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				events, err := outbox.NewRepository(pool).ListFailed(ctx, limit)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					fmt.Println("no failed events")
					return nil
				}
				for _, ev := range events {
					fmt.Printf("%d\t%s\tretries=%d\t%s\n",
						ev.ID, ev.RoutingKey, ev.RetryCount, string(ev.Payload),
					)
				}
				return nil
			})
		},
	}
	failedCmd.Flags().IntVar(&limit, "limit", 50, "maximum events to list")

	replayCmd := &cobra.Command{
		Use:   "replay [event id]",
		Short: "Reset a failed event for redelivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad event id %q", args[0])
			}
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				if err := outbox.NewRepository(pool).Replay(ctx, eventID); err != nil {
					return err
				}
				fmt.Printf("event %d queued for redelivery\n", eventID)
				return nil
			})
		},
	}

	cmd.AddCommand(failedCmd, replayCmd)
	return cmd
}
