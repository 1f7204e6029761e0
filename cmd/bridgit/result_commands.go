package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bridgit/internal/poller"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "result <session-id>",
		Short: "Fetch a session result once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := poller.NewHTTPFetcher(ctx.serverURL(), ctx.apiToken(), 10*time.Second)
			payload, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writePayload(cmd.OutOrStdout(), payload, stdoutIsTTY())
			if !payload.ProcessingComplete {
				fmt.Fprintln(cmd.OutOrStdout(), "Session is not complete (still processing, or already evicted).")
			}
			return nil
		},
	}
}

func newPollCommand(ctx *commandContext) *cobra.Command {
	var intervalSeconds int
	var maxAttempts int

	cmd := &cobra.Command{
		Use:   "poll <session-id>",
		Short: "Poll for a session result until it completes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if intervalSeconds <= 0 {
				intervalSeconds = cfg.Poller.IntervalSeconds
			}
			if maxAttempts <= 0 {
				maxAttempts = cfg.Poller.MaxAttempts
			}

			fetcher := poller.NewHTTPFetcher(ctx.serverURL(), ctx.apiToken(), 10*time.Second)
			p := poller.New(fetcher, poller.Options{
				Interval:    time.Duration(intervalSeconds) * time.Second,
				MaxAttempts: maxAttempts,
			})

			payload, err := p.Poll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writePayload(cmd.OutOrStdout(), payload, stdoutIsTTY())
			return nil
		},
	}

	cmd.Flags().IntVar(&intervalSeconds, "interval", 0, "Seconds between poll attempts (default from config)")
	cmd.Flags().IntVar(&maxAttempts, "attempts", 0, "Maximum poll attempts (default from config)")
	return cmd
}
