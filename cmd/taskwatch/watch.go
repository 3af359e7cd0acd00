package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-tasksync/internal/liveclient"
	"github.com/adanyl0v/go-tasksync/internal/realtime"
)

func watchCmd() *cobra.Command {
	var (
		url            string
		reconnectDelay time.Duration
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print task events and relayed messages as they arrive",
		Long: `Open a live connection and print every task event and relayed
message. The connection is re-established after a fixed delay whenever
it drops.

Examples:
  taskwatch watch
  taskwatch watch --url ws://tasks.internal:5000/ --reconnect-delay 3s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
				w.Out = os.Stderr
				w.TimeFormat = time.TimeOnly
			})).Level(level).With().Timestamp().Logger()

			client := liveclient.New(url,
				liveclient.WithReconnectDelay(reconnectDelay),
				liveclient.WithLogger(logger),
			)
			out := cmd.OutOrStdout()
			client.OnEvent(func(ev realtime.Event) {
				fmt.Fprintln(out, formatEvent(time.Now(), ev))
			})
			client.OnRelay(func(msg []byte) {
				fmt.Fprintln(out, formatRelay(time.Now(), msg))
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := client.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://localhost:5000/", "live connection URL")
	cmd.Flags().DurationVar(&reconnectDelay, "reconnect-delay", liveclient.DefaultReconnectDelay, "delay before reconnecting")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log connection state changes")
	return cmd
}
