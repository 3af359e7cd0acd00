package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-tasksync/internal/probe"
)

func probeCmd() *cobra.Command {
	var (
		baseURL string
		method  string
		body    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe <endpoint>",
		Short: "Send one API request and record it as an api test",
		Long: `Send one request to the server, then store the exchange through
POST /api/tests so it shows up in the api test history.

Examples:
  taskwatch probe /api/tasks
  taskwatch probe /api/tasks -X POST -d '{"title":"Write docs"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			record, err := probe.Run(ctx, &http.Client{Timeout: timeout}, baseURL, probe.Request{
				Endpoint: args[0],
				Method:   method,
				Body:     body,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatApiTest(record))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:5000", "server base URL")
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&body, "data", "d", "", "raw JSON request body")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall timeout")
	return cmd
}
