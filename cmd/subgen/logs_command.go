package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/logging"
	"subgen/internal/logs"
)

func newLogsCommand(cctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			client, err := logs.NewClient(cfg.Paths.APIBind)
			if err != nil {
				return err
			}
			if client != nil {
				result, err := client.Fetch(ctx, -1, lines, 0)
				if err == nil {
					printLogLines(out, result.Lines)
					if !follow {
						return nil
					}
					return followAPI(ctx, client, out, result.Offset)
				}
				if !logs.IsAPIUnavailable(err) {
					return err
				}
			}

			// No daemon answering, read the file directly.
			path := logging.FilePath(cfg.Paths.LogDir)
			result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			printLogLines(out, result.Lines)
			if !follow {
				return nil
			}
			return followFile(ctx, path, out, result.Offset)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new lines as they are written")
	return cmd
}

func followAPI(ctx context.Context, client *logs.Client, out io.Writer, offset int64) error {
	for {
		result, err := client.Fetch(ctx, offset, 0, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		printLogLines(out, result.Lines)
		offset = result.Offset
	}
}

func followFile(ctx context.Context, path string, out io.Writer, offset int64) error {
	for {
		result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Wait: time.Second})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		printLogLines(out, result.Lines)
		offset = result.Offset
	}
}

func printLogLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
