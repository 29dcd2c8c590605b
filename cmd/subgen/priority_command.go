package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPriorityCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Manage the priority lane",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued priority requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			requests, err := handles.lane.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "priority lane is empty")
				return nil
			}
			rows := make([][]string, 0, len(requests))
			for _, req := range requests {
				kind := ""
				if req.Reprocess {
					kind = "reprocess"
				}
				rows = append(rows, []string{
					req.ID.Hex(),
					req.Author,
					req.Permlink,
					req.RequestedAt.Format("2006-01-02 15:04:05"),
					kind,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Author", "Permlink", "Requested", "Type"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <author> <permlink>",
		Short: "Queue an item ahead of the backlog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := handles.lane.Enqueue(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s/%s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <id>",
		Short: "Remove a queued priority request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := handles.lane.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newReprocessCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <author> <permlink>",
		Short: "Forget an item's progress and queue it for a fresh run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := handles.lane.EnqueueReprocess(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s/%s for reprocessing\n", args[0], args[1])
			return nil
		},
	}
}
