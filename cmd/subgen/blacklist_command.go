package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBlacklistCommand(cctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage excluded items and authors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&reason, "reason", "", "Reason for the block")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blocked items and authors",
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			out := cmd.OutOrStdout()

			items, err := handles.guard.ListItems(cmd.Context())
			if err != nil {
				return err
			}
			authors, err := handles.guard.ListAuthors(cmd.Context())
			if err != nil {
				return err
			}

			if len(items) == 0 && len(authors) == 0 {
				fmt.Fprintln(out, "blacklist is empty")
				return nil
			}
			if len(items) > 0 {
				rows := make([][]string, 0, len(items))
				for _, entry := range items {
					rows = append(rows, []string{entry.Author, entry.Permlink, entry.Reason, entry.AddedAt.Format("2006-01-02")})
				}
				fmt.Fprintln(out, renderTable([]string{"Author", "Permlink", "Reason", "Added"}, rows))
			}
			if len(authors) > 0 {
				rows := make([][]string, 0, len(authors))
				for _, entry := range authors {
					rows = append(rows, []string{entry.Author, entry.Reason, entry.AddedAt.Format("2006-01-02")})
				}
				fmt.Fprintln(out, renderTable([]string{"Author", "Reason", "Added"}, rows))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <author> [permlink]",
		Short: "Block a single item, or every item by an author",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 2 {
				if err := handles.guard.AddItem(cmd.Context(), args[0], args[1], reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "blocked %s/%s\n", args[0], args[1])
				return nil
			}
			if err := handles.guard.AddAuthor(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "blocked author %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <author> [permlink]",
		Short: "Unblock a single item, or an author",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 2 {
				if err := handles.guard.RemoveItem(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "unblocked %s/%s\n", args[0], args[1])
				return nil
			}
			if err := handles.guard.RemoveAuthor(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unblocked author %s\n", args[0])
			return nil
		},
	})

	return cmd
}
