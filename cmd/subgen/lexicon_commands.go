package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHotwordsCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotwords",
		Short: "Manage the recognizer vocabulary prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored hotwords",
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			words, err := handles.lexicon.ListHotwords(cmd.Context())
			if err != nil {
				return err
			}
			if len(words) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no hotwords stored")
				return nil
			}
			rows := make([][]string, 0, len(words))
			for _, word := range words {
				rows = append(rows, []string{word.Word, word.AddedAt.Format("2006-01-02")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Word", "Added"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <word>",
		Short: "Add a hotword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return handles.lexicon.AddHotword(cmd.Context(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <word>",
		Short: "Remove a hotword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return handles.lexicon.RemoveHotword(cmd.Context(), args[0])
		},
	})

	return cmd
}

func newCorrectionsCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "Manage transcript correction rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List correction rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			rules := handles.lexicon.Corrections(cmd.Context())
			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no corrections stored")
				return nil
			}
			rows := make([][]string, 0, len(rules))
			for _, rule := range rules {
				rows = append(rows, []string{rule.From, rule.To, rule.AddedAt.Format("2006-01-02")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"From", "To", "Added"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <from> <to>",
		Short: "Add a correction rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return handles.lexicon.AddCorrection(cmd.Context(), args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <from>",
		Short: "Remove a correction rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return handles.lexicon.RemoveCorrection(cmd.Context(), args[0])
		},
	})

	return cmd
}
