package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"subgen/internal/deps"
	"subgen/internal/language"
)

func newStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the processing beacon, backlog, and ledger totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, cleanup, err := cctx.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			current, err := handles.beacon.Current(ctx)
			if err != nil {
				return err
			}
			if current == nil {
				fmt.Fprintln(out, "processing: idle")
			} else {
				fmt.Fprintf(out, "processing: %s/%s (since %s)\n",
					current.Author, current.Permlink, current.StartedAt.Format("2006-01-02 15:04:05"))
			}

			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			since, _ := cfg.StartDate()
			counts, err := handles.catalog.EligibleCounts(ctx, since)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "backlog: legacy=%d embed=%d audio=%d total=%d\n",
				counts.Legacy, counts.Embed, counts.Audio, counts.Total())

			stats, err := handles.ledger.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "ledger: items=%d subtitles=%d embed=%d audio=%d\n",
				stats.Items, stats.Subtitles, stats.EmbedItems, stats.AudioItems)

			codes := make([]string, 0, len(stats.ByLanguage))
			for code := range stats.ByLanguage {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			rows := make([][]string, 0, len(codes))
			for _, code := range codes {
				rows = append(rows, []string{
					code,
					language.DisplayName(code),
					fmt.Sprintf("%d", stats.ByLanguage[code]),
				})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Code", "Language", "Subtitles"}, rows))
			}

			depRows := make([][]string, 0, 3)
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				state := "ok"
				if !status.Available {
					state = status.Detail
				}
				depRows = append(depRows, []string{status.Name, status.Command, state})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Command", "Status"}, depRows))
			return nil
		},
	}
}
