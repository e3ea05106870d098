package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, size, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			s := d.Stats()

			out := cmd.OutOrStdout()
			rows := []struct {
				name  string
				value string
			}{
				{"files", fmt.Sprintf("%d (%s)", len(a.cfg.Files), humanize.Bytes(uint64(size)))},
				{"entries", humanize.Comma(int64(s.Entries))},
				{"untagged", humanize.Comma(int64(s.TaglessEntries))},
				{"tags", humanize.Comma(int64(s.Tags))},
				{"empty tags", humanize.Comma(int64(s.EmptyTags))},
				{"links", humanize.Comma(int64(s.Links))},
			}
			for _, r := range rows {
				if _, err := fmt.Fprintf(out, "%-11s %s\n", r.name+":", r.value); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
