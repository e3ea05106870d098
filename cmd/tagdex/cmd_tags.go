package main

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

type tagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

func newTagsCmd(a *app) *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with their entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, _, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			var counts []tagCount
			for g := range d.Groups() {
				if g.Untagged {
					continue
				}
				counts = append(counts, tagCount{Tag: g.Tag, Count: len(g.Keys)})
			}

			switch order {
			case "order":
			case "name":
				slices.SortFunc(counts, func(x, y tagCount) int { return cmp.Compare(x.Tag, y.Tag) })
			case "count":
				slices.SortStableFunc(counts, func(x, y tagCount) int { return cmp.Compare(y.Count, x.Count) })
			default:
				return fmt.Errorf("unknown sort %q: want order, name or count", order)
			}
			if counts == nil {
				counts = []tagCount{}
			}
			return a.print(cmd, counts)
		},
	}
	cmd.Flags().StringVar(&order, "sort", "order", "sort by order (of appearance), name or count")
	return cmd
}
