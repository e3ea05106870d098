package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tagdex/query"
)

func newQueryCmd(a *app) *cobra.Command {
	var shape string
	cmd := &cobra.Command{
		Use:   "query [expr]",
		Short: "Evaluate a tag query",
		Long: `Evaluate a tag query against the loaded documents.

Operators: & (and), | (or), ! (not), parentheses. "*" matches every tagged
entry, "~" every untagged one. Quote tags containing spaces or operators.`,
		Example: `  tagdex -f users.json query 'staff & !intern'
  tagdex -f users.json query --shape count '~'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := query.Parse(args[0])
			if err != nil {
				return err
			}
			d, _, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			switch shape {
			case "values":
				v, err := d.Values(f)
				if err != nil {
					return err
				}
				return a.print(cmd, v)
			case "keys":
				keys, err := d.Keys(f)
				if err != nil {
					return err
				}
				return a.print(cmd, keys)
			case "count":
				n, err := d.Count(f)
				if err != nil {
					return err
				}
				return a.print(cmd, n)
			case "first":
				entry, _, err := d.First(f)
				if err != nil {
					return err
				}
				return a.print(cmd, entry)
			default:
				return fmt.Errorf("unknown shape %q: want values, keys, count or first", shape)
			}
		},
	}
	cmd.Flags().StringVar(&shape, "shape", "values", "result shape: values, keys, count or first")
	return cmd
}
