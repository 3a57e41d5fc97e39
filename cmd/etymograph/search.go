package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search PREFIX",
		Short: "Find words starting with a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.openBackend(ctx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			q := strings.TrimSpace(args[0])
			results, err := b.Search(ctx, q, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				warn.Fprintf(out, "No words match %q\n", q)
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Word, r.Language, r.POS, r.ID()})
			}
			info.Fprintf(out, "%d words match %q\n\n", len(results), q)
			printTable(out, []string{"WORD", "LANGUAGE", "POS", "ID"}, rows)
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results")
	return cmd
}
