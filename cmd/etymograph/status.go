package main

import (
	"fmt"
	"sort"

	"github.com/dd0wney/etymograph/pkg/health"
	"github.com/spf13/cobra"
)

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the configured lexicon is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.openBackend(ctx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			hc := health.NewChecker()
			b.registerChecks(hc)
			resp := hc.CheckReadiness(ctx)

			out := cmd.OutOrStdout()
			names := make([]string, 0, len(resp.Checks))
			for name := range resp.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				c := resp.Checks[name]
				rows = append(rows, []string{name, statusText(c.Status), c.Message})
			}
			fmt.Fprintf(out, "%s %s\n\n", brand.Sprint("source"), a.cfg.Lexicon.Source)
			printTable(out, []string{"CHECK", "STATUS", "MESSAGE"}, rows)

			if resp.Status != health.StatusHealthy {
				return fmt.Errorf("lexicon is %s", resp.Status)
			}
			return nil
		},
	}
}

func statusText(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return good.Sprint(string(s))
	case health.StatusDegraded:
		return warn.Sprint(string(s))
	default:
		return bad.Sprint(string(s))
	}
}
