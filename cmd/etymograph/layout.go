package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dd0wney/etymograph/pkg/explorer"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/spf13/cobra"
)

func layoutCmd(a *app) *cobra.Command {
	var (
		depth  int
		ticks  int
		indent bool
	)
	cmd := &cobra.Command{
		Use:   "layout WORD_ID",
		Short: "Lay out a word's neighbourhood and print it as JSON",
		Long: "Layout opens WORD_ID (word__lang), expands it --depth times, runs the\n" +
			"force simulation until it settles and prints node positions and edges.",
		Example: "  etymograph layout run__en --depth 2 --indent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.openBackend(ctx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			sess, err := explorer.NewSession(b.lookup, a.engineOptions(), a.cfg.Explorer)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Open(ctx, args[0]); err != nil {
				return err
			}
			if err := expandDepth(ctx, sess, args[0], depth); err != nil {
				return err
			}
			n := sess.Settle(ticks)
			a.log.Debug("layout settled", logging.Int("ticks", n))

			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(sess.Snapshot())
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 1, "expansion rounds from the root")
	cmd.Flags().IntVar(&ticks, "ticks", 500, "maximum simulation ticks")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the JSON output")
	return cmd
}

// expandDepth expands breadth-first from root for depth rounds. Words
// that turn out to have no etymology are skipped.
func expandDepth(ctx context.Context, sess *explorer.Session, root string, depth int) error {
	engine := sess.Engine()
	seen := map[string]bool{}
	frontier := []string{root}
	for round := 0; round < depth && len(frontier) > 0; round++ {
		for _, id := range frontier {
			seen[id] = true
			if engine.IsExpanded(id) {
				continue
			}
			if err := engine.Expand(ctx, id); err != nil && ctx.Err() != nil {
				return fmt.Errorf("expand %s: %w", id, err)
			}
		}
		engine.Wait()
		frontier = frontier[:0]
		for _, n := range engine.Nodes() {
			if !seen[n.ID] {
				frontier = append(frontier, n.ID)
			}
		}
	}
	return nil
}
