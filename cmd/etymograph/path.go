package main

import (
	"fmt"
	"strings"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/spf13/cobra"
)

func pathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "path FROM_ID TO_ID",
		Short:   "Trace the chain of origins from one word to an ancestor",
		Example: "  etymograph path run__en '*h₃reyn-__ine-pro'",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lex, err := a.loadStatic(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			chain := lex.FindPath(args[0], args[1])
			if chain == nil {
				bad.Fprintf(out, "No path from %s to %s\n", args[0], args[1])
				return fmt.Errorf("no path from %s to %s", args[0], args[1])
			}

			steps := make([]string, 0, len(chain))
			for _, id := range chain {
				steps = append(steps, describe(id, lex.GetWordByID))
			}
			good.Fprintf(out, "%d steps\n", len(chain)-1)
			fmt.Fprintln(out, "  "+strings.Join(steps, subtle.Sprint(" ← ")))
			return nil
		},
	}
}

// describe renders an id as "word (Language)".
func describe(id string, get func(string) (etymology.WordRecord, bool)) string {
	w, ok := get(id)
	if !ok {
		return id
	}
	lang := w.LanguageDisplay
	if lang == "" {
		lang = w.Language
	}
	return w.Word + subtle.Sprintf(" (%s)", lang)
}
