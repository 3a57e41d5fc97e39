package main

import (
	"strconv"
	"strings"

	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/spf13/cobra"
)

func datasetsCmd(*app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the built-in datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := [][]string{}
			for _, name := range lexicon.BuiltinNames() {
				ds, err := lexicon.Builtin(name)
				if err != nil {
					return err
				}
				lex, err := lexicon.NewStaticLexicon(ds)
				if err != nil {
					return err
				}
				st := lex.Stats()
				rows = append(rows, []string{
					lexicon.BuiltinScheme + name,
					strconv.Itoa(st.TotalWords),
					strconv.Itoa(st.TotalRelationships),
					strings.TrimSpace(ds.Description),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"SOURCE", "WORDS", "LINKS", "DESCRIPTION"}, rows)
			return nil
		},
	}
}
