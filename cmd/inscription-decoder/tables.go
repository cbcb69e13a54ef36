package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/inscription-decoder/internal/script"
)

func tablesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect the transliteration and gloss tables",
	}
	cmd.AddCommand(tablesCheckCommand(a), tablesDumpCommand(a))
	return cmd
}

func tablesCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configured tables and report their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := script.LoadTables(a.cfg.Tables)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transliteration: %d entries (%s)\n", t.Transliteration.Len(), sourceName(a.cfg.Tables.TransliterationPath))
			fmt.Fprintf(cmd.OutOrStdout(), "gloss: %d entries (%s)\n", t.Gloss.Len(), sourceName(a.cfg.Tables.GlossPath))
			return nil
		},
	}
}

func tablesDumpCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:       "dump [transliteration|gloss]",
		Short:     "Print a loaded table in table-file format",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"transliteration", "gloss"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := script.ParseFormat(format)
			if err != nil {
				return err
			}
			t, err := script.LoadTables(a.cfg.Tables)
			if err != nil {
				return err
			}
			var entries []script.Entry
			switch args[0] {
			case "transliteration":
				entries = t.Transliteration.Entries()
			case "gloss":
				entries = t.Gloss.Entries()
			default:
				return fmt.Errorf("unknown table %q", args[0])
			}
			return script.EncodeEntries(cmd.OutOrStdout(), entries, f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func sourceName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
