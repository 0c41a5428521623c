package cmd

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/basketlens/internal/ruledb"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	exportInput inputFlags
	exportDB    string

	runsDB  string
	runsRun string
	runsFmt string
)

// resolveDB picks the --db flag or the configured export_db.
func resolveDB(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	conf, err := currentConfig()
	if err != nil {
		return "", err
	}
	if conf.ExportDB == "" {
		return "", errors.New("--db is required (or set export_db in config)")
	}
	return conf.ExportDB, nil
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Mine rules and store the rule table in a SQLite database",
	Example: `  basketlens export store_data.csv --db rules.db
  basketlens export --dataset 3f2a --db rules.db --min-lift 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDB(exportDB)
		if err != nil {
			return err
		}
		m, err := exportInput.mine(cmd, args)
		if err != nil {
			return err
		}
		db, err := ruledb.Open(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		run, err := db.Export(cmd.Context(), m.name, len(m.txs), m.thresholds, m.rules)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rules from %s as run %s to %s\n", run.RuleCount, m.name, run.ID, path)
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List exported runs, or print the rules of one run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDB(runsDB)
		if err != nil {
			return err
		}
		db, err := ruledb.Open(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		out := cmd.OutOrStdout()
		if runsRun != "" {
			tbl, err := db.Rules(cmd.Context(), runsRun)
			if err != nil {
				return err
			}
			return tbl.Render(out, runsFmt)
		}

		runs, err := db.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Run", "Source", "Created", "Transactions", "Rules", "Thresholds"})
		for _, r := range runs {
			tw.AppendRow(table.Row{
				r.ID, r.Source, r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Transactions, r.RuleCount, r.Thresholds.String(),
			})
		}
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportInput.register(exportCmd)
	exportCmd.Flags().StringVar(&exportDB, "db", "", "SQLite database path (default from config export_db)")

	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsDB, "db", "", "SQLite database path (default from config export_db)")
	runsCmd.Flags().StringVar(&runsRun, "run", "", "print the rules of this run")
	runsCmd.Flags().StringVarP(&runsFmt, "format", "f", "table", "rule output format with --run")
}
