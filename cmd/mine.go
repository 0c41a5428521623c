package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/KaramelBytes/basketlens/internal/basket"
	"github.com/KaramelBytes/basketlens/internal/rules"
	"github.com/KaramelBytes/basketlens/internal/utils"
	"github.com/spf13/cobra"
)

var (
	mineInput   inputFlags
	mineFormat  string
	mineOutPath string
)

var mineCmd = &cobra.Command{
	Use:   "mine [file]",
	Short: "Mine association rules and print the rule table",
	Long: `Mine association rules from a headerless transaction table (CSV, TSV or XLSX)
and print one rule per frequent itemset: the bought item, the item expected to be
bought with it, and the support, confidence and lift of the rule.

The markdown format prints a full report with the dataset shape and the top rules
by confidence.`,
	Example: `  basketlens mine store_data.csv
  basketlens mine store_data.csv --format markdown -o rules.md
  basketlens mine --dataset 3f2a --min-lift 2 --format csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(mineFormat))
		m, err := mineInput.mine(cmd, args)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if format == "markdown" || format == "md" {
			rep := &rules.Report{
				Name:       m.name,
				Summary:    basket.Summarize(m.txs),
				Thresholds: m.thresholds,
				Rules:      m.rules,
			}
			buf.WriteString(rep.Markdown())
		} else if err := m.rules.Render(&buf, format); err != nil {
			return err
		}

		if mineOutPath == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(mineOutPath, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d rules to %s\n", len(m.rules), mineOutPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineInput.register(mineCmd)
	mineCmd.Flags().StringVarP(&mineFormat, "format", "f", "table", "output format: "+strings.Join(rules.Formats, ", "))
	mineCmd.Flags().StringVarP(&mineOutPath, "output", "o", "", "write output to file instead of stdout")
}
