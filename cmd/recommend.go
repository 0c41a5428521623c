package cmd

import (
	"fmt"

	"github.com/KaramelBytes/basketlens/internal/recommend"
	"github.com/spf13/cobra"
)

var (
	itemsInput inputFlags

	recInput inputFlags
	recItem  string
	recTop   int
)

var itemsCmd = &cobra.Command{
	Use:   "items [file]",
	Short: "List the products that have recommendations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := itemsInput.mine(cmd, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		items := m.rules.BoughtItems()
		if len(items) == 0 {
			fmt.Fprintln(out, "(no rules met the thresholds)")
			return nil
		}
		for _, item := range items {
			fmt.Fprintln(out, item)
		}
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend [file]",
	Short: "Show what customers buy together with a product",
	Example: `  basketlens recommend store_data.csv --item "light cream"
  basketlens recommend --dataset 3f2a --item pasta --top 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if recTop <= 0 {
			return fmt.Errorf("--top must be positive")
		}
		m, err := recInput.mine(cmd, args)
		if err != nil {
			return err
		}
		item := recItem
		if item == "" {
			item = recommend.DefaultSelection(m.rules)
		}
		v := recommend.Build(m.rules, item)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Customers who purchased %s also frequently purchased:\n", v.Selection)
		if v.NoAssociation {
			fmt.Fprintf(out, "⚠ %s\n", recommend.NoticeNoAssociation)
		} else {
			for _, it := range v.Items {
				fmt.Fprintf(out, "  ✅ %s\n", it)
			}
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Top association rules:")
		if v.NoTopRules {
			fmt.Fprintf(out, "ℹ %s\n", recommend.NoticeNoTopRules)
			return nil
		}
		top := v.TopRules
		if recTop != recommend.TopN {
			top = v.Matches.SortedByConfidence().Head(recTop)
		}
		return top.Render(out, "table")
	},
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsInput.register(itemsCmd)

	rootCmd.AddCommand(recommendCmd)
	recInput.register(recommendCmd)
	recommendCmd.Flags().StringVar(&recItem, "item", "", "product to recommend for (default: first product with rules)")
	recommendCmd.Flags().IntVar(&recTop, "top", recommend.TopN, "number of top rules to show")
}
