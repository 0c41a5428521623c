package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/basketlens/internal/basket"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var datasetDesc string

var datasetCmd = &cobra.Command{
	Use:     "dataset",
	Aliases: []string{"datasets"},
	Short:   "Manage stored transaction datasets",
	Long: `Stored datasets are copied into the data directory (data_dir, default
~/.basketlens/datasets) and can be used with --dataset by the mining commands or
opened in the dashboard.`,
}

var datasetAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Store a transaction file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !basket.Supported(args[0]) {
			return fmt.Errorf("unsupported file type: %s (use .csv, .tsv, .txt or .xlsx)", filepath.Base(args[0]))
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		d, err := store.AddFile(args[0], datasetDesc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dataset added: %s (%s, %d transactions)\n", d.ID, d.Name, d.Summary.Rows)
		return nil
	},
}

var datasetListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored datasets",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"ID", "Name", "Rows", "Columns", "Items", "Added", "Description"})
		for _, d := range list {
			tw.AppendRow(table.Row{
				d.ID, d.Name, d.Summary.Rows, d.Summary.Columns, d.Summary.DistinctItems,
				d.CreatedAt.Local().Format("2006-01-02 15:04"), d.Description,
			})
		}
		tw.Render()
		return nil
	},
}

var datasetRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a stored dataset",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		d, err := store.Remove(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dataset removed: %s (%s)\n", d.ID, d.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetAddCmd)
	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetRmCmd)
	datasetAddCmd.Flags().StringVarP(&datasetDesc, "desc", "d", "", "dataset description")
}
