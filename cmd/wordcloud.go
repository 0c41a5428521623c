package cmd

import (
	"bytes"
	"errors"
	"fmt"

	cfgpkg "github.com/KaramelBytes/basketlens/internal/config"
	"github.com/KaramelBytes/basketlens/internal/recommend"
	"github.com/KaramelBytes/basketlens/internal/utils"
	"github.com/KaramelBytes/basketlens/internal/wordcloud"
	"github.com/spf13/cobra"
)

var (
	wcInput   inputFlags
	wcItem    string
	wcWords   int
	wcOutPath string
)

var wordcloudCmd = &cobra.Command{
	Use:     "wordcloud [file]",
	Short:   "Draw the word cloud of a product's recommended items as PNG",
	Example: `  basketlens wordcloud store_data.csv --item pasta --words 20 -o pasta.png`,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := currentConfig()
		if err != nil {
			return err
		}
		words := conf.DefaultWords
		if cmd.Flags().Changed("words") {
			words = wcWords
		}
		if !wordcloud.ValidWordCap(words) {
			return fmt.Errorf("invalid --words %d (use 10, 20, ..., 990)", words)
		}

		m, err := wcInput.mine(cmd, args)
		if err != nil {
			return err
		}
		item := wcItem
		if item == "" {
			item = recommend.DefaultSelection(m.rules)
		}
		v := recommend.Build(m.rules, item)

		out := wcOutPath
		if out == "" {
			out = utils.SafeBaseName(item) + ".wordcloud.png"
		}
		var buf bytes.Buffer
		err = wordcloud.WritePNG(&buf, v.Blob, cloudOptions(conf, words))
		if errors.Is(err, wordcloud.ErrNoWords) {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Nothing to draw for %q: %s\n", v.Selection, recommend.NoticeNoAssociation)
			return nil
		}
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Word cloud written: %s\n", out)
		return nil
	},
}

// cloudOptions applies the configured canvas to the default word cloud options.
func cloudOptions(c *cfgpkg.Global, words int) wordcloud.Options {
	opt := wordcloud.DefaultOptions()
	if c.CloudWidth > 0 {
		opt.Width = c.CloudWidth
	}
	if c.CloudHeight > 0 {
		opt.Height = c.CloudHeight
	}
	opt.Seed = c.CloudSeed
	opt.MaxWords = words
	return opt
}

func init() {
	rootCmd.AddCommand(wordcloudCmd)
	wcInput.register(wordcloudCmd)
	wordcloudCmd.Flags().StringVar(&wcItem, "item", "", "product whose recommendations are drawn (default: first product with rules)")
	wordcloudCmd.Flags().IntVar(&wcWords, "words", 10, "maximum number of words (10, 20, ..., 990; default from config)")
	wordcloudCmd.Flags().StringVarP(&wcOutPath, "output", "o", "", "PNG output path (default <item>.wordcloud.png)")
}
