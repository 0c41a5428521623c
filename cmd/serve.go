package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/dashboard"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the market basket dashboard",
	Long: `Serve the dashboard on a local address. Upload a transaction file in the
sidebar, pick the number of word cloud words and a product, and the page shows
the recommended items, the top rules by confidence and a word cloud.

Mining thresholds come from the config (min_support, min_confidence, min_lift,
min_length, max_length) and are not adjustable from the page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := currentConfig()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		addr := conf.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		th := thresholdsFromConfig(conf)
		if th.MinSupport <= 0 {
			return apriori.ErrInvalidSupport
		}
		srv, err := dashboard.NewServer(dashboard.Config{
			Addr:          addr,
			Store:         store,
			Thresholds:    th,
			SessionSecret: conf.SessionSecret,
			CookieSecure:  conf.CookieSecure,
			MaxUploadMB:   conf.MaxUploadMB,
			DefaultWords:  conf.DefaultWords,
			Cloud:         cloudOptions(conf, conf.DefaultWords),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
}
