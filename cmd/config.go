package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/basketlens/internal/config"
	"github.com/KaramelBytes/basketlens/internal/wordcloud"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set basketlens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_dir: %s\n", c.DataDir)
		fmt.Fprintf(out, "min_support: %g\n", c.MinSupport)
		fmt.Fprintf(out, "min_confidence: %g\n", c.MinConfidence)
		fmt.Fprintf(out, "min_lift: %g\n", c.MinLift)
		fmt.Fprintf(out, "min_length: %d\n", c.MinLength)
		fmt.Fprintf(out, "max_length: %d\n", c.MaxLength)
		fmt.Fprintf(out, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(out, "session_secret: %s\n", mask(c.SessionSecret))
		fmt.Fprintf(out, "cookie_secure: %t\n", c.CookieSecure)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "default_words: %d\n", c.DefaultWords)
		fmt.Fprintf(out, "cloud_width: %d\n", c.CloudWidth)
		fmt.Fprintf(out, "cloud_height: %d\n", c.CloudHeight)
		fmt.Fprintf(out, "cloud_seed: %d\n", c.CloudSeed)
		if c.ExportDB != "" {
			fmt.Fprintf(out, "export_db: %s\n", c.ExportDB)
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	nonNegFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		*dst = f
		return nil
	}
	nonNegInt := func(dst *int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
		return nil
	}

	switch key {
	case "data_dir":
		c.DataDir = val
	case "min_support":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid min_support: %v (use a value in (0, 1])", val)
		}
		c.MinSupport = f
	case "min_confidence":
		return nonNegFloat(&c.MinConfidence)
	case "min_lift":
		return nonNegFloat(&c.MinLift)
	case "min_length":
		return nonNegInt(&c.MinLength)
	case "max_length":
		return nonNegInt(&c.MaxLength)
	case "server_addr":
		c.ServerAddr = val
	case "session_secret":
		c.SessionSecret = val
	case "cookie_secure":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for cookie_secure: %v", val)
		}
		c.CookieSecure = b
	case "max_upload_mb":
		return nonNegInt(&c.MaxUploadMB)
	case "default_words":
		i, err := strconv.Atoi(val)
		if err != nil || !wordcloud.ValidWordCap(i) {
			return fmt.Errorf("invalid default_words: %v (use 10, 20, ..., 990)", val)
		}
		c.DefaultWords = i
	case "cloud_width":
		return nonNegInt(&c.CloudWidth)
	case "cloud_height":
		return nonNegInt(&c.CloudHeight)
	case "cloud_seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for cloud_seed: %w", err)
		}
		c.CloudSeed = i
	case "export_db":
		c.ExportDB = val
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "error", "disabled":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "console", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
